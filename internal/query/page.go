package query

// Page is the uniform pagination envelope.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// TotalPages is ceil(total/pageSize).
func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return int((total-1)/int64(pageSize) + 1)
}

// MapPage shapes every item of p with fn, keeping the counters.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	items := make([]R, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[R]{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
