package query

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" or "desc" in any case; empty means asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Builder composes a SELECT over one entity. It is an immutable value:
// every method returns a new Builder and the receiver stays usable.
type Builder[T any] struct {
	q      Querier
	entity Entity[T]

	where   []string
	args    []any
	joins   []string
	preload []string
	order   string
	limit   int
	offset  int

	err error
}

// New starts a query on e. Soft-deleted rows are excluded unless
// WithTrashed is called.
func New[T any](q Querier, e Entity[T]) Builder[T] {
	b := Builder[T]{q: q, entity: e}
	if e.SoftDeletes() {
		b.where = []string{e.col("deleted_at") + " IS NULL"}
	}
	return b
}

// WithTrashed returns a builder over all rows, soft-deleted included.
// It starts from a fresh base query, so it must be called before any filter.
func (b Builder[T]) WithTrashed() Builder[T] {
	return Builder[T]{q: b.q, entity: b.entity}
}

func (b Builder[T]) clone() Builder[T] {
	b.where = slices.Clone(b.where)
	b.args = slices.Clone(b.args)
	b.joins = slices.Clone(b.joins)
	b.preload = slices.Clone(b.preload)
	return b
}

func (b Builder[T]) fail(err error) Builder[T] {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b Builder[T]) column(field string) (string, bool) {
	if !b.entity.HasField(field) {
		return "", false
	}
	return b.entity.col(field), true
}

// Where ANDs conds onto the query.
func (b Builder[T]) Where(conds ...Cond) Builder[T] {
	out := b.clone()
	for _, c := range conds {
		sql, args, err := c.render(out.column)
		if err != nil {
			return out.fail(err)
		}
		out.where = append(out.where, sql)
		out.args = append(out.args, args...)
	}
	return out
}

// WhereLike keeps rows whose field contains value, ignoring case.
func (b Builder[T]) WhereLike(field, value string) Builder[T] {
	col, ok := b.column(field)
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownField, field))
	}
	return b.like(col, value)
}

func (b Builder[T]) like(col, value string) Builder[T] {
	out := b.clone()
	out.where = append(out.where, "LOWER("+col+") LIKE ?")
	out.args = append(out.args, "%"+strings.ToLower(value)+"%")
	return out
}

func (b Builder[T]) relation(name, field string) (Builder[T], string, error) {
	rel, ok := b.entity.Relations[name]
	if !ok {
		return b, "", fmt.Errorf("%w: %q", ErrUnknownRelation, name)
	}
	if !rel.has(field) {
		return b, "", fmt.Errorf("%w: %q on relation %q", ErrUnknownField, field, name)
	}
	out := b.clone()
	if !slices.Contains(out.joins, name) {
		out.joins = append(out.joins, name)
	}
	return out, rel.Table + "." + field, nil
}

// WhereRelation joins the named relation and keeps rows whose related
// field equals value.
func (b Builder[T]) WhereRelation(name, field string, value any) Builder[T] {
	out, col, err := b.relation(name, field)
	if err != nil {
		return b.fail(err)
	}
	out.where = append(out.where, col+" = ?")
	out.args = append(out.args, value)
	return out
}

// WhereRelationLike joins the named relation and keeps rows whose related
// field contains value, ignoring case.
func (b Builder[T]) WhereRelationLike(name, field, value string) Builder[T] {
	out, col, err := b.relation(name, field)
	if err != nil {
		return b.fail(err)
	}
	return out.like(col, value)
}

// With eager-loads the named relations once the rows are fetched.
func (b Builder[T]) With(names ...string) Builder[T] {
	out := b.clone()
	for _, name := range names {
		if _, ok := b.entity.Loaders[name]; !ok {
			return out.fail(fmt.Errorf("%w: %q", ErrUnknownRelation, name))
		}
		if !slices.Contains(out.preload, name) {
			out.preload = append(out.preload, name)
		}
	}
	return out
}

// OrderBy replaces any previous sort.
func (b Builder[T]) OrderBy(field string, dir Direction) Builder[T] {
	col, ok := b.column(field)
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownField, field))
	}
	if dir != Asc && dir != Desc {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidDirection, dir))
	}
	out := b.clone()
	out.order = col + " " + strings.ToUpper(string(dir))
	return out
}

// Err returns the first configuration error recorded on the builder.
func (b Builder[T]) Err() error { return b.err }

func (b Builder[T]) from() string {
	var sb strings.Builder
	sb.WriteString(" FROM ")
	sb.WriteString(b.entity.Table)
	for _, name := range b.joins {
		rel := b.entity.Relations[name]
		sb.WriteString(" JOIN ")
		sb.WriteString(rel.Table)
		sb.WriteString(" ON ")
		sb.WriteString(rel.On)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	return sb.String()
}

// SQL renders the SELECT statement and its arguments.
func (b Builder[T]) SQL() (string, []any) {
	cols := make([]string, len(b.entity.Columns))
	for i, c := range b.entity.Columns {
		cols[i] = b.entity.col(c) + " AS " + c
	}
	head := "SELECT "
	if len(b.joins) > 0 {
		head += "DISTINCT "
	}
	sql := head + strings.Join(cols, ", ") + b.from()
	if b.order != "" {
		sql += " ORDER BY " + b.order
	}
	args := slices.Clone(b.args)
	if b.limit > 0 {
		sql += " LIMIT ? OFFSET ?"
		args = append(args, b.limit, b.offset)
	}
	return sql, args
}

// CountSQL renders the COUNT statement over the same predicates, unsorted.
func (b Builder[T]) CountSQL() (string, []any) {
	head := "SELECT COUNT(*)"
	if id := b.entity.IDField(); len(b.joins) > 0 && id != "" {
		head = "SELECT COUNT(DISTINCT " + b.entity.col(id) + ")"
	}
	return head + b.from(), slices.Clone(b.args)
}

func (b Builder[T]) window(limit, offset int) Builder[T] {
	out := b.clone()
	out.limit, out.offset = limit, offset
	return out
}

// All returns every matching row; the result is never nil.
func (b Builder[T]) All(ctx context.Context) ([]*T, error) {
	if b.err != nil {
		return nil, b.err
	}
	sql, args := b.SQL()
	items := []*T{}
	if err := sqlscan.Select(ctx, b.q, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", b.entity.Table, err)
	}
	if len(items) == 0 {
		return items, nil
	}
	for _, name := range b.preload {
		if err := b.entity.Loaders[name](ctx, b.q, items); err != nil {
			return nil, fmt.Errorf("load %s.%s: %w", b.entity.Table, name, err)
		}
	}
	return items, nil
}

// First returns the first matching row under the current sort, or nil.
func (b Builder[T]) First(ctx context.Context) (*T, error) {
	items, err := b.window(1, 0).All(ctx)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// Count returns the number of matching rows.
func (b Builder[T]) Count(ctx context.Context) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	sql, args := b.CountSQL()
	var total int64
	if err := b.q.QueryRowContext(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", b.entity.Table, err)
	}
	return total, nil
}

// Paginate returns one page of rows under the current sort.
func (b Builder[T]) Paginate(ctx context.Context, page, pageSize int) (Page[*T], error) {
	if b.err != nil {
		return Page[*T]{}, b.err
	}
	if page < 1 || pageSize < 1 {
		return Page[*T]{}, fmt.Errorf("%w: page=%d page_size=%d", ErrInvalidPage, page, pageSize)
	}
	total, err := b.Count(ctx)
	if err != nil {
		return Page[*T]{}, err
	}
	items := []*T{}
	// page-1 is compared against the last page index so the offset below
	// cannot overflow.
	if total > 0 && int64(page-1) <= (total-1)/int64(pageSize) {
		if items, err = b.window(pageSize, (page-1)*pageSize).All(ctx); err != nil {
			return Page[*T]{}, err
		}
	}
	return Page[*T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}, nil
}
