package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/query"
)

// ErrNoIdentifier is returned by FindByID on entities without an id column.
var ErrNoIdentifier = errors.New("entity has no identifier field")

// conflict rewrites a unique violation as "<what> already exists" and
// wraps anything else with what.
func conflict(err error, what string) error {
	if errors.Is(err, errs.ErrConflict) {
		return fmt.Errorf("%w: %s already exists", errs.ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// FindOptions tunes a finder call. Zero values sort by id ascending and
// hide soft-deleted rows.
type FindOptions struct {
	SortBy      string
	SortOrder   query.Direction
	WithTrashed bool
	With        []string
}

// Base is the generic data-access service every entity service builds on.
type Base[T any] struct {
	q      query.Querier
	entity query.Entity[T]
}

// NewBase binds an entity to the session of the current request.
func NewBase[T any](q query.Querier, e query.Entity[T]) Base[T] {
	return Base[T]{q: q, entity: e}
}

// Builder returns a fresh builder, optionally including soft-deleted rows.
func (s Base[T]) Builder(withTrashed bool) query.Builder[T] {
	b := query.New(s.q, s.entity)
	if withTrashed {
		b = b.WithTrashed()
	}
	return b
}

// Query applies opts and conds to a fresh builder, ready for more filters.
func (s Base[T]) Query(opts FindOptions, conds ...query.Cond) query.Builder[T] {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "id"
	}
	order := opts.SortOrder
	if order == "" {
		order = query.Asc
	}
	return s.Builder(opts.WithTrashed).
		Where(conds...).
		With(opts.With...).
		OrderBy(sortBy, order)
}

// FindOne returns the first row matching conds, or nil.
func (s Base[T]) FindOne(ctx context.Context, opts FindOptions, conds ...query.Cond) (*T, error) {
	return s.Query(opts, conds...).First(ctx)
}

// FindAll returns every row matching conds. It is unbounded; callers that
// face user input should Paginate instead.
func (s Base[T]) FindAll(ctx context.Context, opts FindOptions, conds ...query.Cond) ([]*T, error) {
	return s.Query(opts, conds...).All(ctx)
}

// FindByID looks a row up by identifier, or returns nil.
func (s Base[T]) FindByID(ctx context.Context, id int64, opts FindOptions) (*T, error) {
	field := s.entity.IDField()
	if field == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoIdentifier, s.entity.Table)
	}
	return s.FindOne(ctx, opts, query.Eq(field, id))
}

// Paginate returns one page of rows matching conds.
func (s Base[T]) Paginate(ctx context.Context, opts FindOptions, page, pageSize int, conds ...query.Cond) (query.Page[*T], error) {
	return s.Query(opts, conds...).Paginate(ctx, page, pageSize)
}
