package query

import (
	"context"
	"database/sql"
	"slices"
)

// Querier is the session a builder runs on. *sql.DB and *sql.Tx both satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Relation describes a table that can be joined to filter the base rows.
type Relation struct {
	Table  string   // joined table
	On     string   // join predicate, e.g. "categories.id = questions.category_id"
	Fields []string // related columns that may be filtered on
}

func (r Relation) has(field string) bool { return slices.Contains(r.Fields, field) }

// Loader attaches related records to already fetched rows.
type Loader[T any] func(ctx context.Context, q Querier, items []*T) error

// Entity is the registry entry for one table: what can be selected,
// filtered, sorted, joined and eager-loaded.
//
// A column named "deleted_at" makes the entity soft-deletable and a column
// named "id" makes it addressable by identifier.
type Entity[T any] struct {
	Table     string
	Columns   []string
	Relations map[string]Relation
	Loaders   map[string]Loader[T]
}

// HasField reports whether name is a column of the entity.
func (e Entity[T]) HasField(name string) bool { return slices.Contains(e.Columns, name) }

// SoftDeletes reports whether rows carry a deleted_at marker.
func (e Entity[T]) SoftDeletes() bool { return e.HasField("deleted_at") }

// IDField returns the identifier column, or "" when the entity has none.
func (e Entity[T]) IDField() string {
	if e.HasField("id") {
		return "id"
	}
	return ""
}

func (e Entity[T]) col(name string) string { return e.Table + "." + name }
