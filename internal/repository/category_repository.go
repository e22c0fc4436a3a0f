package repository

import (
	"context"
	"time"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// CategoryRepo writes the `categories` table; reads go through the query builder.
type CategoryRepo struct{ db query.Querier }

func NewCategoryRepo(db query.Querier) *CategoryRepo { return &CategoryRepo{db: db} }

// Create inserts c and fills its ID. A duplicate name yields errs.ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, description, created_at, updated_at) VALUES (?,?,?,?)",
		c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// Update rewrites name and description.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name=?, description=?, updated_at=? WHERE id=?",
		c.Name, c.Description, c.UpdatedAt, c.ID)
	return translate(err)
}

// SoftDelete stamps deleted_at; the row stays for WithTrashed readers.
func (r *CategoryRepo) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE categories SET deleted_at=?, updated_at=? WHERE id=? AND deleted_at IS NULL",
		at, at, id)
	return err
}
