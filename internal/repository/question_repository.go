package repository

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// QuestionRepo writes `questions` and their `choices`.
type QuestionRepo struct{ db query.Querier }

func NewQuestionRepo(db query.Querier) *QuestionRepo { return &QuestionRepo{db: db} }

// Create inserts the question and every choice in q.Choices.
func (r *QuestionRepo) Create(ctx context.Context, q *model.Question) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO questions (user_id, category_id, question, question_type, status, difficulty,
			is_published, review_comment, explanation, references_text, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		q.UserID, q.CategoryID, q.Question, string(q.QuestionType), string(q.Status), string(q.Difficulty),
		q.IsPublished, q.ReviewComment, q.Explanation, q.References, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if q.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for _, c := range q.Choices {
		c.QuestionID = q.ID
		if err := r.CreateChoice(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites the question's own columns. Choices are synced separately.
func (r *QuestionRepo) Update(ctx context.Context, q *model.Question) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE questions SET category_id=?, question=?, question_type=?, status=?, difficulty=?,
			is_published=?, review_comment=?, explanation=?, references_text=?, updated_at=?
		 WHERE id=?`,
		q.CategoryID, q.Question, string(q.QuestionType), string(q.Status), string(q.Difficulty),
		q.IsPublished, q.ReviewComment, q.Explanation, q.References, q.UpdatedAt, q.ID)
	return translate(err)
}

// SoftDelete stamps deleted_at.
func (r *QuestionRepo) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE questions SET deleted_at=?, updated_at=? WHERE id=? AND deleted_at IS NULL",
		at, at, id)
	return err
}

// CreateChoice inserts c and fills its ID.
func (r *QuestionRepo) CreateChoice(ctx context.Context, c *model.Choice) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO choices (question_id, option_text, is_correct, created_at, updated_at) VALUES (?,?,?,?,?)",
		c.QuestionID, c.OptionText, c.IsCorrect, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// UpdateChoice rewrites a choice that belongs to c.QuestionID.
func (r *QuestionRepo) UpdateChoice(ctx context.Context, c *model.Choice) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE choices SET option_text=?, is_correct=?, updated_at=? WHERE id=? AND question_id=?",
		c.OptionText, c.IsCorrect, c.UpdatedAt, c.ID, c.QuestionID)
	return err
}

// DeleteChoices removes the given choices of a question.
func (r *QuestionRepo) DeleteChoices(ctx context.Context, questionID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{questionID}, query.Int64s(ids)...)
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM choices WHERE question_id=? AND id IN ("+placeholders(len(ids))+")",
		args...)
	return err
}

// Stats counts live questions per live category, split by status.
func (r *QuestionRepo) Stats(ctx context.Context) ([]*model.CategoryStats, error) {
	out := []*model.CategoryStats{}
	err := sqlscan.Select(ctx, r.db, &out, `
		SELECT c.id AS category_id,
		       c.name AS category_name,
		       COUNT(q.id) AS total,
		       COALESCE(SUM(CASE WHEN q.status = 'draft' THEN 1 ELSE 0 END), 0) AS draft,
		       COALESCE(SUM(CASE WHEN q.status = 'active' THEN 1 ELSE 0 END), 0) AS active,
		       COALESCE(SUM(CASE WHEN q.status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected
		FROM categories c
		LEFT JOIN questions q ON q.category_id = c.id AND q.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		GROUP BY c.id, c.name
		ORDER BY c.name ASC`)
	return out, err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
