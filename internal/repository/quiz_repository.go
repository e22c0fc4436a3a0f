package repository

import (
	"context"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// QuizRepo writes quizzes, their question links, attempts and answers.
type QuizRepo struct{ db query.Querier }

func NewQuizRepo(db query.Querier) *QuizRepo { return &QuizRepo{db: db} }

// Create inserts the quiz and links every question in q.Questions, in order.
func (r *QuizRepo) Create(ctx context.Context, q *model.Quiz) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO quizzes (user_id, title, description, total_questions, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		q.UserID, q.Title, q.Description, q.TotalQuestions, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	if q.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for _, l := range q.Questions {
		l.QuizID = q.ID
		res, err := r.db.ExecContext(ctx,
			"INSERT INTO quiz_questions (quiz_id, question_id, position, created_at) VALUES (?,?,?,?)",
			l.QuizID, l.QuestionID, l.Position, l.CreatedAt)
		if err != nil {
			return translate(err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

// CreateAttempt opens an attempt and fills its ID.
func (r *QuizRepo) CreateAttempt(ctx context.Context, a *model.QuizAttempt) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO quiz_attempts (quiz_id, user_id, total_questions, started_at) VALUES (?,?,?,?)",
		a.QuizID, a.UserID, a.TotalQuestions, a.StartedAt)
	if err != nil {
		return translate(err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// SubmitAttempt stores the answers and closes the attempt with its score.
func (r *QuizRepo) SubmitAttempt(ctx context.Context, a *model.QuizAttempt) error {
	for _, ans := range a.Answers {
		ans.QuizAttemptID = a.ID
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO attempt_answers (quiz_attempt_id, question_id, selected_choice_id, is_correct, created_at)
			 VALUES (?,?,?,?,?)`,
			ans.QuizAttemptID, ans.QuestionID, ans.SelectedChoiceID, ans.IsCorrect, ans.CreatedAt)
		if err != nil {
			return translate(err)
		}
		if ans.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE quiz_attempts SET score=?, correct_answers=?, submitted_at=? WHERE id=? AND submitted_at IS NULL",
		a.Score, a.CorrectAnswers, a.SubmittedAt, a.ID)
	return err
}
