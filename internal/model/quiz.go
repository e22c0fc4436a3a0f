package model

import "time"

// Quiz is an ordered set of questions.
type Quiz struct {
	ID             int64     `db:"id" json:"id"`
	UserID         *int64    `db:"user_id" json:"user_id"`
	Title          string    `db:"title" json:"title"`
	Description    *string   `db:"description" json:"description"`
	TotalQuestions int       `db:"total_questions" json:"total_questions"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	Questions []*QuizQuestion `db:"-" json:"questions,omitempty"`
}

// QuizQuestion places a question at a position inside a quiz.
type QuizQuestion struct {
	ID         int64     `db:"id" json:"id"`
	QuizID     int64     `db:"quiz_id" json:"quiz_id"`
	QuestionID int64     `db:"question_id" json:"question_id"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Question *Question `db:"-" json:"question,omitempty"`
}

// QuizAttempt is one user's run through a quiz. SubmittedAt is nil while
// the attempt is open.
type QuizAttempt struct {
	ID             int64      `db:"id" json:"id"`
	QuizID         int64      `db:"quiz_id" json:"quiz_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Score          int        `db:"score" json:"score"`
	TotalQuestions int        `db:"total_questions" json:"total_questions"`
	CorrectAnswers int        `db:"correct_answers" json:"correct_answers"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	SubmittedAt    *time.Time `db:"submitted_at" json:"submitted_at"`

	Answers []*AttemptAnswer `db:"-" json:"answers,omitempty"`
}

// AttemptAnswer records the choice picked for one question of an attempt.
type AttemptAnswer struct {
	ID               int64     `db:"id" json:"id"`
	QuizAttemptID    int64     `db:"quiz_attempt_id" json:"quiz_attempt_id"`
	QuestionID       int64     `db:"question_id" json:"question_id"`
	SelectedChoiceID *int64    `db:"selected_choice_id" json:"selected_choice_id"`
	IsCorrect        bool      `db:"is_correct" json:"is_correct"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
