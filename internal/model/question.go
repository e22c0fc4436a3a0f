package model

import "time"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Boolean        QuestionType = "boolean"
)

type QuestionStatus string

const (
	StatusActive   QuestionStatus = "active"
	StatusRejected QuestionStatus = "rejected"
	StatusDraft    QuestionStatus = "draft"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Question mirrors `questions`. Category, User and Choices are filled by
// eager loaders, never by the row scan.
type Question struct {
	ID            int64          `db:"id" json:"id"`
	UserID        *int64         `db:"user_id" json:"user_id"`
	CategoryID    *int64         `db:"category_id" json:"category_id"`
	Question      string         `db:"question" json:"question"`
	QuestionType  QuestionType   `db:"question_type" json:"question_type"`
	Status        QuestionStatus `db:"status" json:"status"`
	Difficulty    Difficulty     `db:"difficulty" json:"difficulty"`
	IsPublished   bool           `db:"is_published" json:"is_published"`
	ReviewComment *string        `db:"review_comment" json:"review_comment"`
	Explanation   *string        `db:"explanation" json:"explanation"`
	References    *string        `db:"references_text" json:"references"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`

	Category *Category `db:"-" json:"category,omitempty"`
	User     *User     `db:"-" json:"user,omitempty"`
	Choices  []*Choice `db:"-" json:"choices,omitempty"`
}

// Choice is one answer option of a question.
type Choice struct {
	ID         int64     `db:"id" json:"id"`
	QuestionID int64     `db:"question_id" json:"question_id"`
	OptionText string    `db:"option_text" json:"option_text"`
	IsCorrect  bool      `db:"is_correct" json:"is_correct"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryStats counts the questions of one category by status.
type CategoryStats struct {
	CategoryID   int64  `db:"category_id" json:"category_id"`
	CategoryName string `db:"category_name" json:"category_name"`
	Total        int64  `db:"total" json:"total"`
	Draft        int64  `db:"draft" json:"draft"`
	Active       int64  `db:"active" json:"active"`
	Rejected     int64  `db:"rejected" json:"rejected"`
}
