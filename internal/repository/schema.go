package repository

import (
	"context"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// Entity registry. Columns are listed in table order and match the db tags
// of the model structs.
var (
	Users = query.Entity[model.User]{
		Table: "users",
		Columns: []string{"id", "name", "email", "phone_no", "dial_code", "password",
			"email_verified_at", "email_verify_token", "email_verify_expired_at",
			"status", "user_type", "created_at", "updated_at", "deleted_at"},
	}

	UserTokens = query.Entity[model.UserToken]{
		Table: "user_tokens",
		Columns: []string{"id", "user_id", "access_token", "refresh_token", "ip", "user_agent",
			"expired_at", "revoked_at", "created_at", "updated_at"},
	}

	Categories = query.Entity[model.Category]{
		Table:   "categories",
		Columns: []string{"id", "name", "description", "created_at", "updated_at", "deleted_at"},
		Relations: map[string]query.Relation{
			"questions": {Table: "questions", On: "questions.category_id = categories.id", Fields: []string{"question", "status", "difficulty"}},
		},
	}

	Questions = query.Entity[model.Question]{
		Table: "questions",
		Columns: []string{"id", "user_id", "category_id", "question", "question_type", "status",
			"difficulty", "is_published", "review_comment", "explanation", "references_text",
			"created_at", "updated_at", "deleted_at"},
		Relations: map[string]query.Relation{
			"category": {Table: "categories", On: "categories.id = questions.category_id", Fields: []string{"id", "name"}},
			"user":     {Table: "users", On: "users.id = questions.user_id", Fields: []string{"id", "name", "email"}},
			"choices":  {Table: "choices", On: "choices.question_id = questions.id", Fields: []string{"option_text", "is_correct"}},
		},
	}

	Choices = query.Entity[model.Choice]{
		Table:   "choices",
		Columns: []string{"id", "question_id", "option_text", "is_correct", "created_at", "updated_at"},
	}

	Quizzes = query.Entity[model.Quiz]{
		Table:   "quizzes",
		Columns: []string{"id", "user_id", "title", "description", "total_questions", "created_at", "updated_at"},
		Relations: map[string]query.Relation{
			"user": {Table: "users", On: "users.id = quizzes.user_id", Fields: []string{"id", "name"}},
		},
	}

	QuizQuestions = query.Entity[model.QuizQuestion]{
		Table:   "quiz_questions",
		Columns: []string{"id", "quiz_id", "question_id", "position", "created_at"},
	}

	QuizAttempts = query.Entity[model.QuizAttempt]{
		Table: "quiz_attempts",
		Columns: []string{"id", "quiz_id", "user_id", "score", "total_questions", "correct_answers",
			"started_at", "submitted_at"},
	}

	AttemptAnswers = query.Entity[model.AttemptAnswer]{
		Table:   "attempt_answers",
		Columns: []string{"id", "quiz_attempt_id", "question_id", "selected_choice_id", "is_correct", "created_at"},
	}
)

// Loaders reference other entities, so they are attached after the
// package-level registry is initialised.
func init() {
	Questions.Loaders = map[string]query.Loader[model.Question]{
		"category": loadQuestionCategories,
		"user":     loadQuestionUsers,
		"choices":  loadQuestionChoices,
	}
	Quizzes.Loaders = map[string]query.Loader[model.Quiz]{
		"questions": loadQuizQuestions,
	}
	QuizAttempts.Loaders = map[string]query.Loader[model.QuizAttempt]{
		"answers": loadAttemptAnswers,
	}
}

// keys collects the distinct non-nil keys of items in first-seen order.
func keys[T any](items []*T, key func(*T) *int64) []any {
	seen := map[int64]bool{}
	out := []any{}
	for _, it := range items {
		k := key(it)
		if k == nil || seen[*k] {
			continue
		}
		seen[*k] = true
		out = append(out, *k)
	}
	return out
}

// byID indexes rows by their identifier.
func byID[T any](rows []*T, id func(*T) int64) map[int64]*T {
	m := make(map[int64]*T, len(rows))
	for _, r := range rows {
		m[id(r)] = r
	}
	return m
}

func loadQuestionCategories(ctx context.Context, q query.Querier, items []*model.Question) error {
	ids := keys(items, func(it *model.Question) *int64 { return it.CategoryID })
	if len(ids) == 0 {
		return nil
	}
	// a question keeps pointing at its category after the category is trashed
	rows, err := query.New(q, Categories).WithTrashed().Where(query.In("id", ids...)).All(ctx)
	if err != nil {
		return err
	}
	m := byID(rows, func(c *model.Category) int64 { return c.ID })
	for _, it := range items {
		if it.CategoryID != nil {
			it.Category = m[*it.CategoryID]
		}
	}
	return nil
}

func loadQuestionUsers(ctx context.Context, q query.Querier, items []*model.Question) error {
	ids := keys(items, func(it *model.Question) *int64 { return it.UserID })
	if len(ids) == 0 {
		return nil
	}
	rows, err := query.New(q, Users).WithTrashed().Where(query.In("id", ids...)).All(ctx)
	if err != nil {
		return err
	}
	m := byID(rows, func(u *model.User) int64 { return u.ID })
	for _, it := range items {
		if it.UserID != nil {
			it.User = m[*it.UserID]
		}
	}
	return nil
}

func loadQuestionChoices(ctx context.Context, q query.Querier, items []*model.Question) error {
	ids := keys(items, func(it *model.Question) *int64 { return &it.ID })
	rows, err := query.New(q, Choices).Where(query.In("question_id", ids...)).OrderBy("id", query.Asc).All(ctx)
	if err != nil {
		return err
	}
	m := make(map[int64][]*model.Choice, len(items))
	for _, c := range rows {
		m[c.QuestionID] = append(m[c.QuestionID], c)
	}
	for _, it := range items {
		it.Choices = m[it.ID]
		if it.Choices == nil {
			it.Choices = []*model.Choice{}
		}
	}
	return nil
}

// loadQuizQuestions attaches each quiz's questions in position order, with
// their choices.
func loadQuizQuestions(ctx context.Context, q query.Querier, items []*model.Quiz) error {
	ids := keys(items, func(it *model.Quiz) *int64 { return &it.ID })
	links, err := query.New(q, QuizQuestions).Where(query.In("quiz_id", ids...)).OrderBy("position", query.Asc).All(ctx)
	if err != nil {
		return err
	}
	qids := keys(links, func(l *model.QuizQuestion) *int64 { return &l.QuestionID })
	var questions map[int64]*model.Question
	if len(qids) > 0 {
		rows, err := query.New(q, Questions).WithTrashed().Where(query.In("id", qids...)).With("choices").All(ctx)
		if err != nil {
			return err
		}
		questions = byID(rows, func(qu *model.Question) int64 { return qu.ID })
	}
	m := make(map[int64][]*model.QuizQuestion, len(items))
	for _, l := range links {
		l.Question = questions[l.QuestionID]
		m[l.QuizID] = append(m[l.QuizID], l)
	}
	for _, it := range items {
		it.Questions = m[it.ID]
		if it.Questions == nil {
			it.Questions = []*model.QuizQuestion{}
		}
	}
	return nil
}

func loadAttemptAnswers(ctx context.Context, q query.Querier, items []*model.QuizAttempt) error {
	ids := keys(items, func(it *model.QuizAttempt) *int64 { return &it.ID })
	rows, err := query.New(q, AttemptAnswers).Where(query.In("quiz_attempt_id", ids...)).OrderBy("id", query.Asc).All(ctx)
	if err != nil {
		return err
	}
	m := make(map[int64][]*model.AttemptAnswer, len(items))
	for _, a := range rows {
		m[a.QuizAttemptID] = append(m[a.QuizAttemptID], a)
	}
	for _, it := range items {
		it.Answers = m[it.ID]
		if it.Answers == nil {
			it.Answers = []*model.AttemptAnswer{}
		}
	}
	return nil
}
