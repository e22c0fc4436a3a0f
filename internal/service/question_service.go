package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/repository"
)

// ChoiceInput is one answer option. ID is set when updating an existing choice.
type ChoiceInput struct {
	ID         *int64 `json:"id"`
	OptionText string `json:"option_text" validate:"required,max=150"`
	IsCorrect  bool   `json:"is_correct"`
}

// QuestionInput is the writable part of a question.
type QuestionInput struct {
	CategoryID    *int64               `json:"category_id"`
	Question      string               `json:"question" validate:"required,min=5,max=200"`
	QuestionType  model.QuestionType   `json:"question_type" validate:"required,oneof=multiple_choice boolean"`
	Status        model.QuestionStatus `json:"status" validate:"omitempty,oneof=active rejected draft"`
	Difficulty    model.Difficulty     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	IsPublished   bool                 `json:"is_published"`
	ReviewComment *string              `json:"review_comment" validate:"omitempty,max=1000"`
	Explanation   *string              `json:"explanation" validate:"omitempty,max=5000"`
	References    *string              `json:"references" validate:"omitempty,max=10000"`
	Choices       []ChoiceInput        `json:"choices" validate:"required,min=2,max=10,dive"`
}

// QuestionFilter narrows a question listing. Text filters match substrings.
type QuestionFilter struct {
	ListParams
	Question   string
	Category   string
	UserName   string
	Status     model.QuestionStatus
	Difficulty model.Difficulty
}

// questionRelations are eager-loaded on every read.
var questionRelations = []string{"category", "choices"}

type QuestionService struct {
	base       Base[model.Question]
	categories Base[model.Category]
	repo       *repository.QuestionRepo
	now        Clock
}

func NewQuestionService(q query.Querier, now Clock) *QuestionService {
	return &QuestionService{
		base:       NewBase(q, repository.Questions),
		categories: NewBase(q, repository.Categories),
		repo:       repository.NewQuestionRepo(q),
		now:        now,
	}
}

// Get returns a question with its category and choices, or errs.ErrNotFound.
func (s *QuestionService) Get(ctx context.Context, id int64, withTrashed bool) (*model.Question, error) {
	q, err := s.base.FindByID(ctx, id, FindOptions{WithTrashed: withTrashed, With: questionRelations})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("question %d: %w", id, errs.ErrNotFound)
	}
	return q, nil
}

// List pages through questions.
func (s *QuestionService) List(ctx context.Context, f QuestionFilter) (query.Page[*model.Question], error) {
	b := s.base.Query(f.options(questionRelations...))
	if f.Question != "" {
		b = b.WhereLike("question", f.Question)
	}
	if f.Category != "" {
		b = b.WhereRelationLike("category", "name", f.Category)
	}
	if f.UserName != "" {
		b = b.WhereRelationLike("user", "name", f.UserName)
	}
	if f.Status != "" {
		b = b.Where(query.Eq("status", string(f.Status)))
	}
	if f.Difficulty != "" {
		b = b.Where(query.Eq("difficulty", string(f.Difficulty)))
	}
	return b.Paginate(ctx, f.Page, f.PageSize)
}

// FindByText returns the question with exactly that text, trashed included.
func (s *QuestionService) FindByText(ctx context.Context, text string) (*model.Question, error) {
	return s.base.FindOne(ctx, FindOptions{WithTrashed: true}, query.Eq("question", strings.TrimSpace(text)))
}

func (s *QuestionService) check(ctx context.Context, in QuestionInput) error {
	fe := errs.FieldErrors{}
	correct := 0
	for _, c := range in.Choices {
		if c.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		fe["choices"] = "at least one choice must be correct"
	}
	if in.QuestionType == model.Boolean {
		if len(in.Choices) != 2 {
			fe["choices"] = "a boolean question has exactly two choices"
		} else if correct != 1 {
			fe["choices"] = "a boolean question has exactly one correct choice"
		}
	}
	if in.CategoryID != nil {
		c, err := s.categories.FindByID(ctx, *in.CategoryID, FindOptions{})
		if err != nil {
			return err
		}
		if c == nil {
			fe["category_id"] = "unknown category"
		}
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func (in QuestionInput) apply(q *model.Question) {
	q.CategoryID = in.CategoryID
	q.Question = strings.TrimSpace(in.Question)
	q.QuestionType = in.QuestionType
	q.Status = in.Status
	if q.Status == "" {
		q.Status = model.StatusDraft
	}
	q.Difficulty = in.Difficulty
	if q.Difficulty == "" {
		q.Difficulty = model.Easy
	}
	q.IsPublished = in.IsPublished
	q.ReviewComment = in.ReviewComment
	q.Explanation = in.Explanation
	q.References = in.References
}

// Create stores a question authored by userID together with its choices.
func (s *QuestionService) Create(ctx context.Context, userID *int64, in QuestionInput) (*model.Question, error) {
	if err := s.check(ctx, in); err != nil {
		return nil, err
	}
	now := s.now()
	q := &model.Question{UserID: userID, CreatedAt: now, UpdatedAt: now}
	in.apply(q)
	for _, c := range in.Choices {
		q.Choices = append(q.Choices, &model.Choice{
			OptionText: strings.TrimSpace(c.OptionText),
			IsCorrect:  c.IsCorrect,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return nil, conflict(err, fmt.Sprintf("question %q", q.Question))
	}
	return s.Get(ctx, q.ID, false)
}

func canEdit(actor *model.User, q *model.Question) bool {
	return actor.IsAdmin() || (q.UserID != nil && *q.UserID == actor.ID)
}

// Update rewrites a question and syncs its choices: listed ids are updated,
// entries without id are inserted and unlisted choices are deleted.
func (s *QuestionService) Update(ctx context.Context, id int64, actor *model.User, in QuestionInput) (*model.Question, error) {
	q, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, q) {
		return nil, errs.ErrForbidden
	}
	if err := s.check(ctx, in); err != nil {
		return nil, err
	}
	now := s.now()
	in.apply(q)
	q.UpdatedAt = now
	if err := s.repo.Update(ctx, q); err != nil {
		return nil, conflict(err, fmt.Sprintf("question %q", q.Question))
	}
	if err := s.syncChoices(ctx, q, in.Choices); err != nil {
		return nil, err
	}
	return s.Get(ctx, q.ID, false)
}

func (s *QuestionService) syncChoices(ctx context.Context, q *model.Question, in []ChoiceInput) error {
	now := s.now()
	existing := make(map[int64]bool, len(q.Choices))
	for _, c := range q.Choices {
		existing[c.ID] = true
	}
	kept := map[int64]bool{}
	for i, c := range in {
		choice := &model.Choice{
			QuestionID: q.ID,
			OptionText: strings.TrimSpace(c.OptionText),
			IsCorrect:  c.IsCorrect,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if c.ID == nil {
			if err := s.repo.CreateChoice(ctx, choice); err != nil {
				return err
			}
			continue
		}
		if !existing[*c.ID] {
			return errs.FieldErrors{fmt.Sprintf("choices[%d].id", i): "choice does not belong to this question"}
		}
		choice.ID = *c.ID
		kept[choice.ID] = true
		if err := s.repo.UpdateChoice(ctx, choice); err != nil {
			return err
		}
	}
	var drop []int64
	for _, c := range q.Choices {
		if !kept[c.ID] {
			drop = append(drop, c.ID)
		}
	}
	return s.repo.DeleteChoices(ctx, q.ID, drop)
}

// Delete soft-deletes a question the actor may edit.
func (s *QuestionService) Delete(ctx context.Context, id int64, actor *model.User) error {
	q, err := s.Get(ctx, id, false)
	if err != nil {
		return err
	}
	if !canEdit(actor, q) {
		return errs.ErrForbidden
	}
	return s.repo.SoftDelete(ctx, id, s.now())
}

// Stats counts questions per category by status.
func (s *QuestionService) Stats(ctx context.Context) ([]*model.CategoryStats, error) {
	return s.repo.Stats(ctx)
}
