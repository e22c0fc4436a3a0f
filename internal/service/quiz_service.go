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

// QuizInput creates a quiz from existing questions, kept in the given order.
type QuizInput struct {
	Title       string  `json:"title" validate:"required,min=3,max=150"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	QuestionIDs []int64 `json:"question_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

// QuizFilter narrows a quiz listing.
type QuizFilter struct {
	ListParams
	Title string
}

// AnswerInput picks one choice for one question.
type AnswerInput struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	ChoiceID   *int64 `json:"choice_id"`
}

type QuizService struct {
	base      Base[model.Quiz]
	attempts  Base[model.QuizAttempt]
	questions Base[model.Question]
	repo      *repository.QuizRepo
	now       Clock
}

func NewQuizService(q query.Querier, now Clock) *QuizService {
	return &QuizService{
		base:      NewBase(q, repository.Quizzes),
		attempts:  NewBase(q, repository.QuizAttempts),
		questions: NewBase(q, repository.Questions),
		repo:      repository.NewQuizRepo(q),
		now:       now,
	}
}

// Get returns a quiz with its ordered questions and their choices.
func (s *QuizService) Get(ctx context.Context, id int64) (*model.Quiz, error) {
	quiz, err := s.base.FindByID(ctx, id, FindOptions{With: []string{"questions"}})
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %d: %w", id, errs.ErrNotFound)
	}
	return quiz, nil
}

// List pages through quizzes by title substring.
func (s *QuizService) List(ctx context.Context, f QuizFilter) (query.Page[*model.Quiz], error) {
	b := s.base.Query(f.options())
	if f.Title != "" {
		b = b.WhereLike("title", f.Title)
	}
	return b.Paginate(ctx, f.Page, f.PageSize)
}

// Create assembles a quiz owned by userID. Every question must be live.
func (s *QuizService) Create(ctx context.Context, userID int64, in QuizInput) (*model.Quiz, error) {
	seen := map[int64]bool{}
	ids := make([]int64, 0, len(in.QuestionIDs))
	for _, id := range in.QuestionIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	found, err := s.questions.FindAll(ctx, FindOptions{}, query.In("id", query.Int64s(ids)...))
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, errs.FieldErrors{"question_ids": "unknown or deleted question"}
	}

	now := s.now()
	quiz := &model.Quiz{
		UserID:         &userID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		TotalQuestions: len(ids),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i, id := range ids {
		quiz.Questions = append(quiz.Questions, &model.QuizQuestion{QuestionID: id, Position: i + 1, CreatedAt: now})
	}
	if err := s.repo.Create(ctx, quiz); err != nil {
		return nil, err
	}
	return s.Get(ctx, quiz.ID)
}

// Start opens a new attempt of a quiz for userID.
func (s *QuizService) Start(ctx context.Context, quizID, userID int64) (*model.QuizAttempt, error) {
	quiz, err := s.base.FindByID(ctx, quizID, FindOptions{})
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %d: %w", quizID, errs.ErrNotFound)
	}
	a := &model.QuizAttempt{
		QuizID:         quiz.ID,
		UserID:         userID,
		TotalQuestions: quiz.TotalQuestions,
		StartedAt:      s.now(),
	}
	if err := s.repo.CreateAttempt(ctx, a); err != nil {
		return nil, err
	}
	a.Answers = []*model.AttemptAnswer{}
	return a, nil
}

// Attempt returns an attempt with its answers. Only its owner may see it.
func (s *QuizService) Attempt(ctx context.Context, id, userID int64) (*model.QuizAttempt, error) {
	a, err := s.attempts.FindByID(ctx, id, FindOptions{With: []string{"answers"}})
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("attempt %d: %w", id, errs.ErrNotFound)
	}
	if a.UserID != userID {
		return nil, errs.ErrForbidden
	}
	return a, nil
}

// Submit grades the answers and closes the attempt. Unanswered questions
// count as wrong; score = correct*100/total.
func (s *QuizService) Submit(ctx context.Context, attemptID, userID int64, answers []AnswerInput) (*model.QuizAttempt, error) {
	a, err := s.Attempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if a.SubmittedAt != nil {
		return nil, fmt.Errorf("attempt %d already submitted: %w", attemptID, errs.ErrConflict)
	}
	quiz, err := s.Get(ctx, a.QuizID)
	if err != nil {
		return nil, err
	}

	picked := make(map[int64]*int64, len(answers))
	for _, ans := range answers {
		picked[ans.QuestionID] = ans.ChoiceID
	}

	now := s.now()
	fe := errs.FieldErrors{}
	graded := make([]*model.AttemptAnswer, 0, len(quiz.Questions))
	correct := 0
	for _, link := range quiz.Questions {
		ans := &model.AttemptAnswer{QuestionID: link.QuestionID, CreatedAt: now}
		choiceID, ok := picked[link.QuestionID]
		delete(picked, link.QuestionID)
		if ok && choiceID != nil {
			choice := findChoice(link.Question, *choiceID)
			if choice == nil {
				fe[fmt.Sprintf("answers.%d", link.QuestionID)] = "choice does not belong to the question"
				continue
			}
			ans.SelectedChoiceID = &choice.ID
			ans.IsCorrect = choice.IsCorrect
		}
		if ans.IsCorrect {
			correct++
		}
		graded = append(graded, ans)
	}
	for qid := range picked {
		fe[fmt.Sprintf("answers.%d", qid)] = "question is not part of this quiz"
	}
	if len(fe) > 0 {
		return nil, fe
	}

	a.Answers = graded
	a.CorrectAnswers = correct
	a.TotalQuestions = len(quiz.Questions)
	if a.TotalQuestions > 0 {
		a.Score = correct * 100 / a.TotalQuestions
	}
	a.SubmittedAt = &now
	if err := s.repo.SubmitAttempt(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func findChoice(q *model.Question, id int64) *model.Choice {
	if q == nil {
		return nil
	}
	for _, c := range q.Choices {
		if c.ID == id {
			return c
		}
	}
	return nil
}
