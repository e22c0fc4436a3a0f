package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/service"
)

type QuizHandler struct{ *Deps }

func NewQuizHandler(d *Deps) *QuizHandler { return &QuizHandler{Deps: d} }

// Quiz views never carry which choice is correct.
type (
	quizSummary struct {
		ID             int64     `json:"id"`
		Title          string    `json:"title"`
		Description    *string   `json:"description"`
		TotalQuestions int       `json:"total_questions"`
		CreatedAt      time.Time `json:"created_at"`
	}
	quizView struct {
		quizSummary
		Questions []quizQuestionView `json:"questions"`
	}
	quizQuestionView struct {
		ID           int64              `json:"id"`
		Position     int                `json:"position"`
		Question     string             `json:"question"`
		QuestionType model.QuestionType `json:"question_type"`
		Difficulty   model.Difficulty   `json:"difficulty"`
		Choices      []quizChoiceView   `json:"choices"`
	}
	quizChoiceView struct {
		ID         int64  `json:"id"`
		OptionText string `json:"option_text"`
	}
)

func summarize(q *model.Quiz) quizSummary {
	return quizSummary{
		ID:             q.ID,
		Title:          q.Title,
		Description:    q.Description,
		TotalQuestions: q.TotalQuestions,
		CreatedAt:      q.CreatedAt,
	}
}

func viewQuiz(q *model.Quiz) quizView {
	v := quizView{quizSummary: summarize(q), Questions: make([]quizQuestionView, 0, len(q.Questions))}
	for _, link := range q.Questions {
		if link.Question == nil {
			continue
		}
		qv := quizQuestionView{
			ID:           link.QuestionID,
			Position:     link.Position,
			Question:     link.Question.Question,
			QuestionType: link.Question.QuestionType,
			Difficulty:   link.Question.Difficulty,
			Choices:      make([]quizChoiceView, 0, len(link.Question.Choices)),
		}
		for _, ch := range link.Question.Choices {
			qv.Choices = append(qv.Choices, quizChoiceView{ID: ch.ID, OptionText: ch.OptionText})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

func (h *QuizHandler) List(c echo.Context) error {
	lp, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.quizzes(c).List(c.Request().Context(), service.QuizFilter{ListParams: lp, Title: c.QueryParam("title")})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, query.MapPage(page, summarize))
}

func (h *QuizHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := h.quizzes(c).Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewQuiz(q))
}

func (h *QuizHandler) Create(c echo.Context) error {
	var req service.QuizInput
	if err := bind(c, &req); err != nil {
		return err
	}
	q, err := h.quizzes(c).Create(c.Request().Context(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, viewQuiz(q))
}

// Start opens an attempt for the current user.
func (h *QuizHandler) Start(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.quizzes(c).Start(c.Request().Context(), id, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *QuizHandler) Attempt(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.quizzes(c).Attempt(c.Request().Context(), id, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

type submitReq struct {
	Answers []service.AnswerInput `json:"answers" validate:"max=100,dive"`
}

// Submit grades an open attempt of the current user.
func (h *QuizHandler) Submit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req submitReq
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.quizzes(c).Submit(c.Request().Context(), id, middleware.CurrentUser(c).ID, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
