package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/service"
)

type QuestionHandler struct{ *Deps }

func NewQuestionHandler(d *Deps) *QuestionHandler { return &QuestionHandler{Deps: d} }

// List filters by question, category, user_name, status and difficulty.
func (h *QuestionHandler) List(c echo.Context) error {
	lp, err := listParams(c)
	if err != nil {
		return err
	}
	f := service.QuestionFilter{
		ListParams: lp,
		Question:   c.QueryParam("question"),
		Category:   c.QueryParam("category"),
		UserName:   c.QueryParam("user_name"),
		Status:     model.QuestionStatus(c.QueryParam("status")),
		Difficulty: model.Difficulty(c.QueryParam("difficulty")),
	}
	fe := errs.FieldErrors{}
	switch f.Status {
	case "", model.StatusActive, model.StatusDraft, model.StatusRejected:
	default:
		fe["status"] = "must be one of: active, rejected, draft"
	}
	switch f.Difficulty {
	case "", model.Easy, model.Medium, model.Hard:
	default:
		fe["difficulty"] = "must be one of: easy, medium, hard"
	}
	if len(fe) > 0 {
		return fe
	}
	page, err := h.questions(c).List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *QuestionHandler) Stats(c echo.Context) error {
	stats, err := h.questions(c).Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": stats})
}

func (h *QuestionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	q, err := h.questions(c).Get(c.Request().Context(), id, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Create(c echo.Context) error {
	var req service.QuestionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	q, err := h.questions(c).Create(c.Request().Context(), &middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, q)
}

// Update is allowed to the author and to admins.
func (h *QuestionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.QuestionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	q, err := h.questions(c).Update(c.Request().Context(), id, middleware.CurrentUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.questions(c).Delete(c.Request().Context(), id, middleware.CurrentUser(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
