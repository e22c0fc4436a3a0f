package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/service"
)

type CategoryHandler struct{ *Deps }

func NewCategoryHandler(d *Deps) *CategoryHandler { return &CategoryHandler{Deps: d} }

// List supports ?name= plus the common paging and sorting parameters.
func (h *CategoryHandler) List(c echo.Context) error {
	lp, err := listParams(c)
	if err != nil {
		return err
	}
	page, err := h.categories(c).List(c.Request().Context(), service.CategoryFilter{
		ListParams: lp,
		Name:       c.QueryParam("name"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.categories(c).Get(c.Request().Context(), id, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.categories(c).Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.categories(c).Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.categories(c).Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
