package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/service"
)

// UserHandler serves the current user and account administration.
type UserHandler struct{ *Deps }

func NewUserHandler(d *Deps) *UserHandler { return &UserHandler{Deps: d} }

func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": middleware.CurrentUser(c)})
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req service.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users(c).UpdateProfile(c.Request().Context(), middleware.CurrentUser(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req service.ChangePasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users(c).ChangePassword(c.Request().Context(), middleware.CurrentUser(c), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

type statusReq struct {
	Status model.UserStatus `json:"status" validate:"required,oneof=active inactive blocked"`
}

// SetStatus lets an admin activate, deactivate or block an account.
func (h *UserHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users(c).SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}
