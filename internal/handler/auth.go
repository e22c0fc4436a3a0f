package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/service"
)

// AuthHandler serves registration, verification, login and sessions.
type AuthHandler struct{ *Deps }

func NewAuthHandler(d *Deps) *AuthHandler { return &AuthHandler{Deps: d} }

type verifyReq struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6,numeric"`
}

type emailReq struct {
	Email string `json:"email" validate:"required,email"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type sessionResp struct {
	service.Session
	User *model.User `json:"user,omitempty"`
}

func client(c echo.Context) service.ClientInfo {
	return service.ClientInfo{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// Register creates an account and queues its verification code.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users(c).Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    u,
		"message": "a verification code was sent to " + u.Email,
	})
}

// VerifyEmail accepts the emailed code.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.users(c).VerifyEmail(c.Request().Context(), req.Email, req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// ResendVerification always answers 202 so it never reveals whether an account exists.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users(c).ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the address is registered and unverified, a new code was sent"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, u, err := h.auth(c).Login(c.Request().Context(), req.Email, req.Password, client(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResp{Session: sess, User: u})
}

// Refresh trades a refresh token for a new pair and retires the old session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, err := h.auth(c).Refresh(c.Request().Context(), req.RefreshToken, client(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResp{Session: sess})
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users(c).ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "if the address is registered, a reset link was sent"})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req service.ResetPasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users(c).ResetPassword(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated, please log in again"})
}

// Logout revokes the session of the presented access token.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := middleware.BearerToken(c)
	if err := h.auth(c).Revoke(c.Request().Context(), raw); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session of the current user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	n, err := h.auth(c).RevokeAll(c.Request().Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": n})
}
