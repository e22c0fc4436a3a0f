package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/service"
)

// ErrMissingToken is returned when a protected route has no bearer token.
var ErrMissingToken = fmt.Errorf("%w: missing bearer token", errs.ErrUnauthorized)

// BearerToken returns the raw token of an "Authorization: Bearer" header.
func BearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// JWTAuth authenticates the bearer access token against its stored session
// and puts the user and session into the context.
//
// auth should run on the connection pool rather than the request
// transaction: an expired JWT marks its session expired, and that write
// must survive the 401 that follows.
func JWTAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return ErrMissingToken
			}
			if err := authenticate(c, auth, raw); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWTAuth is JWTAuth for public routes: requests without a bearer
// token pass through anonymously, a bad token still fails.
func OptionalJWTAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := BearerToken(c); ok {
				if err := authenticate(c, auth, raw); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, auth *service.AuthService, raw string) error {
	u, session, err := auth.Authenticate(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	c.Set(userKey, u)
	c.Set(sessionKey, session)
	return nil
}
