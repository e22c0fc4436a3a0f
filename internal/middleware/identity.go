package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/model"
)

// Context keys set by JWTAuth.
const (
	userKey    = "user"
	sessionKey = "session"
)

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// CurrentSession returns the session record behind the bearer token.
func CurrentSession(c echo.Context) *model.UserToken {
	t, _ := c.Get(sessionKey).(*model.UserToken)
	return t
}

// userID identifies the caller for cache and rate limit keys. It returns
// "guest" when no user is authenticated.
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil {
		return strconv.FormatInt(u.ID, 10)
	}
	return "guest"
}
