package middleware

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
)

// RequireUserType lets through only users of one of the given types. It
// must run after JWTAuth.
func RequireUserType(types ...model.UserType) echo.MiddlewareFunc {
	allowed := make(map[model.UserType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return ErrMissingToken
			}
			if !allowed[u.UserType] {
				return errs.ErrForbidden
			}
			return next(c)
		}
	}
}

// TrashedForAdmins rejects with_trashed=true unless the caller is an admin,
// so soft-deleted rows stay hidden from everyone else. It must run after
// OptionalJWTAuth and before the response cache.
func TrashedForAdmins() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			trashed, _ := strconv.ParseBool(c.QueryParam("with_trashed"))
			if trashed {
				if u := CurrentUser(c); u == nil || !u.IsAdmin() {
					return fmt.Errorf("%w: with_trashed is for admins only", errs.ErrForbidden)
				}
			}
			return next(c)
		}
	}
}
