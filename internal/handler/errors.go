package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/service"
)

// status maps an error to its HTTP status and response body.
func status(err error) (int, any) {
	var fe errs.FieldErrors
	var ve validator.ValidationErrors
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, echo.Map{"errors": fieldErrors(ve)}
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity, echo.Map{"errors": fe}
	case errors.Is(err, query.ErrUnknownField), errors.Is(err, query.ErrUnknownRelation),
		errors.Is(err, query.ErrInvalidDirection), errors.Is(err, query.ErrInvalidPage),
		errors.Is(err, service.ErrNoIdentifier):
		return http.StatusBadRequest, echo.Map{"error": err.Error()}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, echo.Map{"error": err.Error()}
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, echo.Map{"error": err.Error()}
	case errors.Is(err, errs.ErrInactive), errors.Is(err, errs.ErrForbidden),
		errors.Is(err, service.ErrEmailNotVerified):
		return http.StatusForbidden, echo.Map{"error": err.Error()}
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, echo.Map{"error": err.Error()}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, echo.Map{"error": msg}
	}
	return http.StatusInternalServerError, echo.Map{"error": "internal server error"}
}

// ErrorHandler writes every error returned by a handler or middleware as
// JSON. Unexpected errors are logged and reported as 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, body := status(err)
		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
