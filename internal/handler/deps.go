package handler

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/service"
	"github.com/iliyamo/quiz-api/internal/utils"
)

// Deps are shared by every handler. Services are built per request on the
// request transaction, so nothing here holds request state.
type Deps struct {
	DB         *sql.DB
	Tokens     utils.TokenConfig
	BcryptCost int
	Mail       service.EmailPublisher
	Now        service.Clock
	Log        *zap.Logger
}

// querier prefers the request transaction and falls back to the pool.
func (d *Deps) querier(c echo.Context) query.Querier {
	if tx := middleware.Tx(c); tx != nil {
		return tx
	}
	return d.DB
}

func (d *Deps) users(c echo.Context) *service.UserService {
	return service.NewUserService(d.querier(c), d.Tokens, d.BcryptCost, d.Mail, d.Now, d.Log)
}

func (d *Deps) auth(c echo.Context) *service.AuthService {
	return service.NewAuthService(d.querier(c), d.Tokens, d.Now)
}

func (d *Deps) categories(c echo.Context) *service.CategoryService {
	return service.NewCategoryService(d.querier(c), d.Now)
}

func (d *Deps) questions(c echo.Context) *service.QuestionService {
	return service.NewQuestionService(d.querier(c), d.Now)
}

func (d *Deps) quizzes(c echo.Context) *service.QuizService {
	return service.NewQuizService(d.querier(c), d.Now)
}
