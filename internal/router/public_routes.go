package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/handler"
)

// RegisterPublic registers the read-only catalogue. Anonymous responses may
// be served from the Redis cache; with_trashed needs an admin token.
func RegisterPublic(g *echo.Group, r routes, d *handler.Deps) {
	categories := handler.NewCategoryHandler(d)
	g.GET("/categories", categories.List, r.public()...)
	g.GET("/categories/:id", categories.Get, r.public()...)

	questions := handler.NewQuestionHandler(d)
	g.GET("/questions", questions.List, r.public()...)
	g.GET("/questions/stats", questions.Stats, r.public()...)
	g.GET("/questions/:id", questions.Get, r.public()...)

	quizzes := handler.NewQuizHandler(d)
	g.GET("/quizzes", quizzes.List, r.public()...)
	g.GET("/quizzes/:id", quizzes.Get, r.public()...)
}
