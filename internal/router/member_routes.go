package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quiz-api/internal/handler"
)

// RegisterMember registers the endpoints of signed-in users. Ownership of
// questions and attempts is checked by the services.
func RegisterMember(g *echo.Group, r routes, d *handler.Deps) {
	users := handler.NewUserHandler(d)
	g.GET("/me", users.Me, r.auth)
	g.PUT("/me", users.UpdateMe, r.auth, r.tx)
	g.POST("/me/password", users.ChangePassword, r.auth, r.tx)

	categories := handler.NewCategoryHandler(d)
	g.POST("/categories", categories.Create, r.auth, r.tx)
	g.PUT("/categories/:id", categories.Update, r.auth, r.tx)
	g.DELETE("/categories/:id", categories.Delete, r.auth, r.tx)

	questions := handler.NewQuestionHandler(d)
	g.POST("/questions", questions.Create, r.auth, r.tx)
	g.PUT("/questions/:id", questions.Update, r.auth, r.tx)
	g.DELETE("/questions/:id", questions.Delete, r.auth, r.tx)

	quizzes := handler.NewQuizHandler(d)
	g.POST("/quizzes", quizzes.Create, r.auth, r.tx)
	g.POST("/quizzes/:id/attempts", quizzes.Start, r.auth, r.tx)
	g.GET("/attempts/:id", quizzes.Attempt, r.auth, r.tx)
	g.POST("/attempts/:id/submit", quizzes.Submit, r.auth, r.tx)
}

// RegisterAdmin registers account administration, open to admins only.
func RegisterAdmin(g *echo.Group, r routes, users *handler.UserHandler) {
	g.PUT("/users/:id/status", users.SetStatus, r.auth, r.admin, r.tx)
}
