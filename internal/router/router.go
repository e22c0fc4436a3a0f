// Package router assembles the echo instance: global middleware, error
// handling and every route of the API.
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/handler"
	"github.com/iliyamo/quiz-api/internal/middleware"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/service"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

// Options carries what the router needs from the process. Redis and
// Registry are optional.
type Options struct {
	Deps      *handler.Deps
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	CORS      []string
	Registry  *prometheus.Registry
}

// routes holds the per-route middleware. auth and viewer must precede tx:
// they read the session on the pool before the request transaction takes
// a connection.
type routes struct {
	auth    echo.MiddlewareFunc
	viewer  echo.MiddlewareFunc
	trashed echo.MiddlewareFunc
	tx      echo.MiddlewareFunc
	cache   echo.MiddlewareFunc
	admin   echo.MiddlewareFunc
}

// public is the chain of the cached catalogue reads.
func (r routes) public() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{r.viewer, r.trashed, r.cache, r.tx}
}

// New builds the HTTP API.
func New(o Options) *echo.Echo {
	d := o.Deps
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.Recover())
	if o.Registry != nil {
		e.Use(middleware.NewMetrics(o.Registry).Middleware())
	}
	e.Use(middleware.RequestLogger(d.Log), echomw.BodyLimit("1M"))
	if len(o.CORS) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: o.CORS,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	auth := service.NewAuthService(d.DB, d.Tokens, d.Now)
	r := routes{
		auth:    middleware.JWTAuth(auth),
		viewer:  middleware.OptionalJWTAuth(auth),
		trashed: middleware.TrashedForAdmins(),
		tx:      middleware.Transaction(d.DB, requestTimeout),
		cache:   middleware.NewRedisCache(o.Cache, o.Redis, d.Log),
		admin:   middleware.RequireUserType(model.UserTypeAdmin),
	}

	RegisterRoutes(e, d, o.Registry)
	RegisterAuth(e.Group("/v1/auth", middleware.NewTokenBucket(o.RateLimit, o.Redis, d.Log)), r, handler.NewAuthHandler(d))
	RegisterPublic(e.Group("/v1"), r, d)
	RegisterMember(e.Group("/v1"), r, d)
	RegisterAdmin(e.Group("/v1/admin"), r, handler.NewUserHandler(d))
	return e
}

// RegisterRoutes registers the operational endpoints.
func RegisterRoutes(e *echo.Echo, d *handler.Deps, reg *prometheus.Registry) {
	e.GET("/healthz", handler.Health(d.DB))
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
}

// RegisterAuth registers the /v1/auth endpoints. Only logout needs a
// session; the rest exchange credentials or tokens for one.
func RegisterAuth(g *echo.Group, r routes, a *handler.AuthHandler) {
	g.POST("/register", a.Register, r.tx)
	g.POST("/verify-email", a.VerifyEmail, r.tx)
	g.POST("/resend-verification", a.ResendVerification, r.tx)
	g.POST("/login", a.Login, r.tx)
	g.POST("/refresh", a.Refresh, r.tx)
	g.POST("/forgot-password", a.ForgotPassword, r.tx)
	g.POST("/reset-password", a.ResetPassword, r.tx)
	g.POST("/logout", a.Logout, r.auth, r.tx)
	g.POST("/logout-all", a.LogoutAll, r.auth, r.tx)
}
