// Package router wires handlers and middleware into the Echo instance.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
	"github.com/iliyamo/checkpoint-revenue/internal/handler"
	"github.com/iliyamo/checkpoint-revenue/internal/middleware"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// Handlers bundles every HTTP handler.
type Handlers struct {
	Auth       *handler.AuthHandler
	Cargo      *handler.CargoHandler
	Token      *handler.TokenHandler
	Checkpoint *handler.CheckpointHandler
	Report     *handler.ReportHandler
}

// Deps carries what the middleware chain needs. Redis may be nil, which
// turns rate limiting and response caching off.
type Deps struct {
	JWTSecret string
	Denylist  middleware.Denylist
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Ready     map[string]handler.Pinger
	Log       zerolog.Logger
}

// New builds the Echo instance with every route registered.
func New(h Handlers, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d)
	RegisterAuth(e, h.Auth, d)
	RegisterCargo(e, h.Cargo, d)
	RegisterAdmin(e, h, d)
	RegisterCompany(e, h.Token, d)
	RegisterCheckpoint(e, h.Token, h.Checkpoint, d)
	return e
}

// RegisterRoutes registers the unauthenticated probes and /metrics.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Readiness(d.Ready))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func authenticated(d Deps) echo.MiddlewareFunc {
	return middleware.JWTAuth(d.JWTSecret, d.Denylist, d.Log)
}

// RegisterAuth registers sign-up, login and token refresh under /v1/auth,
// and the account endpoints every role can reach.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/logout", a.Logout, authenticated(d))

	me := e.Group("/v1/me", authenticated(d), middleware.RequireRole(model.RoleAdmin, model.RoleCompany, model.RoleOfficer))
	me.GET("", a.Me)
	me.POST("/password", a.ChangePassword)
}

const cargoListRoute = "/v1/cargo-types"

// RegisterCargo registers the catalog listing, readable by every role and
// served from the response cache.
func RegisterCargo(e *echo.Echo, c *handler.CargoHandler, d Deps) {
	e.GET(cargoListRoute, c.List,
		authenticated(d),
		middleware.RequireRole(model.RoleAdmin, model.RoleCompany, model.RoleOfficer),
		middleware.NewRedisCache(d.Cache, d.Redis),
	)
}
