package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/handler"
	"github.com/iliyamo/checkpoint-revenue/internal/middleware"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// RegisterCheckpoint registers the officer endpoints. Verification is rate
// limited per officer and route.
func RegisterCheckpoint(e *echo.Echo, t *handler.TokenHandler, c *handler.CheckpointHandler, d Deps) {
	g := e.Group(
		"/v1/checkpoint",
		authenticated(d),
		middleware.RequireRole(model.RoleOfficer),
	)
	g.POST("/verify", t.Verify, middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	g.POST("/entries", c.RecordEntry)
	g.GET("/companies", c.Companies)

	g.POST("/shifts/start", c.StartShift)
	g.POST("/shifts/end", c.EndShift)
	g.GET("/shifts/current", c.CurrentShift)
}
