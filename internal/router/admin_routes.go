package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/middleware"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// RegisterAdmin registers the admin-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, d Deps) {
	g := e.Group(
		"/v1/admin",
		authenticated(d),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Cargo catalog ----
	// Writes evict the cached /v1/cargo-types listing.
	evict := middleware.EvictCache(d.Cache, d.Redis, cargoListRoute)
	g.POST("/cargo-types", h.Cargo.Create, evict)
	g.PUT("/cargo-types/:id", h.Cargo.Update, evict)
	g.PATCH("/cargo-types/:id/price", h.Cargo.UpdatePrice, evict)
	g.DELETE("/cargo-types/:id", h.Cargo.Delete, evict)

	// ---- Accounts ----
	g.POST("/users", h.Auth.CreateUser)

	// ---- Revenue ----
	g.GET("/dashboard", h.Report.Dashboard)
	g.GET("/reports", h.Report.Revenue)
	g.GET("/officer-performance", h.Report.OfficerPerformance)
}
