package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/handler"
	"github.com/iliyamo/checkpoint-revenue/internal/middleware"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// RegisterCompany registers token purchase and history for companies.
func RegisterCompany(e *echo.Echo, t *handler.TokenHandler, d Deps) {
	g := e.Group(
		"/v1/company",
		authenticated(d),
		middleware.RequireRole(model.RoleCompany),
	)
	g.GET("/dashboard", t.Dashboard)
	g.POST("/tokens", t.Issue)
	g.GET("/tokens", t.History)
}
