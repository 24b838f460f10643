package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/handler"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

const secret = "router-secret"

func newTestRouter() *echo.Echo {
	h := Handlers{
		Auth:       handler.NewAuthHandler(nil),
		Cargo:      handler.NewCargoHandler(nil),
		Token:      handler.NewTokenHandler(nil),
		Checkpoint: handler.NewCheckpointHandler(nil, nil),
		Report:     handler.NewReportHandler(nil),
	}
	return New(h, Deps{JWTSecret: secret, Log: zerolog.Nop()})
}

func TestRouteTable(t *testing.T) {
	e := newTestRouter()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/login",
		"POST /v1/auth/refresh",
		"POST /v1/auth/logout",
		"GET /v1/me",
		"POST /v1/me/password",
		"GET /v1/cargo-types",
		"POST /v1/admin/cargo-types",
		"PUT /v1/admin/cargo-types/:id",
		"PATCH /v1/admin/cargo-types/:id/price",
		"DELETE /v1/admin/cargo-types/:id",
		"POST /v1/admin/users",
		"GET /v1/admin/dashboard",
		"GET /v1/admin/reports",
		"GET /v1/admin/officer-performance",
		"GET /v1/company/dashboard",
		"POST /v1/company/tokens",
		"GET /v1/company/tokens",
		"POST /v1/checkpoint/verify",
		"POST /v1/checkpoint/entries",
		"GET /v1/checkpoint/companies",
		"POST /v1/checkpoint/shifts/start",
		"POST /v1/checkpoint/shifts/end",
		"GET /v1/checkpoint/shifts/current",
	} {
		assert.True(t, have[want], want)
	}
}

func TestRoleGates(t *testing.T) {
	e := newTestRouter()
	tok, err := utils.NewAccessToken(secret, 9, model.RoleCompany, time.Minute)
	require.NoError(t, err)

	call := func(method, path, auth string) int {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+auth)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, call(http.MethodGet, "/v1/admin/dashboard", ""))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/v1/admin/dashboard", tok.Token))
	assert.Equal(t, http.StatusForbidden, call(http.MethodPost, "/v1/checkpoint/verify", tok.Token))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/metrics", ""))
}
