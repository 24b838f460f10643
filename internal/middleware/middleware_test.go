package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/checkpoint-revenue/internal/config"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

const secret = "mw-secret"

type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f fakeDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func bearer(t *testing.T, role model.Role) (string, string) {
	t.Helper()
	at, err := utils.NewAccessToken(secret, 7, role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + at.Token, at.JTI
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func protected(deny Denylist, roles ...model.Role) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		a, _ := ActorFrom(c)
		jti, exp := TokenFrom(c)
		return c.JSON(http.StatusOK, echo.Map{"id": a.UserID, "role": a.Role, "jti": jti, "has_exp": !exp.IsZero()})
	}, JWTAuth(secret, deny, zerolog.Nop()), RequireRole(roles...))
	return e
}

func TestJWTAuth(t *testing.T) {
	auth, jti := bearer(t, model.RoleOfficer)

	rec := serve(protected(nil, model.RoleOfficer), http.MethodGet, "/me", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "officer", body["role"])
	assert.Equal(t, jti, body["jti"])
	assert.Equal(t, true, body["has_exp"])

	assert.Equal(t, http.StatusUnauthorized, serve(protected(nil), http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(protected(nil), http.MethodGet, "/me", "Bearer junk").Code)
}

func TestJWTAuthDenylist(t *testing.T) {
	auth, jti := bearer(t, model.RoleAdmin)

	rec := serve(protected(fakeDenylist{revoked: map[string]bool{jti: true}}, model.RoleAdmin), http.MethodGet, "/me", auth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"token revoked"}`, rec.Body.String())

	// Denylist outages do not lock everyone out.
	rec = serve(protected(fakeDenylist{err: errors.New("redis down")}, model.RoleAdmin), http.MethodGet, "/me", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	auth, _ := bearer(t, model.RoleCompany)
	rec := serve(protected(nil, model.RoleAdmin, model.RoleOfficer), http.MethodGet, "/me", auth)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, rec.Body.String())

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	err := RequireRole(model.RoleAdmin)(func(echo.Context) error {
		t.Fatal("should not reach next handler")
		return nil
	})(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, c.Response().Status)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip_route", Prefix: "rl",
	}
	e := echo.New()
	e.POST("/v1/tokens/verify", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewTokenBucket(cfg, rdb, zerolog.Nop()))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/v1/tokens/verify", "").Code)
	rec := serve(e, http.MethodPost, "/v1/tokens/verify", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(e, http.MethodPost, "/v1/tokens/verify", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb, zerolog.Nop()))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/", "").Code)
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
	calls := 0
	e := echo.New()
	e.GET("/v1/cargo-types", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/v1/cargo-types", "")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/v1/cargo-types", "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	serve(e, http.MethodGet, "/v1/cargo-types?page=2", "")
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsRequestID(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
	e := echo.New()
	e.Use(echomw.RequestID())
	e.GET("/v1/cargo-types", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"items": []string{}})
	}, NewRedisCache(cfg, rdb))

	first := serve(e, http.MethodGet, "/v1/cargo-types", "")
	second := serve(e, http.MethodGet, "/v1/cargo-types", "")
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Len(t, second.Header().Values(echo.HeaderXRequestID), 1)
	assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), second.Header().Get(echo.HeaderXRequestID))
}

func TestEvictCacheOnWrite(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
	price := 50
	e := echo.New()
	e.GET("/v1/cargo-types", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"price": price})
	}, NewRedisCache(cfg, rdb))
	e.PATCH("/v1/admin/cargo-types/:id/price", func(c echo.Context) error {
		price = 75
		return c.NoContent(http.StatusOK)
	}, EvictCache(cfg, rdb, "/v1/cargo-types"))
	e.DELETE("/v1/admin/cargo-types/:id", func(c echo.Context) error {
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}, EvictCache(cfg, rdb, "/v1/cargo-types"))

	serve(e, http.MethodGet, "/v1/cargo-types", "")
	require.Equal(t, "HIT", serve(e, http.MethodGet, "/v1/cargo-types", "").Header().Get("X-Cache"))

	serve(e, http.MethodDelete, "/v1/admin/cargo-types/1", "")
	assert.Equal(t, "HIT", serve(e, http.MethodGet, "/v1/cargo-types", "").Header().Get("X-Cache"))

	serve(e, http.MethodPatch, "/v1/admin/cargo-types/1/price", "")
	after := serve(e, http.MethodGet, "/v1/cargo-types", "")
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
	assert.Contains(t, after.Body.String(), "75")
}

func TestPayloadRoundTrip(t *testing.T) {
	h := http.Header{"Content-Type": {"text/csv"}}
	bs, err := encodePayload(http.StatusOK, h, []byte("a,b"))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, h, got)
	assert.Equal(t, []byte("a,b"), body)

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	e := echo.New()
	e.Use(echomw.RequestID(), RequestLogger(log))
	e.GET("/boom", func(echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

	req := httptest.NewRequest(http.MethodGet, "/boom?x=1", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/boom", entry["path"])
	assert.Equal(t, "guest", entry["user"])
}
