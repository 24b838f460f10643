package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// Context keys set by JWTAuth.
const (
	ActorKey = "actor"
	JTIKey   = "jti"
	ExpKey   = "token_exp"
)

// ActorFrom returns the authenticated actor stored by JWTAuth.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(ActorKey).(model.Actor)
	return a, ok && a.UserID != 0
}

// TokenFrom returns the id and expiry of the presented access token.
func TokenFrom(c echo.Context) (string, time.Time) {
	jti, _ := c.Get(JTIKey).(string)
	exp, _ := c.Get(ExpKey).(time.Time)
	return jti, exp
}

// userID identifies the caller in rate-limit and cache keys: the user id
// when authenticated, "guest" otherwise.
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	return "guest"
}
