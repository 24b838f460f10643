package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

// Denylist reports access tokens revoked by logout.
type Denylist interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the Bearer access token and stores the actor, the token
// id and its expiry in the context. A token whose id is on the denylist is
// rejected. When the denylist cannot be queried the request is let through
// and a warning is logged.
func JWTAuth(secret string, deny Denylist, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			actor, claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if deny != nil && claims.ID != "" {
				revoked, err := deny.IsRevoked(c.Request().Context(), claims.ID)
				switch {
				case err != nil:
					log.Warn().Err(err).Uint64("user_id", actor.UserID).Msg("denylist lookup failed")
				case revoked:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
				}
			}

			c.Set(ActorKey, actor)
			c.Set(JTIKey, claims.ID)
			if claims.ExpiresAt != nil {
				c.Set(ExpKey, claims.ExpiresAt.Time)
			}
			return next(c)
		}
	}
}
