package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger writes one zerolog line per request through Echo's request
// logger. Errors are handed to the central error handler first so the
// logged status is the one the client saw. 5xx log at error level, 4xx at
// warn. Pair it with echomw.RequestID to get request ids.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		HandleError:  true,
		LogRequestID: true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			var ev *zerolog.Event
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Status >= 400:
				ev = log.Warn()
			default:
				ev = log.Info()
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("path", v.RoutePath).
				Str("uri", v.URIPath).
				Int("status", v.Status).
				Str("ip", v.RemoteIP).
				Str("user", userID(c)).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
