package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/util"
)

// requestLogger attaches a request scoped logger to the context and logs every
// finished request at level.
func requestLogger(level zerolog.Level) echo.MiddlewareFunc {
	withLogger := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			logger := log.With().
				Str("id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), logger)))
			return next(c)
		}
	}

	logRequest := middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := util.LogFromContext(c.Request().Context()).WithLevel(level)
			if v.Error != nil {
				event = event.Err(v.Error)
			}
			event.
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("http_request")
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return withLogger(logRequest(next))
	}
}
