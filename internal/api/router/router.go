package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/handlers"
)

// Init sets up echo, its middleware stack and every route on s.
func Init(s *api.Server) error {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = HTTPErrorHandler(s.Config.Echo.HideInternalServerErrorDetails)

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
			LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
				log.Error().Err(err).Bytes("stack", stack).Msg("Recovered from panic in handler")
				return err
			},
		}))
	} else {
		log.Warn().Msg("Disabling recover middleware due to environment config")
	}

	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(middleware.RequestID())
	} else {
		log.Warn().Msg("Disabling request ID middleware due to environment config")
	}

	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(requestLogger(s.Config.Logger.RequestLevel))
	} else {
		log.Warn().Msg("Disabling logger middleware due to environment config")
	}

	if s.Metrics != nil {
		requestMetrics, err := echoprometheus.MiddlewareConfig{
			Namespace:  "ledger",
			Subsystem:  "http",
			Registerer: s.Metrics.Registry(),
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
			DoNotUseRequestPathFor404: true,
		}.ToMiddleware()
		if err != nil {
			return errors.Wrap(err, "failed to create request metrics middleware")
		}
		s.Echo.Use(requestMetrics)
	}

	s.Router = &api.Router{
		Routes: nil, // will be populated by handlers.AttachAllRoutes(s)

		// Unsecured base group available at /**
		Root: s.Echo.Group(""),

		// Management endpoints, uncacheable, available at /-/**
		Management: s.Echo.Group("/-", noCache()),

		// Ledger operations, available at /api/v1/**
		APIV1Ledger: s.Echo.Group("/api/v1", noCache()),
	}

	handlers.AttachAllRoutes(s)

	return nil
}

func noCache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return next(c)
		}
	}
}
