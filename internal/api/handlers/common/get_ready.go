package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/util"
)

// StatusNotReady is returned by the readiness probe, matching the Cloudflare "origin
// is unreachable" code.
const StatusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// Readiness check
// The device must answer a key derivation.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if !s.Ready() {
			log.Warn().Msg("Readiness check failed, server is not fully initialized")
			return c.String(StatusNotReady, "Not ready.")
		}

		if !s.Ledger.Probe(ctx) {
			log.Warn().Err(s.Ledger.LastError()).Msg("Readiness check failed, ledger did not answer")
			return c.String(StatusNotReady, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
