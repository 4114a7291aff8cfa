package common

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness check
// Reports the session state without talking to the device, so an unplugged Ledger
// never gets the process restarted.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(StatusNotReady, "Not healthy.")
		}

		msg := fmt.Sprintf("Healthy. Ledger session %s.", s.Ledger.State())
		if err := s.Ledger.LastError(); err != nil {
			msg += fmt.Sprintf("\nLast error: %v", err)
		}

		return c.String(http.StatusOK, msg)
	}
}
