package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/handlers/common"
	"github/chapool/waves-ledger/internal/api/handlers/ledger"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetMetricsRoute(s),
		common.GetReadyRoute(s),
		ledger.GetAccountRoute(s),
		ledger.GetAccountsRoute(s),
		ledger.GetVersionRoute(s),
		ledger.PostSignRoute(s),
	}
}
