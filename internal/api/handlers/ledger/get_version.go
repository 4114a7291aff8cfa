package ledger

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
)

func GetVersionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/version", getVersionHandler(s))
}

func getVersionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		v, err := s.Ledger.Version(c.Request().Context())
		if err != nil {
			return httperrors.FromLedger(err)
		}

		return c.JSON(http.StatusOK, &GetVersionResponse{
			Version: v.String(),
			Major:   int(v.Major),
			Minor:   int(v.Minor),
			Patch:   int(v.Patch),
		})
	}
}
