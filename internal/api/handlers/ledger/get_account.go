package ledger

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/util"
)

func GetAccountRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/accounts/:index", getAccountHandler(s))
}

func getAccountHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		index, err := strconv.ParseInt(c.Param("index"), 10, 64)
		if err != nil {
			log.Debug().Err(err).Str("index", c.Param("index")).Msg("Invalid account index")
			return httperrors.ErrBadRequestInvalidIndex
		}

		record, err := s.Ledger.DeriveAccount(ctx, index)
		if err != nil {
			log.Debug().Err(err).Int64("index", index).Msg("Failed to derive account")
			return httperrors.FromLedger(err)
		}

		return c.JSON(http.StatusOK, record)
	}
}
