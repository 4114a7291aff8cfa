package ledger

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/util"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
)

func GetAccountsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.GET("/accounts", getAccountsHandler(s))
}

func getAccountsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		from, err := queryInt(c, "from", 0)
		if err != nil {
			return httperrors.ErrBadRequestInvalidPaging
		}
		count, err := queryInt(c, "count", defaultPageSize)
		if err != nil || count > maxPageSize {
			return httperrors.ErrBadRequestInvalidPaging
		}

		records, err := s.Ledger.PaginateAccounts(ctx, from, count)
		if err != nil {
			log.Debug().Err(err).Int64("from", from).Int64("count", count).Msg("Failed to paginate accounts")
			return httperrors.FromLedger(err)
		}

		return c.JSON(http.StatusOK, &GetAccountsResponse{
			From:     from,
			Count:    count,
			Accounts: records,
		})
	}
}

func queryInt(c echo.Context, name string, fallback int64) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
