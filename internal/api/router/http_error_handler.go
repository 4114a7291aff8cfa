package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/util"
)

// HTTPErrorHandler renders every error returned by a handler as an httperrors.HTTPError body.
func HTTPErrorHandler(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromContext(c.Request().Context())

		var (
			httpErr *httperrors.HTTPError
			echoErr *echo.HTTPError
		)

		switch {
		case errors.As(err, &httpErr):
		case errors.As(err, &echoErr):
			httpErr = httperrors.NewFromEcho(echoErr)
		default:
			httpErr = httperrors.NewHTTPError(http.StatusInternalServerError, httperrors.TypeGeneric, http.StatusText(http.StatusInternalServerError))
			httpErr.Internal = err
		}

		body := *httpErr
		if body.IsServerError() {
			log.Error().Err(err).Int("status", body.Code).Msg("Request failed")
			if hideInternalServerErrorDetails {
				body.Detail = ""
			}
		} else {
			log.Debug().Err(err).Int("status", body.Code).Msg("Request rejected")
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(body.Code)
		} else {
			sendErr = c.JSON(body.Code, body)
		}
		if sendErr != nil {
			log.Warn().Err(sendErr).Msg("Failed to send error response")
		}
	}
}
