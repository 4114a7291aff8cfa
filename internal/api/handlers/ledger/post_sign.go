package ledger

import (
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/util"
)

func PostSignRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Ledger.POST("/sign/:kind", postSignHandler(s))
}

func postSignHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		kind, err := session.ParseKind(c.Param("kind"))
		if err != nil {
			return httperrors.ErrNotFoundSignKind
		}

		var body PostSignPayload
		if err := c.Bind(&body); err != nil {
			log.Debug().Err(err).Msg("Failed to bind sign payload")
			return httperrors.ErrBadRequestInvalidBody
		}

		sd, err := body.signData(kind)
		if err != nil {
			return httperrors.ErrBadRequestInvalidPayload
		}

		accountPath, err := s.Ledger.PathForAccount(body.Index)
		if err != nil {
			return httperrors.FromLedger(err)
		}

		signature, err := s.Ledger.Sign(ctx, kind, body.Index, sd)
		if err != nil {
			log.Debug().Err(err).Str("kind", string(kind)).Int64("index", body.Index).Msg("Failed to sign")
			return httperrors.FromLedger(err)
		}

		return c.JSON(http.StatusOK, &PostSignResponse{
			Kind:      string(kind),
			Index:     body.Index,
			Path:      accountPath,
			Signature: signature,
		})
	}
}

// signData decodes the payload. Messages may be sent as plain text instead of base64.
func (p *PostSignPayload) signData(kind session.Kind) (protocol.SignData, error) {
	var data []byte
	if kind == session.KindMessage && p.Data == "" {
		data = []byte(p.Message)
	} else {
		var err error
		data, err = base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return protocol.SignData{}, err
		}
	}

	sd := protocol.NewTransactionData(data, p.DataType, p.DataVersion)
	if p.AmountPrecision != nil {
		sd.AmountPrecision = *p.AmountPrecision
	}
	if p.Amount2Precision != nil {
		sd.Amount2Precision = *p.Amount2Precision
	}
	if p.FeePrecision != nil {
		sd.FeePrecision = *p.FeePrecision
	}

	return sd, nil
}
