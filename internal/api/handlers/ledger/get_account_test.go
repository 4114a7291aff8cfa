package ledger_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/ledger/codec"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/test"
)

func TestGetAccount(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/7", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		var record session.UserRecord
		test.ParseResponseAndValidate(t, res, &record)
		assert.Equal(t, session.UserRecord{
			Index:      7,
			Path:       "44'/5741564'/0'/0'/7'",
			PublicKey:  codec.Base58Encode(test.PublicKeyFor(7)),
			Address:    test.AddressFor(7),
			StatusCode: "9000",
		}, record)
	})
}

func TestGetAccountInvalidIndex(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/abc", nil, nil)
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestInvalidIndex)
	})
}

func TestGetAccountOutOfRange(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/2147483648", nil, nil)
		test.RequireHTTPError(t, res, httperrors.NewHTTPError(http.StatusBadRequest, httperrors.TypeOutOfRange, ""))
	})
}

func TestGetAccountDeviceLocked(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, device *test.Device) {
		device.Refuse(0x04, protocol.StatusSecurityNotSatisfied)

		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/0", nil, nil)
		test.RequireHTTPError(t, res, httperrors.NewHTTPError(http.StatusConflict, httperrors.TypeDeviceStatus, ""))
	})
}
