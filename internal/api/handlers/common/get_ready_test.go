package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/handlers/common"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/test"
)

func TestGetReadyReadiness(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		require.Equal(t, "Ready.", res.Body.String())
		require.Equal(t, "no-store", res.Header().Get("Cache-Control"))
	})
}

func TestGetReadyReadinessBroken(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		// forcefully remove an initialized component to check if ready state works
		s.Metrics = nil

		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, common.StatusNotReady, res.Result().StatusCode)
		require.Equal(t, "Not ready.", res.Body.String())
	})
}

func TestGetReadyDeviceLockedNotReady(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, device *test.Device) {
		device.Refuse(0x04, protocol.StatusSecurityNotSatisfied)

		res := test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, common.StatusNotReady, res.Result().StatusCode)
		require.Equal(t, "Not ready.", res.Body.String())

		var statusErr *protocol.StatusError
		require.ErrorAs(t, s.Ledger.LastError(), &statusErr)
	})
}
