package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/handlers/common"
	"github/chapool/waves-ledger/internal/test"
)

func TestGetHealthy(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, "Healthy. Ledger session disconnected.", res.Body.String())

		// healthy never opens the device
		res = test.PerformRequest(t, s, "GET", "/-/ready", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		assert.Equal(t, "Healthy. Ledger session ready.", res.Body.String())
	})
}

func TestGetHealthyBroken(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		s.Ledger = nil

		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, common.StatusNotReady, res.Result().StatusCode)
	})
}
