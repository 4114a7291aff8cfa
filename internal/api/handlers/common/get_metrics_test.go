package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/test"
)

func TestGetMetrics(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Device) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/accounts/0", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		body := res.Body.String()
		assert.Contains(t, body, `ledger_operations_total{operation="derive_account",result="success"} 1`)
		assert.Contains(t, body, "ledger_connected 1")
		assert.Contains(t, body, "ledger_http_requests_total")
	})
}
