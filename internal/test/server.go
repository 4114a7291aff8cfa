package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/api"
	"github/chapool/waves-ledger/internal/api/httperrors"
	"github/chapool/waves-ledger/internal/api/router"
	"github/chapool/waves-ledger/internal/config"
)

// GenericPayload is a JSON request body built inline in tests.
type GenericPayload map[string]any

// WithTestServer runs closure against a fully initialized server backed by a fresh Device.
func WithTestServer(t *testing.T, closure func(s *api.Server, device *Device)) {
	t.Helper()

	WithTestServerConfigurable(t, config.DefaultServiceConfigFromEnv(), closure)
}

// WithTestServerConfigurable is WithTestServer with a custom config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server, device *Device)) {
	t.Helper()

	device := NewDevice()
	s := NewTestServer(t, cfg, NewFakeFactory(device))
	closure(s, device)
}

// NewTestServer initializes a server opening transports through factory. The server
// is shut down when the test ends.
func NewTestServer(t *testing.T, cfg config.Server, factory *FakeFactory) *api.Server {
	t.Helper()

	cfg.Logger.PrettyPrintConsole = false
	cfg.Echo.EnableLoggerMiddleware = false

	s, err := api.InitNewServerWithFactory(cfg, factory)
	require.NoError(t, err, "failed to init server")

	require.NoError(t, router.Init(s), "failed to init router")

	t.Cleanup(func() {
		if errs := s.Shutdown(t.Context()); len(errs) > 0 {
			t.Errorf("failed to shutdown server: %v", errs)
		}
	})

	return s
}

// PerformRequest runs one request through the echo router. body is JSON encoded
// unless it already is an io.Reader.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "failed to encode request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequestWithContext(t.Context(), method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes a JSON response body into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.NewDecoder(res.Body).Decode(v), "failed to decode response body")
}

// RequireHTTPError asserts res carries the status and type of httpErr.
func RequireHTTPError(t *testing.T, res *httptest.ResponseRecorder, httpErr *httperrors.HTTPError) {
	t.Helper()

	var got httperrors.HTTPError
	ParseResponseAndValidate(t, res, &got)

	require.Equal(t, httpErr.Code, res.Result().StatusCode)
	require.Equal(t, httpErr.Code, got.Code)
	require.Equal(t, httpErr.Type, got.Type)
}
