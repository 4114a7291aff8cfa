package transport_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/test"
)

func TestWithLogging(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.TraceLevel)

	ft := test.NewFakeTransport().Reply(test.OK(1, 2, 0))
	tr := transport.WithLogging(ft, logger)

	tr.BindApplication("WAVES", "Version")
	tr.SetExchangeTimeout(0)

	reply, err := tr.Send(t.Context(), 0x80, 0x06, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, test.OK(1, 2, 0), reply)

	_, err = tr.Send(t.Context(), 0x80, 0x06, 0, 0, nil)
	require.Error(t, err)

	require.NoError(t, tr.Close())
	assert.True(t, ft.Closed())

	appID, ops := ft.BoundApplication()
	assert.Equal(t, "WAVES", appID)
	assert.Equal(t, []string{"Version"}, ops)

	logged := out.String()
	assert.Contains(t, logged, "ledger_transport")
	assert.Contains(t, logged, "exchange failed")
}
