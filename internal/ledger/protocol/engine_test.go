package protocol_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/codec"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/test"
)

const accountPath = "44'/5741564'/0'/0'/1'"

var accountPathBytes = []byte{
	0x80, 0x00, 0x00, 0x2c,
	0x80, 0x57, 0x9b, 0xfc,
	0x80, 0x00, 0x00, 0x00,
	0x80, 0x00, 0x00, 0x00,
	0x80, 0x00, 0x00, 0x01,
}

func newEngine(t *testing.T, ft *test.FakeTransport) *protocol.Engine {
	t.Helper()

	e, err := protocol.New(ft, protocol.DefaultNetworkCode)
	require.NoError(t, err)
	return e
}

func TestNewBindsApplication(t *testing.T) {
	ft := test.NewFakeTransport()
	e := newEngine(t, ft)

	appID, ops := ft.BoundApplication()
	assert.Equal(t, "WAVES", appID)
	assert.Len(t, ops, 3)
	assert.Equal(t, 76, e.NetworkCode())
}

func TestNewNetworkCodeRange(t *testing.T) {
	for _, code := range []int{-1, 256, 1000} {
		_, err := protocol.New(test.NewFakeTransport(), code)
		require.ErrorIs(t, err, ledger.ErrRange)
	}

	for _, code := range []int{0, 87, 255} {
		_, err := protocol.New(test.NewFakeTransport(), code)
		require.NoError(t, err)
	}
}

func TestDeriveKey(t *testing.T) {
	pub := test.PublicKeyFor(1)
	addr := test.AddressFor(1)

	ft := test.NewFakeTransport().Reply(test.OK(append(pub, []byte(addr)...)...))
	e := newEngine(t, ft)

	info, err := e.DeriveKey(t.Context(), accountPath, false)
	require.NoError(t, err)
	assert.Equal(t, codec.Base58Encode(pub), info.PublicKey)
	assert.Equal(t, addr, info.Address)
	assert.Equal(t, "9000", info.StatusCode)

	exchanges := ft.Exchanges()
	require.Len(t, exchanges, 1)
	assert.Equal(t, test.Exchange{CLA: 0x80, INS: 0x04, P1: 0x00, P2: 76, Data: accountPathBytes}, exchanges[0])
}

func TestDeriveKeyVerifyOnScreen(t *testing.T) {
	ft := test.NewFakeTransport()
	ft.Handler = test.NewDevice().Handle
	e := newEngine(t, ft)

	_, err := e.DeriveKey(t.Context(), accountPath, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), ft.Exchanges()[0].P1)
}

func TestDeriveKeyShortReply(t *testing.T) {
	ft := test.NewFakeTransport().Reply(test.OK(make([]byte, 40)...))
	e := newEngine(t, ft)

	_, err := e.DeriveKey(t.Context(), accountPath, false)
	require.ErrorIs(t, err, ledger.ErrDecoding)
	require.ErrorIs(t, err, ledger.ErrMalformedReply)
	assert.Contains(t, err.Error(), "42")
	assert.Contains(t, err.Error(), "69")
}

func TestDeriveKeyStatusError(t *testing.T) {
	reply := test.Status(protocol.StatusUserCancelled, make([]byte, 67)...)
	e := newEngine(t, test.NewFakeTransport().Reply(reply))

	_, err := e.DeriveKey(t.Context(), accountPath, true)

	var statusErr *protocol.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, protocol.StatusUserCancelled, statusErr.Code)
}

func TestDeriveKeyNonASCIIAddress(t *testing.T) {
	payload := append(make([]byte, 32), bytes.Repeat([]byte{0xC3}, 35)...)
	e := newEngine(t, test.NewFakeTransport().Reply(test.OK(payload...)))

	_, err := e.DeriveKey(t.Context(), accountPath, false)
	require.ErrorIs(t, err, ledger.ErrRange)
	require.ErrorIs(t, err, ledger.ErrMalformedReply)
}

func TestDeriveKeyInvalidPathSendsNothing(t *testing.T) {
	ft := test.NewFakeTransport()
	e := newEngine(t, ft)

	_, err := e.DeriveKey(t.Context(), "44'/x", false)
	require.ErrorIs(t, err, ledger.ErrDecoding)
	assert.NotErrorIs(t, err, ledger.ErrMalformedReply)
	assert.Empty(t, ft.Exchanges())
}

func TestDeriveKeyTransportFailure(t *testing.T) {
	cause := errors.New("usb gone")
	e := newEngine(t, test.NewFakeTransport().Fail(cause))

	_, err := e.DeriveKey(t.Context(), accountPath, false)
	require.ErrorIs(t, err, ledger.ErrConnection)
	require.ErrorIs(t, err, cause)
}

func TestVersionCached(t *testing.T) {
	ft := test.NewFakeTransport().Reply(test.OK(1, 2, 3))
	e := newEngine(t, ft)

	for range 3 {
		v, err := e.Version(t.Context())
		require.NoError(t, err)
		assert.Equal(t, protocol.DeviceVersion{Major: 1, Minor: 2, Patch: 3}, v)
	}

	require.Len(t, ft.Exchanges(), 1)
	assert.Equal(t, test.Exchange{CLA: 0x80, INS: 0x06}, ft.Exchanges()[0])
}

func TestVersionRetriedAfterFailure(t *testing.T) {
	ft := test.NewFakeTransport().
		Reply(test.Status(protocol.StatusClaNotSupported)).
		Reply(test.OK(1, 1, 0))
	e := newEngine(t, ft)

	_, err := e.Version(t.Context())
	var statusErr *protocol.StatusError
	require.True(t, errors.As(err, &statusErr))

	v, err := e.Version(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.String())

	_, err = e.Version(t.Context())
	require.NoError(t, err)
	assert.Len(t, ft.Exchanges(), 2)
}

func TestVersionMalformedReply(t *testing.T) {
	e := newEngine(t, test.NewFakeTransport().Reply([]byte{0x90}).Reply(test.OK(1, 2)))

	_, err := e.Version(t.Context())
	require.ErrorIs(t, err, ledger.ErrDecoding)
	require.ErrorIs(t, err, ledger.ErrMalformedReply)

	_, err = e.Version(t.Context())
	require.ErrorIs(t, err, ledger.ErrDecoding)
	require.ErrorIs(t, err, ledger.ErrMalformedReply)
}

func TestDeviceVersionNumber(t *testing.T) {
	assert.Equal(t, 10200, protocol.DeviceVersion{Major: 1, Minor: 2}.Number())
	assert.Equal(t, 20000, protocol.DeviceVersion{Major: 2}.Number())
	assert.Equal(t, 10009, protocol.DeviceVersion{Major: 1, Patch: 9}.Number())
}

func TestDeriveKeyBareStatusWord(t *testing.T) {
	e := newEngine(t, test.NewFakeTransport().Reply(test.Status(protocol.StatusSecurityNotSatisfied)).Reply(test.OK()))

	_, err := e.DeriveKey(t.Context(), accountPath, false)
	var statusErr *protocol.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, protocol.StatusSecurityNotSatisfied, statusErr.Code)

	_, err = e.DeriveKey(t.Context(), accountPath, false)
	require.ErrorIs(t, err, ledger.ErrDecoding)
}
