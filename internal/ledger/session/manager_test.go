package session_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/codec"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/ledger/session"
	"github/chapool/waves-ledger/internal/metrics"
	"github/chapool/waves-ledger/internal/test"
)

func newManager(t *testing.T, factory *test.FakeFactory, opts ...session.Option) *session.Manager {
	t.Helper()

	m, err := session.New(factory, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestNewValidation(t *testing.T) {
	_, err := session.New(nil)
	require.Error(t, err)

	_, err = session.New(test.NewFakeFactory(nil), session.WithNetworkCode(256))
	require.ErrorIs(t, err, ledger.ErrRange)

	m, err := session.New(test.NewFakeFactory(nil))
	require.NoError(t, err)
	assert.Equal(t, session.StateDisconnected, m.State())
}

func TestConnect(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory,
		session.WithOpenTimeout(3*time.Second),
		session.WithListenTimeout(5*time.Second),
		session.WithExchangeTimeout(7*time.Second),
		session.WithNetworkCode(87),
	)

	var during session.State
	factory.BeforeOpen(func() { during = m.State() })

	require.NoError(t, m.Connect(t.Context()))
	assert.Equal(t, session.StateConnecting, during)
	assert.Equal(t, session.StateReady, m.State())

	assert.Equal(t, [][2]time.Duration{{3 * time.Second, 5 * time.Second}}, factory.OpenArgs())

	ft := factory.Last()
	assert.Equal(t, 7*time.Second, ft.ExchangeTimeout())
	appID, _ := ft.BoundApplication()
	assert.Equal(t, "WAVES", appID)

	e, err := m.Engine(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 87, e.NetworkCode())
}

func TestConnectFailure(t *testing.T) {
	cause := errors.New("no device")
	factory := test.NewFakeFactory(test.NewDevice())
	factory.FailNext(cause)
	m := newManager(t, factory)

	err := m.Connect(t.Context())
	require.ErrorIs(t, err, ledger.ErrConnection)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, session.StateDisconnected, m.State())
}

func TestConnectReplacesSession(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)

	require.NoError(t, m.Connect(t.Context()))
	first := factory.Last()
	first.FailClose(errors.New("close failed"))

	require.NoError(t, m.Connect(t.Context()))
	assert.True(t, first.Closed())
	assert.NotSame(t, first, factory.Last())
	assert.Equal(t, session.StateReady, m.State())
}

func TestDisconnect(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)

	require.NoError(t, m.Connect(t.Context()))
	m.Disconnect()
	assert.True(t, factory.Last().Closed())
	assert.Equal(t, session.StateDisconnected, m.State())

	// the next operation connects again
	_, err := m.DeriveAccount(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, factory.Created(), 2)
}

func TestDeriveAccountConnectsLazily(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)

	record, err := m.DeriveAccount(t.Context(), 5)
	require.NoError(t, err)
	assert.Equal(t, &session.UserRecord{
		Index:      5,
		Path:       "44'/5741564'/0'/0'/5'",
		PublicKey:  codec.Base58Encode(test.PublicKeyFor(5)),
		Address:    test.AddressFor(5),
		StatusCode: "9000",
	}, record)

	_, err = m.DeriveAccount(t.Context(), 6)
	require.NoError(t, err)
	assert.Len(t, factory.Created(), 1, "a cached session is reused")
}

func TestDeriveAccountRangeErrorSkipsDevice(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)

	for _, index := range []int64{-1, 1 << 31} {
		_, err := m.DeriveAccount(t.Context(), index)
		require.ErrorIs(t, err, ledger.ErrRange)
	}

	m.Wait()
	assert.Empty(t, factory.Created())
	assert.NoError(t, m.LastError())
}

func TestFailureSchedulesReconnect(t *testing.T) {
	device := test.NewDevice()
	device.Refuse(0x04, protocol.StatusSecurityNotSatisfied)
	factory := test.NewFakeFactory(device)
	m := newManager(t, factory)

	_, err := m.DeriveAccount(t.Context(), 0)

	var statusErr *protocol.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, protocol.StatusSecurityNotSatisfied, statusErr.Code)
	assert.Equal(t, err, m.LastError())

	m.Wait()
	created := factory.Created()
	require.Len(t, created, 2)
	assert.True(t, created[0].Closed())
	assert.Equal(t, session.StateReady, m.State())

	device.Accept(0x04)
	_, err = m.DeriveAccount(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, factory.Created(), 2)
}

func TestDisconnectVoidsScheduledReconnect(t *testing.T) {
	device := test.NewDevice()
	device.Refuse(0x04, protocol.StatusSecurityNotSatisfied)
	factory := test.NewFakeFactory(device)
	m := newManager(t, factory)

	_, err := m.DeriveAccount(t.Context(), 0)
	require.Error(t, err)
	m.Disconnect()

	m.Wait()
	assert.Equal(t, session.StateDisconnected, m.State())
	for _, ft := range factory.Created() {
		assert.True(t, ft.Closed())
	}
}

func TestBackgroundReconnectFailureIsSwallowed(t *testing.T) {
	device := test.NewDevice()
	device.Refuse(0x06, protocol.StatusClaNotSupported)
	factory := test.NewFakeFactory(device)
	m := newManager(t, factory)

	require.NoError(t, m.Connect(t.Context()))
	factory.FailNext(errors.New("unplugged"))

	_, err := m.Version(t.Context())
	require.Error(t, err)

	m.Wait()
	assert.Equal(t, err, m.LastError())
	assert.Equal(t, session.StateDisconnected, m.State())

	// the following call reconnects inline
	device.Accept(0x06)
	v, err := m.Version(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", v.String())
}

func TestConnectFailureInOperationSchedulesReconnect(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	factory.FailNext(errors.New("busy"))
	m := newManager(t, factory)

	_, err := m.DeriveAccount(t.Context(), 0)
	require.ErrorIs(t, err, ledger.ErrConnection)

	m.Wait()
	assert.Equal(t, session.StateReady, m.State())
	assert.Len(t, factory.Created(), 1)
}

func TestPaginateAccounts(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)

	records, err := m.PaginateAccounts(t.Context(), 0, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(0), records[0].Index)
	assert.Equal(t, int64(1), records[1].Index)
	assert.Equal(t, test.AddressFor(1), records[1].Address)

	records, err = m.PaginateAccounts(t.Context(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPaginateAccountsRange(t *testing.T) {
	m := newManager(t, test.NewFakeFactory(test.NewDevice()))

	_, err := m.PaginateAccounts(t.Context(), -1, 1)
	require.ErrorIs(t, err, ledger.ErrRange)

	_, err = m.PaginateAccounts(t.Context(), 0, -1)
	require.ErrorIs(t, err, ledger.ErrRange)

	_, err = m.PaginateAccounts(t.Context(), 0x7FFFFFFF, 2)
	require.ErrorIs(t, err, ledger.ErrRange)

	records, err := m.PaginateAccounts(t.Context(), 0x7FFFFFFF, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestPaginateAccountsLargeCountStopsAtFirstFailure(t *testing.T) {
	device := test.NewDevice()
	device.Refuse(0x04, protocol.StatusSecurityNotSatisfied)
	m := newManager(t, test.NewFakeFactory(device))

	records, err := m.PaginateAccounts(t.Context(), 0, 1<<31)

	var statusErr *protocol.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, protocol.StatusSecurityNotSatisfied, statusErr.Code)
	assert.Nil(t, records)
}

func TestPaginateAccountsDiscardsPartialResults(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory)
	require.NoError(t, m.Connect(t.Context()))

	ft := factory.Last()
	ft.Reply(test.OK(append(test.PublicKeyFor(0), []byte(test.AddressFor(0))...)...))
	ft.Reply(test.Status(protocol.StatusUserCancelled))

	records, err := m.PaginateAccounts(t.Context(), 0, 3)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.Len(t, ft.Exchanges(), 2)
}

func TestSignVariants(t *testing.T) {
	device := test.NewDevice()
	factory := test.NewFakeFactory(device)
	m := newManager(t, factory)
	want := codec.Base58Encode(device.Signature)

	ctx := t.Context()
	sigs := map[string]func() (string, error){
		"transaction": func() (string, error) {
			return m.SignTransaction(ctx, 0, protocol.NewTransactionData([]byte{4, 2}, 4, 2))
		},
		"order":    func() (string, error) { return m.SignOrder(ctx, 0, []byte{1}) },
		"raw data": func() (string, error) { return m.SignRawData(ctx, 0, []byte{1}) },
		"request":  func() (string, error) { return m.SignRequest(ctx, 0, []byte{1}) },
		"message":  func() (string, error) { return m.SignMessage(ctx, 0, "hello") },
	}

	for name, sign := range sigs {
		sig, err := sign()
		require.NoError(t, err, name)
		assert.Equal(t, want, sig, name)
	}

	_, err := m.SignOrder(ctx, -1, []byte{1})
	require.ErrorIs(t, err, ledger.ErrRange)
}

func TestSignEmptyPayloadRecordsError(t *testing.T) {
	m := newManager(t, test.NewFakeFactory(test.NewDevice()))

	_, err := m.SignRawData(t.Context(), 0, nil)
	require.ErrorIs(t, err, ledger.ErrDecoding)
	assert.Equal(t, err, m.LastError())
}

func TestProbe(t *testing.T) {
	device := test.NewDevice()
	factory := test.NewFakeFactory(device)
	m := newManager(t, factory)

	assert.True(t, m.Probe(t.Context()))
	assert.NoError(t, m.LastError())

	device.Refuse(0x04, protocol.StatusUserCancelled)
	assert.False(t, m.Probe(t.Context()))
	require.Error(t, m.LastError())
	m.Wait()

	device.Accept(0x04)
	assert.True(t, m.Probe(t.Context()))
	assert.NoError(t, m.LastError())
}

func TestProbeConnectFailure(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	factory.FailNext(errors.New("no device"), errors.New("still no device"))
	m := newManager(t, factory)

	assert.False(t, m.Probe(t.Context()))
	require.ErrorIs(t, m.LastError(), ledger.ErrConnection)
}

func TestPathForAccount(t *testing.T) {
	m := newManager(t, test.NewFakeFactory(nil))

	p, err := m.PathForAccount(0)
	require.NoError(t, err)
	assert.Equal(t, "44'/5741564'/0'/0'/0'", p)

	_, err = m.PathForAccount(-1)
	require.ErrorIs(t, err, ledger.ErrRange)
}

func TestDebugLoggingTransport(t *testing.T) {
	factory := test.NewFakeFactory(test.NewDevice())
	m := newManager(t, factory, session.WithDebug(true))

	_, err := m.DeriveAccount(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, factory.Last().Exchanges(), 1)
}

func TestMetricsObserved(t *testing.T) {
	svc, err := metrics.New()
	require.NoError(t, err)

	device := test.NewDevice()
	m := newManager(t, test.NewFakeFactory(device), session.WithMetrics(svc))

	_, err = m.DeriveAccount(t.Context(), 0)
	require.NoError(t, err)

	device.Refuse(0x06, protocol.StatusClaNotSupported)
	_, err = m.Version(t.Context())
	require.Error(t, err)
	m.Wait()

	n, err := testutil.GatherAndCount(svc.Registry(), "ledger_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(svc.Registry(), "ledger_status_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
