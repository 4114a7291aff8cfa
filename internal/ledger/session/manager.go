// Package session owns the transport lifecycle of a Waves Ledger client: it opens the
// device lazily, replaces the session wholesale on reconnect and recovers in the
// background after a failed operation.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/path"
	"github/chapool/waves-ledger/internal/ledger/protocol"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/util"
)

const (
	// probeAccount is derived by Probe to check the device answers.
	probeAccount = 1

	// maxPrealloc bounds the slice capacity reserved up front by PaginateAccounts.
	maxPrealloc = 64
)

// session is one opened transport and the engine bound to it. It is never modified
// after creation.
type session struct {
	id        uuid.UUID
	transport transport.Transport
	engine    *protocol.Engine
}

// Manager exposes account and signing operations over a single device session.
type Manager struct {
	factory transport.Factory
	opts    options
	log     zerolog.Logger

	connectMu sync.Mutex // serializes connect and disconnect

	mu                sync.Mutex
	state             State
	current           *session
	lastErr           error
	disconnects       uint64 // bumped by Disconnect to void scheduled reconnects
	reconnectPending  bool
	backgroundRunning sync.WaitGroup
}

// New creates a disconnected Manager. Nothing is opened until the first operation or
// an explicit Connect.
func New(factory transport.Factory, opts ...Option) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("transport factory is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.networkCode < 0 || o.networkCode > 0xFF {
		return nil, errors.Wrapf(ledger.ErrRange, "network code %d out of range [0, 255]", o.networkCode)
	}

	return &Manager{
		factory: factory,
		opts:    o,
		log:     o.logger.With().Str("component", "ledger_session").Logger(),
		state:   StateDisconnected,
	}, nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the error recorded by the most recent failed operation, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Connect tears down the current session, if any, and opens a new one.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	m.mu.Lock()
	old := m.current
	m.current = nil
	m.state = StateConnecting
	m.mu.Unlock()

	if old != nil {
		m.teardown(old)
	}

	s, err := m.open(ctx)

	m.mu.Lock()
	if err != nil {
		m.state = StateDisconnected
	} else {
		m.current = s
		m.state = StateReady
	}
	m.mu.Unlock()

	m.opts.metrics.ObserveConnect(err)
	if err != nil {
		return err
	}

	m.log.Debug().Str("session_id", s.id.String()).Msg("Ledger session ready")
	return nil
}

func (m *Manager) open(ctx context.Context) (*session, error) {
	t, err := m.factory.Create(ctx, m.opts.openTimeout, m.opts.listenTimeout)
	if err != nil {
		return nil, ledger.WrapConnection(err, "failed to open ledger transport")
	}

	if m.opts.exchangeTimeout > 0 {
		t.SetExchangeTimeout(m.opts.exchangeTimeout)
	}

	id := uuid.New()
	if m.opts.debug {
		t = transport.WithLogging(t, m.log.With().Str("session_id", id.String()).Logger())
	}

	engine, err := protocol.New(t, m.opts.networkCode)
	if err != nil {
		_ = t.Close()
		return nil, err
	}

	return &session{id: id, transport: t, engine: engine}, nil
}

func (m *Manager) teardown(s *session) {
	if err := s.transport.Close(); err != nil {
		m.log.Debug().Err(err).Str("session_id", s.id.String()).Msg("Ignoring transport close failure")
	}
	m.opts.metrics.ObserveDisconnect()
}

// Disconnect closes the current session. Close failures are logged and dropped. A
// background reconnect scheduled before the call does not reopen the device.
func (m *Manager) Disconnect() {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	old := m.current
	m.current = nil
	m.state = StateDisconnected
	m.disconnects++
	m.mu.Unlock()

	if old != nil {
		m.teardown(old)
	}
}

// Close waits for pending background reconnects and disconnects.
func (m *Manager) Close() {
	m.Wait()
	m.Disconnect()
}

// Wait blocks until every background reconnect started so far has finished.
func (m *Manager) Wait() {
	m.backgroundRunning.Wait()
}

func (m *Manager) currentEngine() *protocol.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.engine
}

// Engine returns the protocol engine of the current session, connecting first when
// there is none. It gives advanced callers direct access to the low-level primitives.
func (m *Manager) Engine(ctx context.Context) (*protocol.Engine, error) {
	if e := m.currentEngine(); e != nil {
		return e, nil
	}

	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	// a concurrent connect may have finished while we waited
	if e := m.currentEngine(); e != nil {
		return e, nil
	}

	if err := m.connectLocked(ctx); err != nil {
		return nil, err
	}

	if e := m.currentEngine(); e != nil {
		return e, nil
	}
	return nil, ledger.WrapConnection(errors.New("session closed"), "ledger session unavailable")
}

// run executes fn against the current engine. On failure it records the error,
// schedules a background reconnect and returns the error unchanged.
func (m *Manager) run(ctx context.Context, operation string, fn func(e *protocol.Engine) error) error {
	e, err := m.Engine(ctx)
	if err == nil {
		err = fn(e)
	}

	m.opts.metrics.ObserveOperation(operation, err)

	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Str("operation", operation).Msg("Ledger operation failed")
		m.recordError(err)
		m.reconnectInBackground(ctx)
	}

	return err
}

func (m *Manager) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

// reconnectInBackground starts a detached reconnect unless one is already pending.
// Its outcome never reaches the caller.
func (m *Manager) reconnectInBackground(ctx context.Context) {
	m.mu.Lock()
	if m.reconnectPending {
		m.mu.Unlock()
		return
	}
	m.reconnectPending = true
	generation := m.disconnects
	m.backgroundRunning.Add(1)
	m.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	go func() {
		defer m.backgroundRunning.Done()
		defer func() {
			if r := recover(); r != nil {
				m.log.Error().Str("panic", fmt.Sprint(r)).Msg("Background reconnect panicked")
			}
		}()
		defer func() {
			m.mu.Lock()
			m.reconnectPending = false
			m.mu.Unlock()
		}()

		reconnected, err := m.reconnect(ctx, generation)
		if err != nil {
			m.log.Debug().Err(err).Msg("Background reconnect failed")
			return
		}
		if !reconnected {
			m.log.Debug().Msg("Skipping background reconnect, session was disconnected")
			return
		}
		m.log.Info().Msg("Ledger reconnected")
	}()
}

// reconnect replaces the session unless Disconnect ran since generation was taken.
func (m *Manager) reconnect(ctx context.Context, generation uint64) (bool, error) {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	stale := m.disconnects != generation
	m.mu.Unlock()
	if stale {
		return false, nil
	}

	if err := m.connectLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// PathForAccount returns the derivation path of the account at index.
func (m *Manager) PathForAccount(index int64) (string, error) {
	return path.ForAccount(index)
}

func (m *Manager) deriveAccount(ctx context.Context, e *protocol.Engine, index int64, accountPath string) (*UserRecord, error) {
	info, err := e.DeriveKey(ctx, accountPath, false)
	if err != nil {
		return nil, err
	}

	return &UserRecord{
		Index:      index,
		Path:       accountPath,
		PublicKey:  info.PublicKey,
		Address:    info.Address,
		StatusCode: info.StatusCode,
	}, nil
}

// DeriveAccount returns the public key and address of the account at index.
func (m *Manager) DeriveAccount(ctx context.Context, index int64) (*UserRecord, error) {
	accountPath, err := path.ForAccount(index)
	if err != nil {
		return nil, err
	}

	var record *UserRecord
	err = m.run(ctx, "derive_account", func(e *protocol.Engine) error {
		var err error
		record, err = m.deriveAccount(ctx, e, index, accountPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// PaginateAccounts derives the accounts in [from, from+count) in order. The first
// failure aborts the walk and no partial result is returned.
func (m *Manager) PaginateAccounts(ctx context.Context, from int64, count int64) ([]*UserRecord, error) {
	if err := path.ValidateIndex(from); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Wrapf(ledger.ErrRange, "count %d must not be negative", count)
	}
	if count > 0 {
		if err := path.ValidateIndex(from + count - 1); err != nil {
			return nil, err
		}
	}

	records := make([]*UserRecord, 0, min(count, maxPrealloc))
	for index := from; index < from+count; index++ {
		record, err := m.DeriveAccount(ctx, index)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// Version returns the Waves application version.
func (m *Manager) Version(ctx context.Context) (protocol.DeviceVersion, error) {
	var version protocol.DeviceVersion
	err := m.run(ctx, "version", func(e *protocol.Engine) error {
		var err error
		version, err = e.Version(ctx)
		return err
	})
	return version, err
}

func (m *Manager) sign(ctx context.Context, operation string, index int64, fn func(e *protocol.Engine, accountPath string) (string, error)) (string, error) {
	accountPath, err := path.ForAccount(index)
	if err != nil {
		return "", err
	}

	var signature string
	err = m.run(ctx, operation, func(e *protocol.Engine) error {
		var err error
		signature, err = fn(e, accountPath)
		return err
	})
	if err != nil {
		return "", err
	}

	return signature, nil
}

// SignTransaction signs a serialized transaction with the account at index.
func (m *Manager) SignTransaction(ctx context.Context, index int64, sd protocol.SignData) (string, error) {
	return m.sign(ctx, "sign_transaction", index, func(e *protocol.Engine, p string) (string, error) {
		return e.SignTransaction(ctx, p, sd)
	})
}

// SignOrder signs a serialized exchange order with the account at index.
func (m *Manager) SignOrder(ctx context.Context, index int64, data []byte) (string, error) {
	return m.sign(ctx, "sign_order", index, func(e *protocol.Engine, p string) (string, error) {
		return e.SignOrder(ctx, p, data)
	})
}

// SignRawData signs arbitrary bytes with the account at index.
func (m *Manager) SignRawData(ctx context.Context, index int64, data []byte) (string, error) {
	return m.sign(ctx, "sign_raw_data", index, func(e *protocol.Engine, p string) (string, error) {
		return e.SignRawData(ctx, p, data)
	})
}

// SignRequest signs an authentication request with the account at index.
func (m *Manager) SignRequest(ctx context.Context, index int64, data []byte) (string, error) {
	return m.sign(ctx, "sign_request", index, func(e *protocol.Engine, p string) (string, error) {
		return e.SignRequest(ctx, p, data)
	})
}

// SignMessage signs a text message with the account at index.
func (m *Manager) SignMessage(ctx context.Context, index int64, message string) (string, error) {
	return m.sign(ctx, "sign_message", index, func(e *protocol.Engine, p string) (string, error) {
		return e.SignMessage(ctx, p, message)
	})
}

// Probe reports whether the device answers a key derivation. The outcome of a failed
// probe is kept in LastError.
func (m *Manager) Probe(ctx context.Context) bool {
	m.recordError(nil)

	probePath, err := path.ForAccount(probeAccount)
	if err != nil {
		m.recordError(err)
		return false
	}

	err = m.run(ctx, "probe", func(e *protocol.Engine) error {
		_, err := e.DeriveKey(ctx, probePath, false)
		return err
	})
	return err == nil
}
