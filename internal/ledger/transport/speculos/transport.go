// Package speculos drives the Speculos emulator over its APDU TCP socket.
//
// Every command is sent as a 4-byte big endian length followed by the APDU. The
// emulator answers with a 4-byte big endian length of the response data, the data
// itself and the 2-byte status word.
package speculos

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/transport"
)

// DefaultAddress is where Speculos listens for APDUs unless told otherwise.
const DefaultAddress = "127.0.0.1:9999"

const (
	retryInterval = 100 * time.Millisecond
	maxReplySize  = 0x10000
)

var ErrClosed = errors.New("speculos transport is closed")

// Transport is a connected emulator socket.
type Transport struct {
	mu sync.Mutex

	conn            net.Conn
	exchangeTimeout time.Duration
	closed          bool
}

var _ transport.Transport = (*Transport)(nil)

// Factory dials address on every Create.
func Factory(address string) transport.Factory {
	if address == "" {
		address = DefaultAddress
	}

	return transport.FactoryFunc(func(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (transport.Transport, error) {
		t, err := Dial(ctx, address, openTimeout, listenTimeout)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}

// Dial connects to the emulator. Refused connections are retried until listenTimeout
// elapses, each attempt bounded by openTimeout.
func Dial(ctx context.Context, address string, openTimeout time.Duration, listenTimeout time.Duration) (*Transport, error) {
	dialer := net.Dialer{Timeout: openTimeout}

	var deadline time.Time
	if listenTimeout > 0 {
		deadline = time.Now().Add(listenTimeout)
	}

	for {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			log.Debug().Str("address", address).Msg("Connected to speculos")
			return &Transport{conn: conn}, nil
		}

		if ctx.Err() != nil || listenTimeout == 0 || time.Now().After(deadline) {
			return nil, errors.Wrapf(err, "failed to connect to speculos at %s", address)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Send implements transport.Transport.
func (t *Transport) Send(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	apdu, err := transport.EncodeAPDU(cla, ins, p1, p2, data)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}

	deadline := time.Time{}
	if t.exchangeTimeout > 0 {
		deadline = time.Now().Add(t.exchangeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := t.conn.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "failed to set deadline")
	}

	// unblock the exchange when ctx is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = t.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	reply, err := t.exchange(apdu)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return reply, nil
}

func (t *Transport) exchange(apdu []byte) ([]byte, error) {
	msg := make([]byte, 4, 4+len(apdu))
	binary.BigEndian.PutUint32(msg, uint32(len(apdu)))
	msg = append(msg, apdu...)

	if _, err := t.conn.Write(msg); err != nil {
		return nil, errors.Wrap(err, "failed to write apdu")
	}

	var header [4]byte
	if _, err := io.ReadFull(t.conn, header[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read reply length")
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxReplySize {
		return nil, errors.Wrapf(ledger.ErrDecoding, "reply length %d exceeds %d", size, maxReplySize)
	}

	reply := make([]byte, int(size)+2)
	if _, err := io.ReadFull(t.conn, reply); err != nil {
		return nil, errors.Wrap(err, "failed to read reply")
	}

	return reply, nil
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

// SetExchangeTimeout implements transport.Transport.
func (t *Transport) SetExchangeTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchangeTimeout = timeout
}

// BindApplication implements transport.Transport. The emulator runs a single app, so
// the binding is only logged.
func (t *Transport) BindApplication(appID string, operations ...string) {
	log.Debug().Str("app", appID).Strs("operations", operations).Msg("Bound application to speculos transport")
}
