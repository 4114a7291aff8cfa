// Package transport defines the device transport capability the protocol engine
// depends on. Concrete transports live in the hid and speculos subpackages.
package transport

import (
	"context"
	"time"
)

// Transport exchanges APDUs with one opened device.
type Transport interface {
	// Send transmits one APDU and returns the raw reply, trailing status word included.
	Send(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error)

	// Close releases the device. Callers ignore its error during teardown.
	Close() error

	// SetExchangeTimeout bounds every following Send.
	SetExchangeTimeout(timeout time.Duration)

	// BindApplication registers the operations of the on-device application appID that
	// will be driven through this transport.
	BindApplication(appID string, operations ...string)
}

// Factory opens transports.
type Factory interface {
	// Create opens a transport. openTimeout bounds the open itself, listenTimeout bounds
	// the wait for a device to show up. Zero means no limit.
	Create(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (Transport, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (Transport, error)

// Create implements Factory.
func (f FactoryFunc) Create(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (Transport, error) {
	return f(ctx, openTimeout, listenTimeout)
}
