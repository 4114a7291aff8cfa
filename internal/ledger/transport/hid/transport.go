// Package hid talks to a Ledger device over USB HID.
package hid

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/karalabe/usb"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/waves-ledger/internal/ledger/transport"
)

const (
	// VendorID is the USB vendor of every Ledger device.
	VendorID uint16 = 0x2c97

	usagePage    uint16 = 0xffa0
	pollInterval        = 100 * time.Millisecond
)

var (
	ErrUnsupported     = errors.New("usb hid is not supported on this platform")
	ErrNoDevice        = errors.New("no ledger device found")
	ErrClosed          = errors.New("hid transport is closed")
	ErrExchangeTimeout = errors.New("hid exchange timed out")
)

type exchangeResult struct {
	reply []byte
	err   error
}

// Transport is an opened Ledger HID interface.
type Transport struct {
	mu sync.Mutex

	device          io.ReadWriteCloser
	path            string
	exchangeTimeout time.Duration
	closed          bool
}

var _ transport.Transport = (*Transport)(nil)

// Factory opens the first Ledger found on the bus.
func Factory() transport.Factory {
	return transport.FactoryFunc(func(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (transport.Transport, error) {
		t, err := Open(ctx, openTimeout, listenTimeout)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}

// Open waits up to listenTimeout for a Ledger to be enumerated, then opens it within
// openTimeout.
func Open(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (*Transport, error) {
	if !usb.Supported() {
		return nil, ErrUnsupported
	}

	info, err := discover(ctx, listenTimeout)
	if err != nil {
		return nil, err
	}

	device, err := openDevice(ctx, info, openTimeout)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", info.Path).Uint16("product", info.ProductID).Msg("Opened Ledger HID device")

	return newTransport(device, info.Path), nil
}

func newTransport(device io.ReadWriteCloser, path string) *Transport {
	return &Transport{device: device, path: path}
}

func discover(ctx context.Context, listenTimeout time.Duration) (usb.DeviceInfo, error) {
	var deadline <-chan time.Time
	if listenTimeout > 0 {
		timer := time.NewTimer(listenTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		infos, err := usb.EnumerateHid(VendorID, 0)
		if err != nil {
			return usb.DeviceInfo{}, errors.Wrap(err, "failed to enumerate hid devices")
		}

		for _, info := range infos {
			// Ledger exposes the APDU channel on usage page 0xffa0, older firmware on interface 0
			if info.UsagePage == usagePage || info.Interface == 0 {
				return info, nil
			}
		}

		if listenTimeout == 0 {
			return usb.DeviceInfo{}, ErrNoDevice
		}

		select {
		case <-ctx.Done():
			return usb.DeviceInfo{}, ctx.Err()
		case <-deadline:
			return usb.DeviceInfo{}, ErrNoDevice
		case <-ticker.C:
		}
	}
}

func openDevice(ctx context.Context, info usb.DeviceInfo, openTimeout time.Duration) (usb.Device, error) {
	type result struct {
		device usb.Device
		err    error
	}

	done := make(chan result, 1)
	go func() {
		d, err := info.Open()
		done <- result{device: d, err: err}
	}()

	var deadline <-chan time.Time
	if openTimeout > 0 {
		timer := time.NewTimer(openTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	abandon := func() {
		// release a device that finishes opening after we gave up on it
		go func() {
			if r := <-done; r.err == nil {
				_ = r.device.Close()
			}
		}()
	}

	select {
	case r := <-done:
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "failed to open %s", info.Path)
		}
		return r.device, nil
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	case <-deadline:
		abandon()
		return nil, errors.Errorf("opening %s took longer than %s", info.Path, openTimeout)
	}
}

// Send implements transport.Transport. Exchanges are serialized; a timed out or
// cancelled exchange closes the device since its framing state is lost.
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

	done := make(chan exchangeResult, 1)
	go func() {
		if err := writeFrames(t.device, apdu); err != nil {
			done <- exchangeResult{err: err}
			return
		}
		reply, err := readFrames(t.device)
		done <- exchangeResult{reply: reply, err: err}
	}()

	var deadline <-chan time.Time
	if t.exchangeTimeout > 0 {
		timer := time.NewTimer(t.exchangeTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case r := <-done:
		return r.reply, r.err
	case <-ctx.Done():
		t.abort()
		return nil, ctx.Err()
	case <-deadline:
		t.abort()
		return nil, errors.Wrapf(ErrExchangeTimeout, "no reply within %s", t.exchangeTimeout)
	}
}

// abort closes the device, which fails the pending read. Caller holds mu.
func (t *Transport) abort() {
	t.closed = true
	_ = t.device.Close()
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.device.Close()
}

// SetExchangeTimeout implements transport.Transport.
func (t *Transport) SetExchangeTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exchangeTimeout = timeout
}

// BindApplication implements transport.Transport. HID carries no application routing,
// the binding is only logged.
func (t *Transport) BindApplication(appID string, operations ...string) {
	log.Debug().Str("path", t.path).Str("app", appID).Strs("operations", operations).Msg("Bound application to HID transport")
}
