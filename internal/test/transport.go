package test

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger/transport"
)

// Exchange is one APDU recorded by FakeTransport.
type Exchange struct {
	CLA  byte
	INS  byte
	P1   byte
	P2   byte
	Data []byte
}

// ErrNoReply is returned by FakeTransport when nothing is scripted for an exchange.
var ErrNoReply = errors.New("fake transport: no scripted reply")

// FakeTransport records APDUs and answers them from a queue of scripted replies,
// falling back to Handler once the queue is drained.
type FakeTransport struct {
	mu sync.Mutex

	Handler func(ex Exchange) ([]byte, error)

	exchanges       []Exchange
	queue           []scripted
	closed          bool
	closeErr        error
	exchangeTimeout time.Duration
	appID           string
	operations      []string
}

type scripted struct {
	reply []byte
	err   error
}

var _ transport.Transport = (*FakeTransport)(nil)

// NewFakeTransport returns a transport with an empty script.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Reply queues a reply.
func (f *FakeTransport) Reply(reply []byte) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, scripted{reply: reply})
	return f
}

// Fail queues a transport failure.
func (f *FakeTransport) Fail(err error) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, scripted{err: err})
	return f
}

// FailClose makes Close return err.
func (f *FakeTransport) FailClose(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeErr = err
}

func (f *FakeTransport) Send(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	f.mu.Lock()
	ex := Exchange{CLA: cla, INS: ins, P1: p1, P2: p2, Data: append([]byte(nil), data...)}
	f.exchanges = append(f.exchanges, ex)

	if f.closed {
		f.mu.Unlock()
		return nil, errors.New("fake transport: closed")
	}

	if len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return next.reply, next.err
	}

	handler := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ErrNoReply
	}
	return handler(ex)
}

func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *FakeTransport) SetExchangeTimeout(timeout time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeTimeout = timeout
}

func (f *FakeTransport) BindApplication(appID string, operations ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appID = appID
	f.operations = append([]string(nil), operations...)
}

// Exchanges returns a copy of every APDU sent so far.
func (f *FakeTransport) Exchanges() []Exchange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Exchange(nil), f.exchanges...)
}

// Closed reports whether Close was called.
func (f *FakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// ExchangeTimeout returns the last timeout set.
func (f *FakeTransport) ExchangeTimeout() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeTimeout
}

// BoundApplication returns the arguments of the last BindApplication call.
func (f *FakeTransport) BoundApplication() (string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appID, f.operations
}

// OK appends the 0x9000 status word to data.
func OK(data ...byte) []byte {
	return Status(0x9000, data...)
}

// Status appends the status word sw to data.
func Status(sw uint16, data ...byte) []byte {
	out := make([]byte, len(data), len(data)+2)
	copy(out, data)
	return binary.BigEndian.AppendUint16(out, sw)
}

// Device answers APDUs like a Waves application would. Keys and addresses are derived
// from the last path component so every account index maps to distinct values.
type Device struct {
	Version   [3]byte
	Signature []byte

	mu        sync.Mutex
	statusFor map[byte]uint16
}

// NewDevice returns a device running application version 1.2.0.
func NewDevice() *Device {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	return &Device{Version: [3]byte{1, 2, 0}, Signature: sig, statusFor: map[byte]uint16{}}
}

// Refuse makes the device answer instruction ins with status word sw.
func (d *Device) Refuse(ins byte, sw uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statusFor[ins] = sw
}

// Accept undoes Refuse for instruction ins.
func (d *Device) Accept(ins byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.statusFor, ins)
}

// Handle implements FakeTransport.Handler.
func (d *Device) Handle(ex Exchange) ([]byte, error) {
	d.mu.Lock()
	sw, refused := d.statusFor[ex.INS]
	d.mu.Unlock()
	if refused {
		return Status(sw), nil
	}

	switch ex.INS {
	case 0x04:
		if len(ex.Data) < 4 || len(ex.Data)%4 != 0 {
			return Status(0x6990), nil
		}
		index := binary.BigEndian.Uint32(ex.Data[len(ex.Data)-4:]) &^ 0x80000000
		return OK(append(PublicKeyFor(index), []byte(AddressFor(index))...)...), nil
	case 0x06:
		return OK(d.Version[:]...), nil
	case 0x02:
		if ex.P1 == 0x80 {
			return OK(d.Signature...), nil
		}
		return OK(), nil
	default:
		return Status(0x6D00), nil
	}
}

// PublicKeyFor returns the 32-byte key Device reports for an account index.
func PublicKeyFor(index uint32) []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = 0xA0
	}
	binary.BigEndian.PutUint32(key[28:], index)
	return key
}

// AddressFor returns the 35 character address Device reports for an account index.
func AddressFor(index uint32) string {
	return fmt.Sprintf("3P%033d", index)
}

// FakeFactory hands out FakeTransports wired to Device.
type FakeFactory struct {
	mu sync.Mutex

	Device *Device

	created    []*FakeTransport
	failures   []error
	openArgs   [][2]time.Duration
	beforeOpen func()
}

var _ transport.Factory = (*FakeFactory)(nil)

// NewFakeFactory returns a factory whose transports are backed by device.
func NewFakeFactory(device *Device) *FakeFactory {
	return &FakeFactory{Device: device}
}

// FailNext makes the next Create calls fail with errs, in order.
func (f *FakeFactory) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, errs...)
}

// BeforeOpen registers a hook run at the start of every Create.
func (f *FakeFactory) BeforeOpen(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeOpen = hook
}

func (f *FakeFactory) Create(ctx context.Context, openTimeout time.Duration, listenTimeout time.Duration) (transport.Transport, error) {
	f.mu.Lock()
	hook := f.beforeOpen
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.openArgs = append(f.openArgs, [2]time.Duration{openTimeout, listenTimeout})

	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return nil, err
	}

	t := NewFakeTransport()
	if f.Device != nil {
		t.Handler = f.Device.Handle
	}
	f.created = append(f.created, t)
	return t, nil
}

// Created returns every transport handed out so far.
func (f *FakeFactory) Created() []*FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeTransport(nil), f.created...)
}

// Last returns the most recently created transport, or nil.
func (f *FakeFactory) Last() *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

// OpenArgs returns the timeouts passed to every Create call.
func (f *FakeFactory) OpenArgs() [][2]time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]time.Duration(nil), f.openArgs...)
}
