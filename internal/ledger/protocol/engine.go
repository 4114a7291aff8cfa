// Package protocol implements the APDU contract of the Waves Ledger application on top
// of an opened transport: key derivation, version query and chunked signing.
package protocol

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/codec"
	"github/chapool/waves-ledger/internal/ledger/path"
	"github/chapool/waves-ledger/internal/ledger/transport"
	"github/chapool/waves-ledger/internal/util"
	"golang.org/x/sync/singleflight"
)

const versionKey = "version"

// Engine drives one opened transport. It is safe for concurrent use, although the
// device itself processes one exchange at a time.
type Engine struct {
	transport   transport.Transport
	networkCode byte

	mu      sync.Mutex
	version *DeviceVersion // nil until the first successful query
	group   singleflight.Group
}

// New binds an engine to t for the given network code (0-255).
func New(t transport.Transport, networkCode int) (*Engine, error) {
	if networkCode < 0 || networkCode > maxByte {
		return nil, errors.Wrapf(ledger.ErrRange, "network code %d out of range [0, 255]", networkCode)
	}

	t.BindApplication(AppID, operations...)

	return &Engine{
		transport:   t,
		networkCode: byte(networkCode),
	}, nil
}

// NetworkCode returns the chain byte the engine was bound to.
func (e *Engine) NetworkCode() int {
	return int(e.networkCode)
}

func (e *Engine) exchange(ctx context.Context, op opcode, p1 byte, p2 byte, data []byte) ([]byte, error) {
	reply, err := e.transport.Send(ctx, claWaves, byte(op), p1, p2, data)
	if err != nil {
		return nil, ledger.WrapConnection(err, "ledger exchange failed")
	}
	return reply, nil
}

// DeriveKey retrieves the public key and address at the given derivation path.
//
// The key derivation protocol is defined as follows:
//
//	CLA | INS | P1                    | P2           | Data
//	----+-----+-----------------------+--------------+--------------------
//	 80 | 04  | 80 confirm on screen  | network code | 4 bytes per path
//	          | 00 return directly    |              | component
//
// And the output data is:
//
//	Description           | Length
//	----------------------+---------
//	Public key            | 32 bytes
//	Address (base58 text) | 35 bytes
//	Status word           | 2 bytes
func (e *Engine) DeriveKey(ctx context.Context, derivationPath string, verify bool) (*PublicKeyInfo, error) {
	pathBytes, err := path.Encode(derivationPath)
	if err != nil {
		return nil, err
	}

	p1 := p1NoConfirm
	if verify {
		p1 = p1ConfirmOnScreen
	}

	reply, err := e.exchange(ctx, opDeriveKey, byte(p1), e.networkCode, pathBytes)
	if err != nil {
		return nil, err
	}

	const want = PublicKeyLength + AddressLength + StatusLength
	if len(reply) < want {
		// a refusal carries nothing but the status word
		if len(reply) == StatusLength {
			if err := CheckStatus([2]byte(reply)); err != nil {
				return nil, errors.Wrap(err, "derive key")
			}
		}
		return nil, ledger.WrapMalformedReply(errors.Wrapf(ledger.ErrDecoding, "reply is %d bytes, expected %d", len(reply), want), "derive key")
	}

	status := reply[len(reply)-StatusLength:]
	if err := CheckStatus([2]byte(status)); err != nil {
		return nil, errors.Wrap(err, "derive key")
	}

	address, err := codec.ASCII(reply[PublicKeyLength : PublicKeyLength+AddressLength])
	if err != nil {
		return nil, ledger.WrapMalformedReply(err, "failed to decode address")
	}

	return &PublicKeyInfo{
		PublicKey:  codec.Base58Encode(reply[:PublicKeyLength]),
		Address:    address,
		StatusCode: codec.Hex(status),
	}, nil
}

// Version returns the application version. The first successful reply is cached for
// the life of the engine; concurrent callers share one exchange and a failed query is
// retried by the next call.
//
//	CLA | INS | P1 | P2 | Data
//	----+-----+----+----+-----
//	 80 | 06  | 00 | 00 | none
//
// The reply carries major, minor and patch bytes followed by the status word.
func (e *Engine) Version(ctx context.Context) (DeviceVersion, error) {
	e.mu.Lock()
	if e.version != nil {
		v := *e.version
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	res, err, _ := e.group.Do(versionKey, func() (any, error) {
		v, err := e.queryVersion(ctx)

		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			e.version = nil
			return nil, err
		}
		e.version = &v
		return v, nil
	})
	if err != nil {
		return DeviceVersion{}, err
	}

	return res.(DeviceVersion), nil
}

func (e *Engine) queryVersion(ctx context.Context) (DeviceVersion, error) {
	reply, err := e.exchange(ctx, opGetVersion, opNoParameter, opNoParameter, nil)
	if err != nil {
		return DeviceVersion{}, err
	}

	data, err := splitStatus(reply)
	if err != nil {
		return DeviceVersion{}, errors.Wrap(err, "get version")
	}

	if len(data) < 3 {
		return DeviceVersion{}, ledger.WrapMalformedReply(errors.Wrapf(ledger.ErrDecoding, "reply carries %d bytes, expected 3", len(data)), "get version")
	}

	v := DeviceVersion{Major: data[0], Minor: data[1], Patch: data[2]}
	util.LogFromContext(ctx).Debug().Str("version", v.String()).Msg("Resolved Waves app version")

	return v, nil
}
