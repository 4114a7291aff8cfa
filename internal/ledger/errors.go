// Package ledger holds the error kinds shared by the Waves Ledger client packages.
//
// Every failure produced by the codec, path, protocol and session layers wraps one of
// the sentinels below (or is a *protocol.StatusError for device rejections), so callers
// can classify failures with errors.Is without parsing messages.
package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDecoding marks malformed input or device replies: bad path strings, truncated
	// responses, empty signing buffers and empty signatures. Never retried.
	ErrDecoding = errors.New("decoding error")

	// ErrRange marks numeric arguments outside their allowed bounds. Raised before any
	// device I/O takes place.
	ErrRange = errors.New("range error")

	// ErrConnection marks failures to open, use or tear down the transport.
	ErrConnection = errors.New("connection error")

	// ErrMalformedReply marks device replies that cannot be decoded. It always travels
	// together with ErrDecoding or ErrRange.
	ErrMalformedReply = errors.New("malformed device reply")
)

// WrapConnection marks err as a connection failure while keeping it in the chain.
func WrapConnection(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrConnection, err)
}

// WrapMalformedReply marks err as caused by the device reply rather than caller input.
func WrapMalformedReply(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrMalformedReply, err)
}
