package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
)

// Known status words returned by the Waves application.
const (
	StatusUserCancelled          uint16 = 0x9100
	StatusConditionsNotSatisfied uint16 = 0x6985
	StatusBufferOverflow         uint16 = 0x6990
	StatusIncorrectP1P2          uint16 = 0x6A86
	StatusInsNotSupported        uint16 = 0x6D00
	StatusClaNotSupported        uint16 = 0x6E00
	StatusSecurityNotSatisfied   uint16 = 0x6982
)

var statusMessages = map[uint16]string{
	StatusUserCancelled:          "user cancelled",
	StatusConditionsNotSatisfied: "device rejected the request",
	StatusBufferOverflow:         "buffer overflow",
	StatusIncorrectP1P2:          "incorrect P1 or P2",
	StatusInsNotSupported:        "instruction not supported",
	StatusClaNotSupported:        "class not supported (is the Waves app open?)",
	StatusSecurityNotSatisfied:   "security status not satisfied (is the device locked?)",
}

// StatusError is returned when the device answers with a status word other than 0x9000.
type StatusError struct {
	Code    uint16
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// CheckStatus interprets a 2-byte status word. It returns nil for StatusOK.
func CheckStatus(sw [2]byte) error {
	code := binary.BigEndian.Uint16(sw[:])
	if code == StatusOK {
		return nil
	}

	msg, ok := statusMessages[code]
	if !ok {
		msg = fmt.Sprintf("unknown status code (0x%04x)", code)
	}

	return &StatusError{Code: code, Message: msg}
}

// IsUserRejection reports whether err carries a status word meaning the user declined
// on the device.
func IsUserRejection(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Code == StatusUserCancelled || statusErr.Code == StatusConditionsNotSatisfied
}

// splitStatus separates the payload from the trailing status word and validates it.
func splitStatus(reply []byte) ([]byte, error) {
	if len(reply) < StatusLength {
		return nil, ledger.WrapMalformedReply(errors.Wrapf(ledger.ErrDecoding, "reply of %d bytes lacks a status word", len(reply)), "split status")
	}

	n := len(reply) - StatusLength
	if err := CheckStatus([2]byte(reply[n:])); err != nil {
		return nil, err
	}

	return reply[:n], nil
}
