// Package codec contains the byte-level helpers used to build and decode APDU payloads.
package codec

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
)

const (
	maxUint32 = 0xFFFFFFFF
	maxASCII  = 0x7F
)

// Base58Encode encodes data with the Bitcoin alphabet. Every leading zero byte becomes
// a leading '1' and an empty input encodes to the empty string.
func Base58Encode(data []byte) string {
	return base58.Encode(data)
}

// Uint32BE encodes v as 4 big-endian bytes.
func Uint32BE(v int64) ([]byte, error) {
	if v < 0 || v > maxUint32 {
		return nil, errors.Wrapf(ledger.ErrRange, "value %d out of uint32 range", v)
	}

	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return buf, nil
}

// Uint32FromBE decodes exactly 4 big-endian bytes.
func Uint32FromBE(buf []byte) (int64, error) {
	if len(buf) != 4 {
		return 0, errors.Wrapf(ledger.ErrDecoding, "expected 4 bytes, got %d", len(buf))
	}

	return int64(binary.BigEndian.Uint32(buf)), nil
}

// ASCII decodes buf as a 7-bit ASCII string.
func ASCII(buf []byte) (string, error) {
	for i, b := range buf {
		if b > maxASCII {
			return "", errors.Wrapf(ledger.ErrRange, "byte 0x%02x at offset %d is not ASCII", b, i)
		}
	}

	return string(buf), nil
}

// Hex encodes buf as lowercase hex, two digits per byte.
func Hex(buf []byte) string {
	return hex.EncodeToString(buf)
}

// Concat joins parts into a freshly allocated slice.
func Concat(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}

	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
