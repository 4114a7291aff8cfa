package transport

import (
	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
)

// MaxDataLength is the largest command body a short APDU can carry.
const MaxDataLength = 0xFF

// EncodeAPDU lays out a short command APDU: CLA | INS | P1 | P2 | Lc | data.
func EncodeAPDU(cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataLength {
		return nil, errors.Wrapf(ledger.ErrRange, "apdu data of %d bytes exceeds %d", len(data), MaxDataLength)
	}

	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, cla, ins, p1, p2, byte(len(data)))
	return append(apdu, data...), nil
}
