package hid

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
)

const (
	packetSize = 64
	channelID  = 0x0101
	tagAPDU    = 0x05
	headerSize = 5 // channel (2) | tag (1) | sequence (2)
)

var errInvalidHeader = errors.New("invalid hid reply header")

// writeFrames streams apdu to w as 64-byte HID reports. The first report carries the
// big endian APDU length ahead of the payload; unused trailing bytes are zero.
func writeFrames(w io.Writer, apdu []byte) error {
	msg := make([]byte, 2, 2+len(apdu))
	binary.BigEndian.PutUint16(msg, uint16(len(apdu)))
	msg = append(msg, apdu...)

	for seq := 0; len(msg) > 0; seq++ {
		frame := make([]byte, packetSize)
		binary.BigEndian.PutUint16(frame[0:], channelID)
		frame[2] = tagAPDU
		binary.BigEndian.PutUint16(frame[3:], uint16(seq))

		n := copy(frame[headerSize:], msg)
		msg = msg[n:]

		if _, err := w.Write(frame); err != nil {
			return errors.Wrap(err, "failed to write hid report")
		}
	}

	return nil
}

// readFrames reassembles one reply from r.
func readFrames(r io.Reader) ([]byte, error) {
	var (
		reply []byte
		want  int
		frame = make([]byte, packetSize)
	)

	for seq := 0; ; seq++ {
		if _, err := io.ReadFull(r, frame); err != nil {
			return nil, errors.Wrap(err, "failed to read hid report")
		}

		if binary.BigEndian.Uint16(frame[0:]) != channelID || frame[2] != tagAPDU {
			return nil, errors.Wrap(ledger.ErrDecoding, errInvalidHeader.Error())
		}
		if got := int(binary.BigEndian.Uint16(frame[3:])); got != seq {
			return nil, errors.Wrapf(ledger.ErrDecoding, "hid report out of sequence: got %d, expected %d", got, seq)
		}

		payload := frame[headerSize:]
		if seq == 0 {
			want = int(binary.BigEndian.Uint16(payload))
			reply = make([]byte, 0, want)
			payload = payload[2:]
		}

		left := want - len(reply)
		if left <= len(payload) {
			return append(reply, payload[:left]...), nil
		}
		reply = append(reply, payload...)
	}
}
