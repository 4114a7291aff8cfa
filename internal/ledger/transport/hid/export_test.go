package hid

import (
	"io"
)

var (
	WriteFrames = writeFrames
	ReadFrames  = readFrames
)

func NewTransport(device io.ReadWriteCloser) *Transport {
	return newTransport(device, "test")
}
