package protocol

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/codec"
	"github/chapool/waves-ledger/internal/ledger/path"
	"github/chapool/waves-ledger/internal/util"
)

// Firmware thresholds, as DeviceVersion.Number values, at which the signing payload
// layout changed.
const (
	versionLengthPrefixed = 10100 // 1.1.0
	versionAmount2        = 10200 // 1.2.0
)

// layout builds the signing payload for one firmware tier.
type layout func(pathBytes []byte, sd SignData) ([]byte, error)

// selectLayout picks the payload layout the given firmware parses.
func selectLayout(v DeviceVersion) layout {
	switch n := v.Number(); {
	case n >= versionAmount2:
		return layoutV120
	case n >= versionLengthPrefixed:
		return layoutV110
	default:
		return layoutLegacy
	}
}

// layoutV120 is path | amount, amount2, fee precision, type, version | BE length |
// data four times.
func layoutV120(pathBytes []byte, sd SignData) ([]byte, error) {
	length, err := codec.Uint32BE(int64(len(sd.Data)))
	if err != nil {
		return nil, err
	}

	meta := []byte{
		byte(sd.AmountPrecision),
		byte(sd.Amount2Precision),
		byte(sd.FeePrecision),
		byte(sd.DataType),
		byte(sd.DataVersion),
	}
	return codec.Concat(pathBytes, meta, length, sd.Data, sd.Data, sd.Data, sd.Data), nil
}

// layoutV110 is path | amount, fee precision, type, version | BE length | data twice.
func layoutV110(pathBytes []byte, sd SignData) ([]byte, error) {
	length, err := codec.Uint32BE(int64(len(sd.Data)))
	if err != nil {
		return nil, err
	}

	meta := []byte{
		byte(sd.AmountPrecision),
		byte(sd.FeePrecision),
		byte(sd.DataType),
		byte(sd.DataVersion),
	}
	return codec.Concat(pathBytes, meta, length, sd.Data, sd.Data), nil
}

// layoutLegacy is path | amount, fee precision, type, version | data.
func layoutLegacy(pathBytes []byte, sd SignData) ([]byte, error) {
	meta := []byte{
		byte(sd.AmountPrecision),
		byte(sd.FeePrecision),
		byte(sd.DataType),
		byte(sd.DataVersion),
	}
	return codec.Concat(pathBytes, meta, sd.Data), nil
}

func validateSignData(sd SignData) error {
	fields := []struct {
		name  string
		value int
	}{
		{"amount precision", sd.AmountPrecision},
		{"amount2 precision", sd.Amount2Precision},
		{"fee precision", sd.FeePrecision},
		{"data type", sd.DataType},
		{"data version", sd.DataVersion},
	}
	for _, f := range fields {
		if f.value < 0 || f.value > maxByte {
			return errors.Wrapf(ledger.ErrRange, "%s %d out of range [0, 255]", f.name, f.value)
		}
	}

	if len(sd.Data) == 0 {
		return errors.Wrap(ledger.ErrDecoding, "signing data is empty")
	}

	return nil
}

// BuildSignableBuffer lays out sd for the firmware on the device. Arguments are
// validated before the version is queried.
func (e *Engine) BuildSignableBuffer(ctx context.Context, derivationPath string, sd SignData) ([]byte, error) {
	if err := validateSignData(sd); err != nil {
		return nil, err
	}

	pathBytes, err := path.Encode(derivationPath)
	if err != nil {
		return nil, err
	}

	version, err := e.Version(ctx)
	if err != nil {
		return nil, err
	}

	return selectLayout(version)(pathBytes, sd)
}

// SignChunked streams buf to the device and returns the base58 encoded signature.
//
// The signing protocol is defined as follows:
//
//	CLA | INS | P1                     | P2           | Data
//	----+-----+------------------------+--------------+------------------
//	 80 | 02  | 00: more chunks follow | network code | up to 123 bytes
//	          | 80: last chunk         |              |
//
// Chunks are sent strictly in order; each reply's status word is checked before the
// next chunk goes out. The reply to the last chunk is the signature plus status word.
func (e *Engine) SignChunked(ctx context.Context, buf []byte) (string, error) {
	if len(buf) == 0 {
		return "", errors.Wrap(ledger.ErrDecoding, "signing buffer is empty")
	}

	log := util.LogFromContext(ctx)

	var signature []byte
	for offset, chunkIndex := 0, 0; offset < len(buf); chunkIndex++ {
		remaining := len(buf) - offset

		p1, size := p1LastChunk, remaining
		if remaining > ChunkSize {
			p1, size = p1MoreChunks, ChunkSize
		}

		reply, err := e.exchange(ctx, opSignChunk, byte(p1), e.networkCode, buf[offset:offset+size])
		if err != nil {
			return "", err
		}

		data, err := splitStatus(reply)
		if err != nil {
			log.Debug().Err(err).Int("chunk", chunkIndex).Msg("Device refused signing chunk")
			return "", errors.Wrapf(err, "sign chunk %d", chunkIndex)
		}

		offset += size
		signature = data
	}

	if len(signature) == 0 {
		return "", ledger.WrapMalformedReply(errors.Wrap(ledger.ErrDecoding, "empty signature"), "sign")
	}

	return codec.Base58Encode(signature), nil
}

func (e *Engine) sign(ctx context.Context, derivationPath string, sd SignData) (string, error) {
	buf, err := e.BuildSignableBuffer(ctx, derivationPath, sd)
	if err != nil {
		return "", err
	}
	return e.SignChunked(ctx, buf)
}

// stamped returns SignData of a fixed-type kind with zeroed precisions and version.
func stamped(dataType int, data []byte) SignData {
	return SignData{DataType: dataType, Data: data}
}

// SignTransaction signs a serialized transaction using the metadata in sd as given.
func (e *Engine) SignTransaction(ctx context.Context, derivationPath string, sd SignData) (string, error) {
	return e.sign(ctx, derivationPath, sd)
}

// SignOrder signs a serialized exchange order.
func (e *Engine) SignOrder(ctx context.Context, derivationPath string, data []byte) (string, error) {
	return e.sign(ctx, derivationPath, stamped(TypeOrder, data))
}

// SignRawData signs arbitrary bytes.
func (e *Engine) SignRawData(ctx context.Context, derivationPath string, data []byte) (string, error) {
	return e.sign(ctx, derivationPath, stamped(TypeRawData, data))
}

// SignRequest signs an authentication request.
func (e *Engine) SignRequest(ctx context.Context, derivationPath string, data []byte) (string, error) {
	return e.sign(ctx, derivationPath, stamped(TypeRequest, data))
}

// SignMessage signs the UTF-8 bytes of message.
func (e *Engine) SignMessage(ctx context.Context, derivationPath string, message string) (string, error) {
	return e.sign(ctx, derivationPath, stamped(TypeMessage, []byte(message)))
}
