package session

import (
	"context"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/protocol"
)

// Kind names one of the signing operations.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindOrder       Kind = "order"
	KindRawData     Kind = "raw-data"
	KindRequest     Kind = "request"
	KindMessage     Kind = "message"
)

// Kinds lists every signing kind in a stable order.
var Kinds = []Kind{KindTransaction, KindOrder, KindRawData, KindRequest, KindMessage}

// ParseKind resolves s to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(ledger.ErrDecoding, "unknown signing kind %q", s)
}

// Sign dispatches to the signing operation named by kind. Only transactions use the
// metadata of sd; every other kind signs sd.Data, a message as text.
func (m *Manager) Sign(ctx context.Context, kind Kind, index int64, sd protocol.SignData) (string, error) {
	switch kind {
	case KindTransaction:
		return m.SignTransaction(ctx, index, sd)
	case KindOrder:
		return m.SignOrder(ctx, index, sd.Data)
	case KindRawData:
		return m.SignRawData(ctx, index, sd.Data)
	case KindRequest:
		return m.SignRequest(ctx, index, sd.Data)
	case KindMessage:
		return m.SignMessage(ctx, index, string(sd.Data))
	default:
		return "", errors.Wrapf(ledger.ErrDecoding, "unknown signing kind %q", kind)
	}
}
