package httperrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github/chapool/waves-ledger/internal/ledger"
	"github/chapool/waves-ledger/internal/ledger/protocol"
)

// FromLedger maps a session error to the response a client should see.
func FromLedger(err error) *HTTPError {
	var statusErr *protocol.StatusError

	switch {
	case errors.As(err, &statusErr):
		code, errorType := http.StatusConflict, TypeDeviceStatus
		if protocol.IsUserRejection(err) {
			code, errorType = http.StatusUnprocessableEntity, TypeUserRejected
		}
		e := NewHTTPErrorWithDetail(code, errorType, statusErr.Message, fmt.Sprintf("status word 0x%04x", statusErr.Code))
		e.Internal = err
		return e
	case errors.Is(err, ledger.ErrMalformedReply):
		e := NewHTTPErrorWithDetail(http.StatusBadGateway, TypeMalformedReply, "Ledger device sent a malformed reply.", err.Error())
		e.Internal = err
		return e
	case errors.Is(err, ledger.ErrRange):
		e := NewHTTPErrorWithDetail(http.StatusBadRequest, TypeOutOfRange, "Value out of range.", err.Error())
		e.Internal = err
		return e
	case errors.Is(err, ledger.ErrDecoding):
		e := NewHTTPErrorWithDetail(http.StatusBadRequest, TypeDecoding, "Malformed input.", err.Error())
		e.Internal = err
		return e
	case errors.Is(err, ledger.ErrConnection):
		e := NewHTTPError(http.StatusServiceUnavailable, TypeDeviceUnavailable, "Ledger device is not reachable.")
		e.Internal = err
		return e
	default:
		e := NewHTTPError(http.StatusInternalServerError, TypeGeneric, http.StatusText(http.StatusInternalServerError))
		e.Internal = err
		return e
	}
}
