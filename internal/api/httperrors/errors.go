package httperrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Public error types returned in the "type" field of every error body.
const (
	TypeGeneric           = "generic"
	TypeBadRequest        = "BAD_REQUEST"
	TypeOutOfRange        = "OUT_OF_RANGE"
	TypeDecoding          = "DECODING"
	TypeDeviceStatus      = "DEVICE_STATUS"
	TypeUserRejected      = "USER_REJECTED"
	TypeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	TypeMalformedReply    = "MALFORMED_REPLY"
)

// HTTPError is the JSON body of every failed request.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`

	Internal error `json:"-"`
}

func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errorType,
		Title:  title,
		Detail: detail,
	}
}

// NewFromEcho converts an echo error, e.g. a 404 from the router.
func NewFromEcho(e *echo.HTTPError) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Type:     TypeGeneric,
		Title:    fmt.Sprintf("%v", e.Message),
		Internal: e.Internal,
	}
}

func (e *HTTPError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "HTTPError %d (%s): %s", e.Code, e.Type, e.Title)

	if len(e.Detail) > 0 {
		fmt.Fprintf(&b, " - %s", e.Detail)
	}
	if e.Internal != nil {
		fmt.Fprintf(&b, ", %v", e.Internal)
	}

	return b.String()
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// IsServerError reports whether the error should be logged as ours rather than the caller's.
func (e *HTTPError) IsServerError() bool {
	return e.Code >= http.StatusInternalServerError
}
