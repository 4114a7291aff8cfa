package httperrors

import (
	"net/http"
)

var (
	ErrBadRequestInvalidIndex   = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Account index must be a decimal integer.")
	ErrBadRequestInvalidPaging  = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Query parameters from and count must be decimal integers, count at most 100.")
	ErrBadRequestInvalidBody    = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Request body is not valid JSON.")
	ErrBadRequestInvalidPayload = NewHTTPError(http.StatusBadRequest, TypeBadRequest, "Field data must be base64 encoded.")
	ErrNotFoundSignKind         = NewHTTPError(http.StatusNotFound, TypeGeneric, "Unknown signing kind.")
)
