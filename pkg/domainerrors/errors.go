// Package domainerrors defines coded errors for the admin core.
//
// Services return these so transports can translate them into HTTP
// responses without inspecting error strings. Infrastructure layers
// return sentinel errors (pkg/platform/sentinel) and services wrap
// them with a code here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthenticated covers failed credential checks.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeForbidden covers authenticated principals without admin privilege.
	CodeForbidden Code = "forbidden"
	// CodeBadRequest covers malformed mutation requests, rejected before
	// any remote call is made.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound covers lookups of records that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnavailable covers transient record/blob store failures.
	CodeUnavailable Code = "unavailable"
	// CodeInternal covers everything a caller cannot act on.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err without the cause chain, so
// transports can return it to clients safely.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to an HTTP status for the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
