package rest

import (
	"errors"
	"fmt"
)

// Backend error codes carried in {"code": N, "error": "..."} bodies.
const (
	CodeOtherCause          = -1
	CodeInternalServerError = 1
	CodeConnectionFailed    = 100
	CodeObjectNotFound      = 101
	CodeInvalidJSON         = 107
	CodeUsernameMissing     = 200
	CodePasswordMissing     = 201
	CodeUsernameTaken       = 202
	CodeEmailTaken          = 203
	CodeEmailMissing        = 204
	CodeEmailNotFound       = 205
	CodeSessionMissing      = 206
	CodeInvalidSessionToken = 209
)

// ErrInvalidOptions is returned by [NewExecutor] for unusable options.
var ErrInvalidOptions = errors.New("invalid executor options")

// Error is a failed call. StatusCode is [StatusCodeUnset] when no response
// was received.
type Error struct {
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.StatusCode == StatusCodeUnset {
		return fmt.Sprintf("parse error %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("parse error %d (http %d): %s", e.Code, e.StatusCode, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request may succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode >= 500 || e.Code == CodeConnectionFailed
}

// CodeOf extracts the backend error code from err, or [CodeOtherCause].
func CodeOf(err error) int {
	var restErr *Error
	if errors.As(err, &restErr) {
		return restErr.Code
	}
	return CodeOtherCause
}
