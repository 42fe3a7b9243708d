package dnx

import (
	"errors"
	"fmt"
)

// ErrorCode represents high-level session error categories.
type ErrorCode string

const (
	// ErrCodeParse marks an input file that failed to parse. Fatal at
	// session start, before any transport activity.
	ErrCodeParse ErrorCode = "parse failed"
	// ErrCodeDeviceError marks a fatal ER?? code reported by the device.
	ErrCodeDeviceError ErrorCode = "device error"
	// ErrCodeMarkerNotFound marks a Chaabi request that cannot be
	// answered because the DnX binary carries no recognizable markers.
	ErrCodeMarkerNotFound ErrorCode = "chaabi markers not found"
	// ErrCodeWaitTimeout marks expiry of the device-wait timeout.
	ErrCodeWaitTimeout ErrorCode = "device wait timeout"
	// ErrCodeTransport marks an unrecoverable transport failure.
	ErrCodeTransport ErrorCode = "transport failed"
	// ErrCodeAborted marks cooperative cancellation via the context.
	ErrCodeAborted ErrorCode = "session aborted"
)

// Error is a structured session error with operation context.
type Error struct {
	Op    string    // operation that failed (e.g. "LOAD", "WAIT_DEVICE", "DISPATCH")
	Code  ErrorCode // high-level category
	Msg   string    // human-readable detail
	Inner error     // wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		return fmt.Sprintf("dnx: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("dnx: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports comparison against another *Error by code.
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a new structured session error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error with session context.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Code == code
	}
	return false
}
