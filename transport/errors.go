package transport

import (
	"errors"
	"fmt"
)

// ErrorCode represents high-level transport error categories.
type ErrorCode string

const (
	ErrCodeDeviceNotFound   ErrorCode = "device not found"
	ErrCodeOpenFailed       ErrorCode = "open failed"
	ErrCodeClaimFailed      ErrorCode = "claim interface failed"
	ErrCodeEndpointNotFound ErrorCode = "endpoint not found"
	ErrCodeWriteFailed      ErrorCode = "write failed"
	ErrCodeReadFailed       ErrorCode = "read failed"
	ErrCodeTimeout          ErrorCode = "timeout"
	ErrCodeDisconnected     ErrorCode = "device disconnected"
)

// Error is a structured transport error with operation context.
type Error struct {
	Op    string    // operation that failed (e.g. "OPEN", "READ", "WRITE")
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
		return fmt.Sprintf("transport: %s (op=%s)", msg, e.Op)
	}
	return fmt.Sprintf("transport: %s", msg)
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

// NewError creates a new structured transport error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error with transport context.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Code == code
	}
	return false
}
