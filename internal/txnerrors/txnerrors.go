// Package txnerrors defines the error taxonomy surfaced by the coordinator.
package txnerrors

import "errors"

// Code classifies an error the way the host transaction runtime expects to
// see it reported: as one of a small, fixed set of conditions rather than an
// arbitrary message.
type Code string

const (
	// InvalidTransactionState covers illegal phase transitions, a
	// missing or corrupt log file, and name-length overflow.
	InvalidTransactionState Code = "InvalidTransactionState"
	// FeatureNotSupported covers nested prepare events delivered to the
	// host-lifecycle bridge.
	FeatureNotSupported Code = "FeatureNotSupported"
	// InternalError covers failures of the coordinator's own machinery,
	// such as a broken randomness source.
	InternalError Code = "InternalError"
)

// Error is a coordinator error tagged with a Code so callers can branch on
// it without parsing the message.
type Error struct {
	Code Code
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return string(e.Code) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Code) + ": " + e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target carries the same Code, so callers can write
// errors.Is(err, txnerrors.Invalid("")) style checks via the helper
// constructors below instead of comparing codes directly.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Code == e.Code
	}
	return false
}

// New builds an Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

// Wrap builds an Error with the given code and message, wrapping err.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, msg: msg, err: err}
}

// Invalid is shorthand for New(InvalidTransactionState, ...).
func Invalid(msg string) *Error { return New(InvalidTransactionState, msg) }

// Invalidf wraps err under InvalidTransactionState.
func Invalidf(msg string, err error) *Error { return Wrap(InvalidTransactionState, msg, err) }

// NotSupported is shorthand for New(FeatureNotSupported, ...).
func NotSupported(msg string) *Error { return New(FeatureNotSupported, msg) }

// Internal is shorthand for New(InternalError, ...).
func Internal(msg string) *Error { return New(InternalError, msg) }

// Internalf wraps err under InternalError.
func Internalf(msg string, err error) *Error { return Wrap(InternalError, msg, err) }
