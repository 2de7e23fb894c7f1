// Package errors provides the coded error type shared by the capture pipeline,
// its adapters and the control API
package errors

// Import as perr (platform/errors) to avoid clashing with the stdlib package

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for callers and transports
// Values are stable for wire compatibility; append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is for a dependency that is not reachable right now
	ErrorCodeUnavailable

	// ErrorCodeConflict is for a request that collides with current state, eg a second capture session
	ErrorCodeConflict

	// ErrorCodeUnauthorized is for rejected or expired credentials
	ErrorCodeUnauthorized

	// ErrorCodeValidation is for input that failed validation
	ErrorCodeValidation

	// ErrorCodeJSON is for JSON parsing errors
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDB is for storage errors
	ErrorCodeDB

	// ErrorCodePermission is for camera or microphone access that was denied
	ErrorCodePermission

	// ErrorCodeFaceAbsent is for a pre-flight face gate that timed out
	ErrorCodeFaceAbsent

	// ErrorCodeExhausted is for a capture strategy that finished with zero usable frames
	ErrorCodeExhausted

	// ErrorCodeSubmission is for enrollment submissions rejected remotely or lost in transport
	ErrorCodeSubmission

	// ErrorCodeCancelled is for work abandoned because the user cancelled
	ErrorCodeCancelled
)

// String returns a short stable name for logs
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodePanic:
		return "panic"
	case ErrorCodeUnavailable:
		return "unavailable"
	case ErrorCodeConflict:
		return "conflict"
	case ErrorCodeUnauthorized:
		return "unauthorized"
	case ErrorCodeValidation:
		return "validation"
	case ErrorCodeJSON:
		return "json"
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodeDB:
		return "db"
	case ErrorCodePermission:
		return "permission"
	case ErrorCodeFaceAbsent:
		return "face_absent"
	case ErrorCodeExhausted:
		return "exhausted"
	case ErrorCodeSubmission:
		return "submission"
	case ErrorCodeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeConflict, ErrorCodeCancelled:
		return http.StatusConflict
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodePermission:
		return http.StatusForbidden
	case ErrorCodeFaceAbsent, ErrorCodeExhausted:
		return http.StatusUnprocessableEntity
	case ErrorCodeSubmission:
		return http.StatusBadGateway
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a machine code, a user facing message and an optional cause
// op tags the operation that produced it (eg "capture.burst")
type Error struct {
	orig error
	msg  string
	code ErrorCode
	op   string
}

// Wire is the JSON form returned by the control API
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the wrapped cause, suitable for display
func (e *Error) Message() string { return e.msg }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// ToWire converts an *Error to its Wire payload
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg} }

// WireFrom converts any error into a Wire payload
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// MessageOf returns the display message for err; foreign errors render in full
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.msg
	}
	return err.Error()
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// WithOp attaches an operation label (copy-on-write). Foreign errors are returned unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Permissionf returns a permission error
func Permissionf(format string, a ...any) error { return Newf(ErrorCodePermission, format, a...) }

// Exhaustedf returns an exhaustion error
func Exhaustedf(format string, a ...any) error { return Newf(ErrorCodeExhausted, format, a...) }

// Submissionf returns a submission error
func Submissionf(format string, a ...any) error { return Newf(ErrorCodeSubmission, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// HTTP bundles status and wire payload
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}
