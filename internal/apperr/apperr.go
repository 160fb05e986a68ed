// Package apperr defines the domain error taxonomy shared by all services.
// Every failure that crosses the caller-facing surface is one of these,
// carrying a stable machine code and an HTTP-ish status for the request
// layer to map. Raw storage and transport errors never leave the process
// unwrapped.
package apperr

import (
	"errors"
	"fmt"
)

// Stable error codes.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAliasTaken     = "ALIAS_TAKEN"
	CodeStickerExists  = "STICKER_ALREADY_EXISTS"
	CodeConflict       = "CONFLICT"
	CodeStickerMissing = "STICKER_NOT_FOUND"
	CodeMessageMissing = "MESSAGE_NOT_FOUND"
	CodeFileMissing    = "STICKER_FILE_MISSING"
	CodeQRMissing      = "QR_NOT_AVAILABLE"
	CodeNotASticker    = "NOT_A_STICKER"
	CodeAmbiguous      = "STICKER_QUERY_AMBIGUOUS"
	CodeNotConnected   = "WA_NOT_CONNECTED"
	CodeSendFailed     = "WA_SEND_FAILED"
	CodeInternal       = "INTERNAL_ERROR"
)

// Error is a domain error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// Wrap attaches an underlying cause, returning the error for chaining.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// With attaches a detail key/value, returning the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation is a 400-class malformed-input failure.
func Validation(message string) *Error {
	return New(CodeValidation, message, 400)
}

// NotFound is a 404-class lookup failure with the given code.
func NotFound(code, message string) *Error {
	return New(code, message, 404)
}

// Conflict is a 409-class uniqueness failure with the given code.
func Conflict(code, message string) *Error {
	return New(code, message, 409)
}

// Internal hides an unexpected failure behind a generic error. The cause is
// preserved for logging but no detail leaks to the caller.
func Internal(cause error) *Error {
	return New(CodeInternal, "internal error", 500).Wrap(cause)
}

// CodeOf returns the domain code of err, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err is a domain error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
