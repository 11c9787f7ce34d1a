// Package errors provides structured error types for gemgutter.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the annotation engine and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// File-level failures of an annotation session are reported with:
//   - NO_PATH: the buffer has no backing file (unsaved buffer)
//   - NO_LOCK_FILE: the companion lock file is missing or unreadable
//
// Lifecycle codes tell a caller that its request lost a race:
//   - SUPERSEDED: a newer change or a hide arrived while the lock file was read
//   - DISPOSED: the session was disposed
//
// Malformed lines and missing lock entries are not errors. Parsing skips
// unmatched lines and the joiner renders an "(unknown)" version.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoPath, "buffer %s has no file", id)
//	if errors.Is(err, errors.ErrCodeNoPath) {
//	    // tell the user to save first
//	}
//
//	err := errors.Wrap(errors.ErrCodeNoLockFile, readErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Session errors
	ErrCodeNoPath     Code = "NO_PATH"
	ErrCodeNoLockFile Code = "NO_LOCK_FILE"
	ErrCodeSuperseded Code = "SUPERSEDED"
	ErrCodeDisposed   Code = "DISPOSED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
