// Package errors provides structured error types for macroplace.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - A split between fatal errors (abort the placement run) and recoverable
//     conditions that are reported as warnings
//
// # Error Codes
//
// Fatal codes abort a placement invocation before any coordinates are
// written back:
//   - MISSING_TIMING_DATA: the connectivity graph cannot tell registers apart
//   - INFEASIBLE_AREA: inflated macro area exceeds the fence area
//
// Recoverable codes are surfaced as [Warning] values:
//   - CONFIG_ERROR: an unusable halo/channel override, defaults were used
//   - OVERHANG_CLAMP: a macro did not fit its region and was clamped
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInfeasibleArea, "macro area %.1f exceeds fence area %.1f", a, f)
//	if errors.Is(err, errors.ErrCodeInfeasibleArea) {
//	    // Report to the user, nothing was written back
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDesign, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidDesign Code = "INVALID_DESIGN"

	// Fatal placement errors
	ErrCodeMissingTimingData Code = "MISSING_TIMING_DATA"
	ErrCodeInfeasibleArea    Code = "INFEASIBLE_AREA"

	// Recoverable placement conditions
	ErrCodeConfig        Code = "CONFIG_ERROR"
	ErrCodeOverhangClamp Code = "OVERHANG_CLAMP"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
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

// IsFatal reports whether err carries a code that aborts a placement run.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingTimingData, ErrCodeInfeasibleArea:
		return true
	}
	return false
}

// Warning is a recoverable condition that was handled locally with a
// best-effort substitution. Warnings travel with placement results.
type Warning struct {
	Code    Code   `json:"code" bson:"code"`
	Subject string `json:"subject,omitempty" bson:"subject,omitempty"`
	Message string `json:"message" bson:"message"`
}

// NewWarning creates a warning for subject (usually a macro name).
func NewWarning(code Code, subject, format string, args ...any) Warning {
	return Warning{
		Code:    code,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}

// String formats the warning like an error string.
func (w Warning) String() string {
	if w.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", w.Code, w.Subject, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
