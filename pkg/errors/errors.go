// Package errors provides structured error types for Fretline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - A clean split between fatal configuration errors (fix before retry)
//     and per-request failures
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - NETWORK_*/TIMEOUT: Transcription service failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTuning, "open pitches must increase: %v", pitches)
//	if errors.Is(err, errors.ErrCodeInvalidTuning) {
//	    // Refuse to construct the instrument
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTranscribe, origErr, "transcribe %s", jobID)
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
	ErrCodeInvalidTuning Code = "INVALID_TUNING"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidAudio  Code = "INVALID_AUDIO"
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeJobNotFound  Code = "JOB_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Transcription collaborator errors
	ErrCodeNetwork    Code = "NETWORK_ERROR"
	ErrCodeTimeout    Code = "TIMEOUT"
	ErrCodeTranscribe Code = "TRANSCRIBE_FAILED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsConfig reports whether err is a fatal configuration error: the caller
// must fix its input before retrying. Everything else is a per-request
// failure or a per-note anomaly already absorbed into conversion statistics.
func IsConfig(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidTuning, ErrCodeInvalidLayout:
		return true
	}
	return false
}
