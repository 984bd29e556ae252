// Package errors provides the typed error model used across csvguard.
//
// Structural failures (I/O, configuration, result delivery) are surfaced as
// *CSVGuardError values carrying a category and a stable code, so callers can
// branch with errors.Is / errors.As instead of matching strings. Per-record
// anomalies never become errors; they are reported as validation issues.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeIO        ErrorType = "io"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeChannel   ErrorType = "channel"
	ErrorTypeCancelled ErrorType = "cancelled"
	ErrorTypeInternal  ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodePermissionDenied = "ERR_PERMISSION_DENIED"
	ErrCodeReadFailed       = "ERR_READ_FAILED"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeUnknownRule      = "ERR_UNKNOWN_RULE"
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeResultChannel    = "ERR_RESULT_CHANNEL"
	ErrCodeCancelled        = "ERR_CANCELLED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// CSVGuardError is a structured error type with context.
type CSVGuardError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
	// Path is the input or config file the error relates to, if any.
	Path string
	// Line is the 1-based record number, if any.
	Line int
}

// Error implements the error interface.
func (e *CSVGuardError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		location := e.Path
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CSVGuardError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *CSVGuardError with the same type and code.
func (e *CSVGuardError) Is(target error) bool {
	var t *CSVGuardError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CSVGuardError) WithContext(key string, value interface{}) *CSVGuardError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file the error relates to.
func (e *CSVGuardError) WithPath(path string) *CSVGuardError {
	e.Path = path

	return e
}

// WithLine records the record number the error relates to.
func (e *CSVGuardError) WithLine(line int) *CSVGuardError {
	e.Line = line

	return e
}

// Sentinels for errors.Is comparisons. Only Type and Code take part in the match.
var (
	ErrResultChannel = &CSVGuardError{Type: ErrorTypeChannel, Code: ErrCodeResultChannel, Message: "result channel closed"}
	ErrConfigInvalid = &CSVGuardError{Type: ErrorTypeConfig, Code: ErrCodeConfigInvalid, Message: "invalid configuration"}
	ErrUnknownRule   = &CSVGuardError{Type: ErrorTypeConfig, Code: ErrCodeUnknownRule, Message: "unknown rule type"}
	ErrMissingField  = &CSVGuardError{Type: ErrorTypeConfig, Code: ErrCodeMissingField, Message: "missing required field"}
	ErrFileNotFound  = &CSVGuardError{Type: ErrorTypeIO, Code: ErrCodeFileNotFound, Message: "file not found"}
	ErrReadFailed    = &CSVGuardError{Type: ErrorTypeIO, Code: ErrCodeReadFailed, Message: "read failed"}
	ErrCancelled     = &CSVGuardError{Type: ErrorTypeCancelled, Code: ErrCodeCancelled, Message: "run cancelled"}
)

// Error creation functions

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *CSVGuardError {
	return &CSVGuardError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CSVGuardError {
	return &CSVGuardError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewChannelError creates a result delivery error.
func NewChannelError(message string, cause error) *CSVGuardError {
	return &CSVGuardError{
		Type:    ErrorTypeChannel,
		Code:    ErrCodeResultChannel,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CSVGuardError {
	return &CSVGuardError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsIOError checks if an error is I/O related.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

// IsConfigError checks if an error is configuration related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsChannelError checks if an error is a result delivery failure.
func IsChannelError(err error) bool {
	return hasType(err, ErrorTypeChannel)
}

// IsCancelled checks if an error stems from context cancellation.
func IsCancelled(err error) bool {
	return hasType(err, ErrorTypeCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func hasType(err error, t ErrorType) bool {
	var te *CSVGuardError
	if errors.As(err, &te) {
		return te.Type == t
	}

	return false
}
