package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a pipeline failure.
type ErrorType string

const (
	ErrTypeResource       ErrorType = "RESOURCE"
	ErrTypeMalformed      ErrorType = "MALFORMED"
	ErrTypeUndefined      ErrorType = "UNDEFINED"
	ErrTypeColumnMismatch ErrorType = "COLUMN_MISMATCH"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError is the error type carried across pipeline stages. Every stage
// either succeeds fully or returns one of these; there is no local recovery.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the pipeline error taxonomy

// NewResourceError signals that the input source could not be fetched or
// opened. Single attempt only; the caller never retries.
func NewResourceError(message string, cause error) *AppError {
	return NewAppError(ErrTypeResource, message, cause)
}

// NewMalformedError signals that the input's column structure does not match
// the expected schema.
func NewMalformedError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformed, message, cause)
}

// NewUndefinedError signals a division producing a non-finite statistic.
// These are surfaced, never masked as zero.
func NewUndefinedError(message string) *AppError {
	return NewAppError(ErrTypeUndefined, message, nil)
}

// NewColumnMismatchError signals a renderer label/column count mismatch.
func NewColumnMismatchError(message string) *AppError {
	return NewAppError(ErrTypeColumnMismatch, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
