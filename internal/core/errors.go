// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors. A DATA_UNAVAILABLE failure is always recoverable: callers
	// substitute a neutral default.
	ErrDataUnavailable = &Error{Code: "DATA_UNAVAILABLE", Message: "data source unavailable"}
	ErrNotFound        = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrInvalidAlert    = &Error{Code: "INVALID_ALERT", Message: "alert is invalid"}

	// Scoring errors
	ErrComputation              = &Error{Code: "COMPUTATION_FAILED", Message: "computation failed"}
	ErrInsufficientTrainingData = &Error{Code: "INSUFFICIENT_TRAINING_DATA", Message: "insufficient training data"}
	ErrPipelineFailed           = &Error{Code: "PIPELINE_FAILED", Message: "signal pipeline failed"}

	// Delivery errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
	ErrArchiveFailed  = &Error{Code: "ARCHIVE_FAILED", Message: "archive write failed"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "trade log write failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Request errors
	ErrInvalidRequest = &Error{Code: "INVALID_REQUEST", Message: "request is invalid"}
	ErrUnauthorized   = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
