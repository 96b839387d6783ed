// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	wrapped := WrapError(ErrDataUnavailable, errors.New("timeout"))
	if wrapped.Error() != "[DATA_UNAVAILABLE] data source unavailable: timeout" {
		t.Errorf("unexpected error string: %s", wrapped.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrInsufficientTrainingData, ErrInsufficientTrainingData) {
		t.Error("same error should match")
	}
	if errors.Is(ErrComputation, ErrDataUnavailable) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrDataUnavailable, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrDataUnavailable.Code {
		t.Error("code not preserved")
	}

	// Matching survives further wrapping with fmt.Errorf.
	outer := fmt.Errorf("fetch snapshot: %w", wrapped)
	if !errors.Is(outer, ErrDataUnavailable) {
		t.Error("expected wrapped error to match sentinel")
	}
}
