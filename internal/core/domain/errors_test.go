// Package domain defines the core domain models for vectordb-go.
package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("VDB-TEST-1000", "test message"),
			expected: "[VDB-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("VDB-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[VDB-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("VDB-TEST-1000", "message 1")
	err2 := NewDomainError("VDB-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("VDB-TEST-1001", "message 1") // Different code

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("VDB-TEST-1000", "wrapper").WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	errNoCause := NewDomainError("VDB-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("VDB-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("VDB-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}
	if withCause.Code != original.Code {
		t.Errorf("Code = %q, want %q", withCause.Code, original.Code)
	}
}

func TestDomainError_Wrap(t *testing.T) {
	original := NewDomainError("VDB-TEST-1000", "original")
	cause := fmt.Errorf("cause")
	wrapped := original.Wrap(cause)

	if wrapped.Cause != cause {
		t.Errorf("Wrap() should set cause, got %v", wrapped.Cause)
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrNotFound

	if !IsDomainError(err, ErrNotFound.Code) {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(err, "VDB-NOTFOUND-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if IsDomainError(fmt.Errorf("regular error"), ErrNotFound.Code) {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	wrapped := fmt.Errorf("wrapped: %w", ErrNotFound)
	if !IsDomainError(wrapped, ErrNotFound.Code) {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrNotFound, ErrNotFound.Code},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrCorruptFrame), ErrCorruptFrame.Code},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []*DomainError{
		ErrNotFound,
		ErrIOFailure,
		ErrCorruptFrame,
		ErrInvalidArgument,
		ErrRemovalUnsupported,
	}

	for _, err := range tests {
		t.Run(err.Code, func(t *testing.T) {
			if err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := ErrNotFound.
		WithDetails("id: 42").
		WithCause(cause)

	if err.Code != ErrNotFound.Code {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound.Code)
	}
	if err.Details != "id: 42" {
		t.Errorf("Details = %q", err.Details)
	}
	if err.Cause != cause {
		t.Error("Cause should be preserved")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should work after chaining")
	}
}
