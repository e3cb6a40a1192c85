// Package domain defines the core domain models for vectordb-go.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents an engine-facing error with a structured kind code.
// Lower-level packages (wal, kvstore, bitmap, annindex) raise plain sentinel
// errors; the engine wraps the ones it surfaces to callers in a DomainError
// so the RPC front end can map a kind to a status code without string
// matching.
type DomainError struct {
	Code    string // Error kind code (e.g., "VDB-IO-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Error-kind taxonomy (spec §7). These are the five kinds every storage
// layer's sentinel errors ultimately map to at the engine boundary.
var (
	// ErrNotFound indicates a KV lookup of a non-existent key. Treated as a
	// normal outcome by Upsert and LoadSnapshot; Query reports a missing id
	// to its caller as found=false rather than as this error.
	ErrNotFound = NewDomainError("VDB-NOTFOUND-4040", "not found")

	// ErrIOFailure indicates disk write/read failure, directory creation
	// failure, WAL flush failure, or KV open failure. Fatal to the calling
	// operation.
	ErrIOFailure = NewDomainError("VDB-IO-5000", "io failure")

	// ErrCorruptFrame indicates a WAL or bitmap-blob parse failure. Fatal to
	// Reload/LoadSnapshot.
	ErrCorruptFrame = NewDomainError("VDB-CORRUPT-5001", "corrupt frame")

	// ErrInvalidArgument indicates an unknown index kind, zero k, empty
	// vector, or malformed filter op.
	ErrInvalidArgument = NewDomainError("VDB-ARG-4000", "invalid argument")

	// ErrRemovalUnsupported is a soft error: Remove on an index kind that
	// doesn't support it is a no-op, not a failure, but the kind is named so
	// callers that care can detect it. The ANN index package raises its own
	// annindex.ErrRemovalUnsupported sentinel, not this value.
	ErrRemovalUnsupported = NewDomainError("VDB-REMOVE-4220", "removal unsupported")
)
