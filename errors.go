package mq

import (
	"errors"
	"fmt"
)

// Common errors returned by connections, messages and the registry.
var (
	// ErrInvalidState is returned when an operation is not legal in the current connection or message state.
	ErrInvalidState = errors.New("mq: operation not valid in the current state")

	// ErrNoMatchingEngine is returned when no registered engine handles the scheme of a URI.
	ErrNoMatchingEngine = errors.New("mq: no engine registered for URI scheme")

	// ErrUnsupported is returned when an engine does not implement a capability.
	ErrUnsupported = errors.New("mq: operation not supported by engine")

	// ErrReleased is returned when a connection or message is used after it was released.
	ErrReleased = errors.New("mq: object has been released")
)

// BackendError represents an engine specific error code, surfaced verbatim from the engine.
type BackendError struct {
	// Code the engine defined code.
	Code int
	// Text an optional engine supplied description of Code.
	Text string
}

// NewBackendError creates a new BackendError.
func NewBackendError(code int, text string) *BackendError {
	return &BackendError{Code: code, Text: text}
}

// Error implements error.
func (e *BackendError) Error() string {
	if e.Text != "" {
		return e.Text
	}

	return fmt.Sprintf("Unknown error #%d", e.Code)
}

// EnvironmentError represents a failure reported by the operating system,
// for example a failed dial or a plugin which could not be opened.
type EnvironmentError struct {
	Op  string // Op the operation which failed.
	Err error  // Err the underlying error.
}

// Error implements error.
func (e *EnvironmentError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}

	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *EnvironmentError) Unwrap() error { return e.Err }
