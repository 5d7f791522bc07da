// Package apperr defines the error taxonomy shared by the backend client and
// the controllers built on top of it.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that drive control flow rather than carry a
// backend message.
var (
	// ErrAuthRequired indicates no session credential is present; the caller
	// should prompt for login instead of retrying.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotFound indicates the requested entity does not exist server-side.
	// In the token-source state machine this is a normal branch, not a
	// failure.
	ErrNotFound = errors.New("not found")

	// ErrTransitionInFlight indicates a token-source transition was rejected
	// because another one has not finished yet.
	ErrTransitionInFlight = errors.New("token-source transition already in flight")

	// ErrCallbackInProgress indicates a concurrent callback invocation was
	// suppressed by the reentrancy guard.
	ErrCallbackInProgress = errors.New("callback already being processed")
)

// ValidationError indicates malformed or missing input, detected before any
// backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateIntegrationError indicates the same external account is already
// connected. It is surfaced, never merged over.
type DuplicateIntegrationError struct {
	Provider          string
	ExternalAccountID string
}

func (e *DuplicateIntegrationError) Error() string {
	return fmt.Sprintf("%s account %s is already connected", e.Provider, e.ExternalAccountID)
}

// ServerError wraps a non-2xx backend response carrying a message.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}

	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Detail)
}

// NetworkError indicates a request that never completed.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request did not complete: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a rollback-triggering transport or
// server failure, as opposed to a control-flow condition.
func IsTransient(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}

	var srvErr *ServerError
	return errors.As(err, &srvErr)
}
