// Package notify provides notification dispatching for integration and
// token-source lifecycle events.
package notify

import (
	"context"
	"time"
)

// Event types that can trigger notifications.
const (
	EventConnected     = "connected"
	EventDisconnected  = "disconnected"
	EventRenamed       = "renamed"
	EventSourceSwitch  = "source-switch"
	EventRollback      = "rollback"
	EventMembersSynced = "members-synced"
	EventWorkspace     = "workspace-selected"
	EventError         = "error"
)

// Event represents a notification event with the context needed to render it.
type Event struct {
	// Type is the event type (connected, rollback, etc.)
	Type string

	// Provider is the integration provider the event concerns, if any.
	Provider string

	// Message is the human-readable summary.
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Success indicates if the operation succeeded.
	Success bool

	// Error contains error details if the operation failed.
	Error string
}

// Sender is the interface for notification senders.
type Sender interface {
	// Send sends a notification for the given event.
	Send(ctx context.Context, event *Event) error

	// Name returns the sender's name for logging purposes.
	Name() string
}

// NewEvent creates a new event with the given type and sets the timestamp.
func NewEvent(eventType string) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Success:   true,
	}
}

// WithProvider sets the provider on the event.
func (e *Event) WithProvider(provider string) *Event {
	e.Provider = provider
	return e
}

// WithMessage sets the summary on the event.
func (e *Event) WithMessage(msg string) *Event {
	e.Message = msg
	return e
}

// WithError sets the error on the event and marks it as failed.
func (e *Event) WithError(err string) *Event {
	e.Error = err
	e.Success = false

	return e
}
