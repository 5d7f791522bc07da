// Package workspace lists and switches the active tenant workspace for
// providers that expose more than one accessible organization.
package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/notify"
)

// Backend is the slice of the API client the selector consumes.
type Backend interface {
	Workspaces(ctx context.Context, provider model.Provider) (*api.WorkspacesResponse, error)
	SelectWorkspace(ctx context.Context, provider model.Provider, workspaceID string) error
}

// Selector switches the active workspace and keeps the cache honest about
// the change of data universe that implies.
type Selector struct {
	backend  Backend
	durable  cache.Durable
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewSelector creates a selector over the given backend and durable cache.
func NewSelector(backend Backend, durable cache.Durable, notifier *notify.Dispatcher, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}

	if notifier == nil {
		notifier = notify.NewDispatcher()
	}

	return &Selector{
		backend:  backend,
		durable:  durable,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns the workspaces the provider exposes, including which one is
// currently selected server-side.
func (s *Selector) List(ctx context.Context, provider model.Provider) ([]model.Workspace, error) {
	if !model.ValidProvider(provider) {
		return nil, &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	resp, err := s.backend.Workspaces(ctx, provider)
	if err != nil {
		return nil, err
	}

	return resp.Workspaces, nil
}

// Select commits the workspace choice server-side, then drops every cached
// integration row and member snapshot the provider contributed to. The old
// workspace's data must never satisfy a read made after the switch.
func (s *Selector) Select(ctx context.Context, provider model.Provider, workspaceID string) error {
	if !model.ValidProvider(provider) {
		return &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	if workspaceID == "" {
		return &apperr.ValidationError{Field: "workspace", Reason: "must not be empty"}
	}

	if err := s.backend.SelectWorkspace(ctx, provider, workspaceID); err != nil {
		return err
	}

	if err := s.durable.InvalidateProvider(provider); err != nil {
		// The server already switched; a stale cache here would serve the
		// old workspace's members. Surface loudly.
		s.logger.Error("workspace switched but cache invalidation failed", "provider", provider, "error", err)

		return fmt.Errorf("invalidate cache after workspace switch: %w", err)
	}

	s.notifier.Dispatch(ctx, notify.NewEvent(notify.EventWorkspace).
		WithProvider(string(provider)).
		WithMessage(fmt.Sprintf("active %s workspace is now %s", provider, workspaceID)))

	return nil
}
