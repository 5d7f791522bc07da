// Package connect drives the OAuth connect → redirect → callback →
// activate/deactivate lifecycle for third-party providers and owns the
// per-provider connection status cache.
package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/notify"
)

// Backend is the slice of the API client the connection manager consumes.
type Backend interface {
	InitiateConnect(ctx context.Context, provider model.Provider) (*api.ConnectResponse, error)
	ExchangeCallback(ctx context.Context, provider model.Provider, code, state string) (*api.CallbackResponse, error)
	Disconnect(ctx context.Context, provider model.Provider) error
	TestConnection(ctx context.Context, provider model.Provider) (*api.TestResponse, error)
	Status(ctx context.Context, provider model.Provider) (*api.StatusResponse, error)
	RenameIntegration(ctx context.Context, integrationID, name string) error
}

// Manager owns the connection lifecycle for every provider.
type Manager struct {
	backend  Backend
	durable  cache.Durable
	session  *cache.Session
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// NewManager wires a connection manager over the backend client and the two
// cache scopes.
func NewManager(backend Backend, durable cache.Durable, session *cache.Session, notifier *notify.Dispatcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		backend:  backend,
		durable:  durable,
		session:  session,
		notifier: notifier,
		logger:   logger,
	}
}

// InitiateConnect requests an authorization URL and anti-replay state from
// the backend and stores the state in the session scope. The caller is
// responsible for sending the user to the returned URL.
func (m *Manager) InitiateConnect(ctx context.Context, provider model.Provider) (string, error) {
	if !model.ValidProvider(provider) {
		return "", &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	resp, err := m.backend.InitiateConnect(ctx, provider)
	if err != nil {
		return "", err
	}

	m.session.PutHandshake(&model.Handshake{
		Provider:  provider,
		State:     resp.State,
		StartedAt: time.Now(),
	})

	return resp.AuthorizationURL, nil
}

// CallbackOutcome is the deterministic landing location of a processed
// callback, so the user never gets stuck on a loading state.
type CallbackOutcome struct {
	RedirectTo string
	Connected  bool
	Reason     string
}

// successOutcome builds the landing location for a completed connect.
func successOutcome(provider model.Provider, redirectURL string) *CallbackOutcome {
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("/integrations?%s_connected=1", provider)
	}

	return &CallbackOutcome{RedirectTo: redirectURL, Connected: true}
}

// errorOutcome builds the landing location for a failed connect, carrying
// the reason verbatim.
func errorOutcome(provider model.Provider, reason string) *CallbackOutcome {
	return &CallbackOutcome{
		RedirectTo: fmt.Sprintf("/integrations?%s_error=%s", provider, url.QueryEscape(reason)),
		Reason:     reason,
	}
}

// HandleCallback processes an OAuth redirect exactly once. A reentrancy lock
// in the session scope is acquired before any side effect and released on
// every exit path, so an at-least-once invoker (double-mounted effect, retry
// wrapper) cannot run the exchange twice. A concurrent second invocation
// gets apperr.ErrCallbackInProgress and no side effects.
//
// If errParam is set the provider denied authorization; it is forwarded to
// the outcome unprocessed and no exchange happens. A state mismatch against
// the stored handshake is logged and NOT blocking: the backend re-validates
// state on the exchange call and is the security boundary; the client check
// is only a UX fast-fail. Flagged for security review.
func (m *Manager) HandleCallback(ctx context.Context, provider model.Provider, code, state, errParam string) (*CallbackOutcome, error) {
	if !m.session.TryLockCallback(provider) {
		return nil, apperr.ErrCallbackInProgress
	}
	defer m.session.UnlockCallback(provider)

	// The stored anti-replay state is cleared no matter how this exits.
	handshake := m.session.ConsumeHandshake(provider)

	if errParam != "" {
		m.logger.Warn("provider returned callback error",
			slog.String("provider", string(provider)),
			slog.String("error", errParam),
		)

		return errorOutcome(provider, errParam), nil
	}

	if code == "" {
		return errorOutcome(provider, "missing_code"), nil
	}

	switch {
	case handshake == nil:
		m.logger.Warn("no stored oauth state for callback; proceeding, server will validate",
			slog.String("provider", string(provider)),
		)
	case handshake.State != state:
		m.logger.Warn("oauth state mismatch; proceeding, server will validate",
			slog.String("provider", string(provider)),
		)
	}

	resp, err := m.backend.ExchangeCallback(ctx, provider, code, state)
	if err != nil {
		reason := callbackReason(err)

		m.notifier.Dispatch(ctx, notify.NewEvent(notify.EventError).
			WithProvider(string(provider)).
			WithMessage(fmt.Sprintf("connecting %s failed", provider)).
			WithError(reason))

		return errorOutcome(provider, reason), err
	}

	if resp.Integration != nil {
		if err := m.cacheIntegration(resp.Integration); err != nil {
			return nil, err
		}
	}

	m.notifier.Dispatch(ctx, notify.NewEvent(notify.EventConnected).
		WithProvider(string(provider)).
		WithMessage(fmt.Sprintf("%s connected", provider)))

	return successOutcome(provider, resp.RedirectURL), nil
}

// callbackReason reduces an exchange error to a redirect-safe token.
func callbackReason(err error) string {
	var dup *apperr.DuplicateIntegrationError
	if errors.As(err, &dup) {
		return "duplicate_integration"
	}

	if errors.Is(err, apperr.ErrAuthRequired) {
		return "auth_required"
	}

	var srvErr *apperr.ServerError
	if errors.As(err, &srvErr) && srvErr.Detail != "" {
		return srvErr.Detail
	}

	return "exchange_failed"
}

// cacheIntegration writes a server-confirmed integration row, refusing to
// overwrite a different external account for the same provider.
func (m *Manager) cacheIntegration(in *model.Integration) error {
	existing, err := m.durable.GetIntegration(in.Provider)
	if err != nil {
		return err
	}

	if existing != nil && existing.ExternalAccountID != in.ExternalAccountID {
		return &apperr.DuplicateIntegrationError{
			Provider:          string(in.Provider),
			ExternalAccountID: existing.ExternalAccountID,
		}
	}

	return m.durable.PutIntegration(in)
}

// Disconnect revokes the integration server-side, then clears the cached
// integration and member snapshots. Nothing is removed optimistically: a
// failed revoke leaves prior state untouched.
func (m *Manager) Disconnect(ctx context.Context, provider model.Provider) error {
	if err := m.backend.Disconnect(ctx, provider); err != nil {
		return err
	}

	if err := m.durable.InvalidateProvider(provider); err != nil {
		return err
	}

	m.notifier.Dispatch(ctx, notify.NewEvent(notify.EventDisconnected).
		WithProvider(string(provider)).
		WithMessage(fmt.Sprintf("%s disconnected", provider)))

	return nil
}

// TestConnection runs the backend health-check and refreshes only the
// cached permission map.
func (m *Manager) TestConnection(ctx context.Context, provider model.Provider) (*api.TestResponse, error) {
	resp, err := m.backend.TestConnection(ctx, provider)
	if err != nil {
		return nil, err
	}

	in, err := m.durable.GetIntegration(provider)
	if err != nil {
		return nil, err
	}

	if in != nil {
		in.Permissions = resp.Permissions
		in.LastUsedAt = time.Now()

		if err := m.durable.PutIntegration(in); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// Status returns the provider's integration, reading through the cache to
// the backend on a miss.
func (m *Manager) Status(ctx context.Context, provider model.Provider) (*model.Integration, error) {
	cached, err := m.durable.GetIntegration(provider)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		return cached, nil
	}

	resp, err := m.backend.Status(ctx, provider)
	if err != nil {
		return nil, err
	}

	if !resp.Connected || resp.Integration == nil {
		return nil, nil
	}

	if err := m.durable.PutIntegration(resp.Integration); err != nil {
		return nil, err
	}

	return resp.Integration, nil
}

// RenamePrimary renames an integration optimistically: the new name is
// visible immediately via the PendingRename marker and committed or
// reverted once the backend answers.
func (m *Manager) RenamePrimary(ctx context.Context, provider model.Provider, integrationID, name string) error {
	if name == "" {
		return &apperr.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	in, err := m.durable.GetIntegration(provider)
	if err != nil {
		return err
	}

	if in == nil || in.ID != integrationID {
		return apperr.ErrNotFound
	}

	// Optimistic: marker first, confirmation later.
	in.PendingRename = name
	if err := m.durable.PutIntegration(in); err != nil {
		return err
	}

	if err := m.backend.RenameIntegration(ctx, integrationID, name); err != nil {
		// Roll back to the last confirmed name.
		in.PendingRename = ""
		if putErr := m.durable.PutIntegration(in); putErr != nil {
			m.logger.Error("rename rollback failed", slog.Any("error", putErr))
		}

		m.notifier.Dispatch(ctx, notify.NewEvent(notify.EventRollback).
			WithProvider(string(provider)).
			WithMessage("rename reverted").
			WithError(err.Error()))

		return err
	}

	in.DisplayName = name
	in.PendingRename = ""

	if err := m.durable.PutIntegration(in); err != nil {
		return err
	}

	m.notifier.Dispatch(ctx, notify.NewEvent(notify.EventRenamed).
		WithProvider(string(provider)).
		WithMessage(fmt.Sprintf("renamed to %q", name)))

	return nil
}
