// Package token manages the system/custom credential toggle for the
// AI-insights feature: optimistic switches with server-confirmed commit or
// rollback, serialized so two transitions can never interleave.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/notify"
)

// Backend is the slice of the API client the controller consumes.
type Backend interface {
	TokenConfig(ctx context.Context) (*model.TokenConfig, error)
	SetTokenPreference(ctx context.Context, source model.AISource) error
	ActivateSystemToken(ctx context.Context) (*model.TokenConfig, error)
	ActivateStoredCustomToken(ctx context.Context, provider model.AIProvider) (*model.TokenConfig, error)
	ConnectToken(ctx context.Context, req api.ConnectTokenRequest) (*model.TokenConfig, error)
	DisconnectCustomToken(ctx context.Context) (*model.TokenConfig, error)
}

// Phase describes what the toggle is currently doing.
type Phase string

const (
	// PhaseIdle means the shown configuration is server-confirmed.
	PhaseIdle Phase = "idle"
	// PhaseSwitching means an optimistic transition is in flight.
	PhaseSwitching Phase = "switching"
	// PhaseNeedsInput means the user chose custom but no stored credential
	// exists; the caller should show the token input form. Not an error.
	PhaseNeedsInput Phase = "needs-input"
)

// View is a snapshot of the toggle for display.
type View struct {
	Config model.TokenConfig
	Phase  Phase
}

// Controller owns the token-source state machine.
type Controller struct {
	backend  Backend
	notifier *notify.Dispatcher
	logger   *slog.Logger

	// SwitchDelay is an optional cosmetic pause before the activation call.
	// Zero is valid; correctness never depends on it.
	SwitchDelay time.Duration

	mu       sync.Mutex
	config   model.TokenConfig
	phase    Phase
	inFlight bool

	// issued counts transitions by issue order; responses belonging to a
	// superseded transition are discarded (last-write-wins by issue order,
	// not response-arrival order).
	issued  uint64
	applied uint64
}

// NewController creates a controller seeded with the given configuration.
func NewController(backend Backend, notifier *notify.Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	if notifier == nil {
		notifier = notify.NewDispatcher()
	}

	return &Controller{
		backend:  backend,
		notifier: notifier,
		logger:   logger,
		phase:    PhaseIdle,
	}
}

// Load fetches the server-side configuration. A response that arrives after
// a newer transition was issued is discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	seq := c.issued
	c.mu.Unlock()

	cfg, err := c.backend.TokenConfig(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.issued != seq {
		c.logger.Debug("discarding stale token config response")

		return nil
	}

	c.config = *cfg
	c.applied = seq

	return nil
}

// Current returns the displayed snapshot, including any optimistic value.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{Config: c.config, Phase: c.phase}
}

// begin registers a new transition, rejecting it when one is in flight.
// It returns the issue-order sequence and the last confirmed configuration.
func (c *Controller) begin() (uint64, model.TokenConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return 0, model.TokenConfig{}, apperr.ErrTransitionInFlight
	}

	c.inFlight = true
	c.issued++

	return c.issued, c.config, nil
}

// commit applies a server-confirmed configuration for transition seq.
func (c *Controller) commit(seq uint64, cfg model.TokenConfig, phase Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false

	if seq < c.applied {
		return
	}

	c.config = cfg
	c.phase = phase
	c.applied = seq
}

// rollback restores the last confirmed configuration after a failed
// optimistic transition.
func (c *Controller) rollback(ctx context.Context, seq uint64, previous model.TokenConfig, cause error) {
	c.mu.Lock()
	c.inFlight = false
	c.config = previous
	c.phase = PhaseIdle
	c.applied = seq
	c.mu.Unlock()

	c.notifier.Dispatch(ctx, notify.NewEvent(notify.EventRollback).
		WithMessage(fmt.Sprintf("token source reverted to %s", previous.Source)).
		WithError(cause.Error()))
}

// SwitchSource toggles between the system and custom credential. While the
// AI token is connected the switch is optimistic: the visible source flips
// immediately, marked switching, and is committed or rolled back when the
// backend answers. While disconnected it is a pure preference write. A
// second transition issued while one is in flight is rejected.
func (c *Controller) SwitchSource(ctx context.Context, target model.AISource) error {
	seq, previous, err := c.begin()
	if err != nil {
		return err
	}

	if previous.Source == target {
		c.commit(seq, previous, PhaseIdle)

		return nil
	}

	// Optimistic flip, visible immediately.
	c.mu.Lock()
	c.config.Source = target
	c.phase = PhaseSwitching
	c.mu.Unlock()

	if !previous.HasToken {
		// Disconnected: preference only, no credential exchange.
		if err := c.backend.SetTokenPreference(ctx, target); err != nil {
			c.rollback(ctx, seq, previous, err)

			return err
		}

		confirmed := previous
		confirmed.Source = target
		c.commit(seq, confirmed, PhaseIdle)

		return nil
	}

	if c.SwitchDelay > 0 {
		time.Sleep(c.SwitchDelay)
	}

	switch target {
	case model.AISourceSystem:
		cfg, err := c.backend.ActivateSystemToken(ctx)
		if err != nil {
			c.rollback(ctx, seq, previous, err)

			return err
		}

		c.commit(seq, *cfg, PhaseIdle)

	case model.AISourceCustom:
		cfg, err := c.backend.ActivateStoredCustomToken(ctx, previous.Provider)
		if errors.Is(err, apperr.ErrNotFound) {
			// No stored custom credential: show the input form, keep the
			// toggle on custom. This is a state transition, never a failure.
			c.commit(seq, model.TokenConfig{
				HasToken: false,
				Source:   model.AISourceCustom,
				Provider: previous.Provider,
			}, PhaseNeedsInput)

			return nil
		}

		if err != nil {
			c.rollback(ctx, seq, previous, err)

			return err
		}

		c.commit(seq, *cfg, PhaseIdle)

	default:
		c.rollback(ctx, seq, previous, &apperr.ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", target)})

		return &apperr.ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", target)}
	}

	c.notifier.Dispatch(ctx, notify.NewEvent(notify.EventSourceSwitch).
		WithMessage(fmt.Sprintf("AI token source is now %s", target)))

	return nil
}

// Connect submits a credential choice. A custom token must be non-empty;
// only its display suffix ever survives client-side.
func (c *Controller) Connect(ctx context.Context, rawToken string, provider model.AIProvider, useSystemToken bool) error {
	if !useSystemToken && rawToken == "" {
		return &apperr.ValidationError{Field: "token", Reason: "must not be empty"}
	}

	seq, previous, err := c.begin()
	if err != nil {
		return err
	}

	cfg, err := c.backend.ConnectToken(ctx, api.ConnectTokenRequest{
		Token:          rawToken,
		Provider:       provider,
		UseSystemToken: useSystemToken,
	})
	if err != nil {
		c.rollback(ctx, seq, previous, err)

		return err
	}

	confirmed := *cfg
	if confirmed.TokenSuffix == "" && !useSystemToken {
		confirmed.TokenSuffix = model.Suffix(rawToken)
	}

	c.commit(seq, confirmed, PhaseIdle)

	return nil
}

// DisconnectCustom removes the stored custom credential and falls back to
// the system token. Destructive and irreversible from the client's side, so
// the caller must pass explicit confirmation.
func (c *Controller) DisconnectCustom(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return &apperr.ValidationError{Field: "confirm", Reason: "disconnecting the custom token requires explicit confirmation"}
	}

	seq, previous, err := c.begin()
	if err != nil {
		return err
	}

	cfg, err := c.backend.DisconnectCustomToken(ctx)
	if err != nil {
		c.rollback(ctx, seq, previous, err)

		return err
	}

	// The backend confirms the fallback: system token, still usable.
	c.commit(seq, *cfg, PhaseIdle)

	c.notifier.Dispatch(ctx, notify.NewEvent(notify.EventSourceSwitch).
		WithMessage("custom AI token removed, using system token"))

	return nil
}
