package api

import (
	"context"
	"net/http"

	"github.com/emberops/burnoutctl/internal/model"
)

// TokenConfig fetches the AI-insights credential configuration.
func (c *Client) TokenConfig(ctx context.Context) (*model.TokenConfig, error) {
	var out model.TokenConfig

	if err := c.doRequest(ctx, http.MethodGet, "/llm/token", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SetTokenPreference writes the system/custom preference without any
// credential exchange. Used while the AI token is disconnected.
func (c *Client) SetTokenPreference(ctx context.Context, source model.AISource) error {
	body := map[string]string{"source": string(source)}

	return c.doRequest(ctx, http.MethodPatch, "/llm/token/preference", body, nil)
}

// ActivateSystemToken switches the AI-insights feature to the shared
// system credential.
func (c *Client) ActivateSystemToken(ctx context.Context) (*model.TokenConfig, error) {
	var out model.TokenConfig

	if err := c.doRequest(ctx, http.MethodPost, "/llm/token/activate-system", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ActivateStoredCustomToken silently re-activates a previously stored custom
// credential. Returns apperr.ErrNotFound when no stored token exists; the
// caller treats that as a state transition, not a failure.
func (c *Client) ActivateStoredCustomToken(ctx context.Context, provider model.AIProvider) (*model.TokenConfig, error) {
	var out model.TokenConfig

	body := map[string]string{"provider": string(provider)}
	if err := c.doRequest(ctx, http.MethodPost, "/llm/token/activate-stored", body, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ConnectTokenRequest submits a new AI credential choice.
type ConnectTokenRequest struct {
	Token          string           `json:"token,omitempty"`
	Provider       model.AIProvider `json:"provider,omitempty"`
	UseSystemToken bool             `json:"use_system_token"`
}

// ConnectToken submits a custom credential (or opts into the system one).
// The raw token travels to the backend and is never retained client-side.
func (c *Client) ConnectToken(ctx context.Context, req ConnectTokenRequest) (*model.TokenConfig, error) {
	var out model.TokenConfig

	if err := c.doRequest(ctx, http.MethodPost, "/llm/token", req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DisconnectCustomToken removes the stored custom credential server-side.
// The backend confirms the fallback configuration in its response.
func (c *Client) DisconnectCustomToken(ctx context.Context) (*model.TokenConfig, error) {
	var out model.TokenConfig

	if err := c.doRequest(ctx, http.MethodDelete, "/llm/token", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
