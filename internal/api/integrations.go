package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/emberops/burnoutctl/internal/model"
)

// ConnectResponse is the backend's answer to a connect initiation.
type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// InitiateConnect asks the backend to mint an authorization URL and
// anti-replay state for the provider.
func (c *Client) InitiateConnect(ctx context.Context, provider model.Provider) (*ConnectResponse, error) {
	var out ConnectResponse

	path := fmt.Sprintf("/integrations/%s/connect", provider)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CallbackRequest carries the authorization code back to the backend.
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// CallbackResponse is the backend's answer to a completed code exchange.
type CallbackResponse struct {
	RedirectURL string             `json:"redirect_url"`
	Integration *model.Integration `json:"integration,omitempty"`
}

// ExchangeCallback completes the OAuth flow by exchanging the code
// server-side. The backend re-validates state; it is authoritative.
func (c *Client) ExchangeCallback(ctx context.Context, provider model.Provider, code, state string) (*CallbackResponse, error) {
	var out CallbackResponse

	path := fmt.Sprintf("/integrations/%s/callback", provider)
	if err := c.doRequest(ctx, http.MethodPost, path, CallbackRequest{Code: code, State: state}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Disconnect revokes the provider's integration server-side.
func (c *Client) Disconnect(ctx context.Context, provider model.Provider) error {
	path := fmt.Sprintf("/integrations/%s/disconnect", provider)

	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// TestResponse is the health-check result for one integration.
type TestResponse struct {
	Success     bool                             `json:"success"`
	Permissions map[string]model.PermissionState `json:"permissions"`
	UserInfo    map[string]string                `json:"user_info,omitempty"`
}

// TestConnection runs the backend's permission smoke tests for the provider.
func (c *Client) TestConnection(ctx context.Context, provider model.Provider) (*TestResponse, error) {
	var out TestResponse

	path := fmt.Sprintf("/integrations/%s/test", provider)
	if err := c.doRequest(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// StatusResponse reports whether a provider is connected and its row.
type StatusResponse struct {
	Connected   bool               `json:"connected"`
	Integration *model.Integration `json:"integration,omitempty"`
}

// Status fetches the provider's integration status.
func (c *Client) Status(ctx context.Context, provider model.Provider) (*StatusResponse, error) {
	var out StatusResponse

	path := fmt.Sprintf("/integrations/%s/status", provider)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// RenameIntegration updates the display name of an integration.
func (c *Client) RenameIntegration(ctx context.Context, integrationID, name string) error {
	path := fmt.Sprintf("/integrations/%s", url.PathEscape(integrationID))

	return c.doRequest(ctx, http.MethodPatch, path, map[string]string{"display_name": name}, nil)
}

// WorkspacesResponse lists a provider's accessible tenants.
type WorkspacesResponse struct {
	Workspaces []model.Workspace `json:"workspaces"`
}

// Workspaces lists the tenant workspaces the provider exposes.
func (c *Client) Workspaces(ctx context.Context, provider model.Provider) (*WorkspacesResponse, error) {
	var out WorkspacesResponse

	path := fmt.Sprintf("/integrations/%s/workspaces", provider)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// SelectWorkspace commits the active workspace choice server-side.
func (c *Client) SelectWorkspace(ctx context.Context, provider model.Provider, workspaceID string) error {
	path := fmt.Sprintf("/integrations/%s/select-workspace", provider)

	return c.doRequest(ctx, http.MethodPost, path, map[string]string{"cloud_id": workspaceID}, nil)
}
