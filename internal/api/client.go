// Package api implements the client for the burnout-analysis backend REST
// surface. The backend is authoritative for all integration and credential
// state; this client only transports and maps errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/emberops/burnoutctl/internal/apperr"
)

// CredentialSource supplies the bearer session credential for authenticated
// calls. Implemented by the durable cache.
type CredentialSource interface {
	Credential() (string, error)
}

// Client is the backend API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	credentials CredentialSource
	logger      *slog.Logger
}

// Options configures the backend client.
type Options struct {
	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a backend API client rooted at baseURL.
func NewClient(baseURL string, credentials CredentialSource, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		credentials: credentials,
		logger:      logger,
	}, nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail            string `json:"detail"`
	Provider          string `json:"provider,omitempty"`
	ExternalAccountID string `json:"external_account_id,omitempty"`
}

// doRequest performs an authenticated request and decodes a JSON response
// into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	token, err := c.credentials.Credential()
	if err != nil {
		return fmt.Errorf("failed to read session credential: %w", err)
	}

	if token == "" {
		return apperr.ErrAuthRequired
	}

	var reqBody io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path

	c.logger.Debug("backend request",
		slog.String("method", method),
		slog.String("path", path),
	)

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.NetworkError{Operation: method + " " + path, Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// mapError translates a non-2xx response into the apperr taxonomy.
func (c *Client) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	_ = json.Unmarshal(raw, &body)

	detail := body.Detail
	if detail == "" {
		detail = string(bytes.TrimSpace(raw))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperr.ErrAuthRequired
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return &apperr.DuplicateIntegrationError{
			Provider:          body.Provider,
			ExternalAccountID: body.ExternalAccountID,
		}
	case http.StatusUnprocessableEntity:
		return &apperr.ValidationError{Field: "request", Reason: detail}
	default:
		return &apperr.ServerError{StatusCode: resp.StatusCode, Detail: detail}
	}
}
