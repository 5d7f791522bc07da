package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cli/oauth"

	"github.com/emberops/burnoutctl/internal/model"
)

// DeviceFlowResult is the outcome of a completed device authorization.
// The Token field is handed to the backend immediately and must not be
// persisted by callers.
type DeviceFlowResult struct {
	Token       string
	Login       string
	TokenSuffix string
}

// DeviceFlow acquires a GitHub token without a local browser, for headless
// hosts where the redirect-based connect flow cannot complete.
type DeviceFlow struct {
	Host   string
	Scopes []string

	// DisplayCode shows the user code and verification URL to the user.
	// Required; the flow cannot proceed silently.
	DisplayCode func(code, verificationURL string)
}

// Run executes the device authorization flow and validates the resulting
// token before returning it.
func (f *DeviceFlow) Run(ctx context.Context) (*DeviceFlowResult, error) {
	if f.DisplayCode == nil {
		return nil, fmt.Errorf("device flow requires a code display callback")
	}

	hostName := f.Host
	if hostName == "" {
		hostName = "github.com"
	}

	host, err := oauth.NewGitHubHost("https://" + hostName)
	if err != nil {
		return nil, fmt.Errorf("invalid github host: %w", err)
	}

	scopes := f.Scopes
	if len(scopes) == 0 {
		scopes = RequiredGitHubScopes
	}

	flow := &oauth.Flow{
		Host:   host,
		Scopes: scopes,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		DisplayCode: func(code, verificationURL string) error {
			f.DisplayCode(code, verificationURL)

			return nil
		},
	}

	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}

	validation, err := ValidateGitHubToken(ctx, token.Token)
	if err != nil {
		return nil, err
	}

	return &DeviceFlowResult{
		Token:       token.Token,
		Login:       validation.Login,
		TokenSuffix: model.Suffix(token.Token),
	}, nil
}
