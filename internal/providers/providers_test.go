package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberops/burnoutctl/internal/apperr"
)

func TestMissingGitHubScopes(t *testing.T) {
	tests := []struct {
		name    string
		scopes  []string
		missing []string
	}{
		{name: "all granted", scopes: []string{"read:org", "repo", "gist"}, missing: nil},
		{name: "repo missing", scopes: []string{"read:org"}, missing: []string{"repo"}},
		{name: "all missing", scopes: []string{"gist"}, missing: []string{"read:org", "repo"}},
		{name: "fine grained reports none", scopes: nil, missing: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MissingGitHubScopes(&GitHubValidation{Scopes: tt.scopes})
			assert.Equal(t, tt.missing, got)
		})
	}
}

func TestValidateGitHubTokenRejectsEmpty(t *testing.T) {
	_, err := ValidateGitHubToken(context.Background(), "")

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "token", verr.Field)
}

func TestValidateJiraInput(t *testing.T) {
	tests := []struct {
		name  string
		creds JiraCredentials
		field string
	}{
		{name: "empty url", creds: JiraCredentials{}, field: "base_url"},
		{name: "plain http", creds: JiraCredentials{BaseURL: "http://acme.atlassian.net"}, field: "base_url"},
		{name: "missing email", creds: JiraCredentials{BaseURL: "https://acme.atlassian.net"}, field: "email"},
		{name: "bad email", creds: JiraCredentials{BaseURL: "https://acme.atlassian.net", Email: "nope"}, field: "email"},
		{name: "missing token", creds: JiraCredentials{BaseURL: "https://acme.atlassian.net", Email: "a@x.com"}, field: "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJiraInput(tt.creds)

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateJiraInputAcceptsWellFormed(t *testing.T) {
	err := validateJiraInput(JiraCredentials{
		BaseURL: "https://acme.atlassian.net",
		Email:   "a@x.com",
		Token:   "tok-123",
	})
	assert.NoError(t, err)
}

func TestDeviceFlowRequiresDisplayCallback(t *testing.T) {
	flow := &DeviceFlow{}

	_, err := flow.Run(context.Background())
	require.Error(t, err)
}
