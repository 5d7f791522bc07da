package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/model"
)

type staticCredentials string

func (s staticCredentials) Credential() (string, error) { return string(s), nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, staticCredentials("session-token"), Options{})
	require.NoError(t, err)

	return client, srv
}

func TestInitiateConnectSendsBearer(t *testing.T) {
	var gotAuth, gotPath string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"authorization_url":"https://auth.example/a","state":"s1"}`))
	})

	resp, err := client.InitiateConnect(context.Background(), model.ProviderJira)
	require.NoError(t, err)

	assert.Equal(t, "Bearer session-token", gotAuth)
	assert.Equal(t, "/integrations/jira/connect", gotPath)
	assert.Equal(t, "https://auth.example/a", resp.AuthorizationURL)
	assert.Equal(t, "s1", resp.State)
}

func TestMissingCredentialIsAuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the backend without a credential")
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, staticCredentials(""), Options{})
	require.NoError(t, err)

	_, err = client.Status(context.Background(), model.ProviderGitHub)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 maps to AuthRequired",
			status: http.StatusUnauthorized,
			body:   `{"detail":"token expired"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperr.ErrAuthRequired)
			},
		},
		{
			name:   "404 maps to NotFound",
			status: http.StatusNotFound,
			body:   `{"detail":"no stored token"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperr.ErrNotFound)
			},
		},
		{
			name:   "409 maps to DuplicateIntegration",
			status: http.StatusConflict,
			body:   `{"detail":"already connected","provider":"jira","external_account_id":"cloud-1"}`,
			check: func(t *testing.T, err error) {
				var dup *apperr.DuplicateIntegrationError
				require.ErrorAs(t, err, &dup)
				assert.Equal(t, "jira", dup.Provider)
				assert.Equal(t, "cloud-1", dup.ExternalAccountID)
			},
		},
		{
			name:   "500 maps to ServerError with detail",
			status: http.StatusInternalServerError,
			body:   `{"detail":"boom"}`,
			check: func(t *testing.T, err error) {
				var srvErr *apperr.ServerError
				require.ErrorAs(t, err, &srvErr)
				assert.Equal(t, http.StatusInternalServerError, srvErr.StatusCode)
				assert.Equal(t, "boom", srvErr.Detail)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Status(context.Background(), model.ProviderJira)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:0", staticCredentials("tok"), Options{})
	require.NoError(t, err)

	_, err = client.Status(context.Background(), model.ProviderJira)
	require.Error(t, err)

	var netErr *apperr.NetworkError
	assert.True(t, errors.As(err, &netErr), "expected NetworkError, got %T: %v", err, err)
}

func TestActivateStoredNotFoundPassthrough(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"no stored custom token"}`))
	})

	_, err := client.ActivateStoredCustomToken(context.Background(), model.AIProviderAnthropic)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
