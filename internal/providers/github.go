// Package providers validates manually-supplied provider credentials before
// they are submitted to the backend. Raw secrets pass through transiently;
// only display suffixes survive in any returned value.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v82/github"
	"golang.org/x/oauth2"

	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/model"
)

// GitHubValidation describes a token that passed the pre-submit check.
type GitHubValidation struct {
	Login       string
	Name        string
	Scopes      []string
	TokenSuffix string
}

// ValidateGitHubToken checks a personal access token against the GitHub API
// before it is sent to the backend. The raw token is not retained.
func ValidateGitHubToken(ctx context.Context, token string) (*GitHubValidation, error) {
	if token == "" {
		return nil, &apperr.ValidationError{Field: "token", Reason: "must not be empty"}
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = 30 * time.Second

	client := github.NewClient(httpClient)

	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, apperr.ErrAuthRequired
		}

		return nil, &apperr.NetworkError{Operation: "validate github token", Err: err}
	}

	var scopes []string
	if raw := resp.Header.Get("X-OAuth-Scopes"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			scopes = append(scopes, strings.TrimSpace(s))
		}
	}

	validation := &GitHubValidation{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Scopes:      scopes,
		TokenSuffix: model.Suffix(token),
	}

	if missing := MissingGitHubScopes(validation); len(missing) > 0 {
		return nil, gitHubScopeError(missing)
	}

	return validation, nil
}

// RequiredGitHubScopes are the scopes the backend needs to read organization
// membership and activity.
var RequiredGitHubScopes = []string{"read:org", "repo"}

// MissingGitHubScopes reports which required scopes the validated token
// lacks. Classic tokens report scopes; fine-grained tokens report none and
// are left for the backend's test endpoint to judge.
func MissingGitHubScopes(v *GitHubValidation) []string {
	if len(v.Scopes) == 0 {
		return nil
	}

	granted := make(map[string]bool, len(v.Scopes))
	for _, s := range v.Scopes {
		granted[s] = true
	}

	var missing []string

	for _, want := range RequiredGitHubScopes {
		if !granted[want] {
			missing = append(missing, want)
		}
	}

	return missing
}

// gitHubScopeError renders a missing-scope list as a validation error.
func gitHubScopeError(missing []string) error {
	return &apperr.ValidationError{
		Field:  "token",
		Reason: fmt.Sprintf("missing required scopes: %s", strings.Join(missing, ", ")),
	}
}
