package providers

import (
	"context"
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira/v2/cloud"

	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/model"
)

// JiraCredentials are the manual inputs for a Jira Cloud connection.
type JiraCredentials struct {
	BaseURL string
	Email   string
	Token   string
}

// JiraValidation describes credentials that passed the pre-submit check.
type JiraValidation struct {
	AccountID   string
	DisplayName string
	Email       string
	TokenSuffix string
}

// validateJiraInput rejects obviously malformed credentials before any
// network call.
func validateJiraInput(creds JiraCredentials) error {
	switch {
	case creds.BaseURL == "":
		return &apperr.ValidationError{Field: "base_url", Reason: "must not be empty"}
	case !strings.HasPrefix(creds.BaseURL, "https://"):
		return &apperr.ValidationError{Field: "base_url", Reason: "must be an https URL"}
	case creds.Email == "":
		return &apperr.ValidationError{Field: "email", Reason: "must not be empty"}
	case !strings.Contains(creds.Email, "@"):
		return &apperr.ValidationError{Field: "email", Reason: "must be an email address"}
	case creds.Token == "":
		return &apperr.ValidationError{Field: "token", Reason: "must not be empty"}
	}

	return nil
}

// ValidateJiraCredentials checks an email+token pair against the Jira
// /myself endpoint before it is sent to the backend.
func ValidateJiraCredentials(ctx context.Context, creds JiraCredentials) (*JiraValidation, error) {
	if err := validateJiraInput(creds); err != nil {
		return nil, err
	}

	tp := jira.BasicAuthTransport{
		Username: creds.Email,
		APIToken: creds.Token,
	}

	client, err := jira.NewClient(creds.BaseURL, tp.Client())
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}

	user, resp, err := client.User.GetCurrentUser(ctx)
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return nil, apperr.ErrAuthRequired
		}

		return nil, &apperr.NetworkError{Operation: "validate jira credentials", Err: err}
	}

	return &JiraValidation{
		AccountID:   user.AccountID,
		DisplayName: user.DisplayName,
		Email:       user.EmailAddress,
		TokenSuffix: model.Suffix(creds.Token),
	}, nil
}
