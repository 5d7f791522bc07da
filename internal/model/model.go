// Package model defines the shared data types for integrations, AI-token
// configuration, team members and workspaces.
package model

import "time"

// Provider identifies one external account source.
type Provider string

const (
	ProviderRootly    Provider = "rootly"
	ProviderPagerDuty Provider = "pagerduty"
	ProviderGitHub    Provider = "github"
	ProviderSlack     Provider = "slack"
	ProviderJira      Provider = "jira"
)

// Providers lists every supported provider in a stable order.
var Providers = []Provider{
	ProviderRootly,
	ProviderPagerDuty,
	ProviderGitHub,
	ProviderSlack,
	ProviderJira,
}

// ValidProvider reports whether p is one of the supported providers.
func ValidProvider(p Provider) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}

	return false
}

// TokenSource indicates how an integration credential was obtained.
type TokenSource string

const (
	TokenSourceOAuth  TokenSource = "oauth"
	TokenSourceManual TokenSource = "manual"
)

// PermissionState is the result of a single capability check.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPending PermissionState = "pending"
	PermissionError   PermissionState = "error"
)

// Integration is one connected account source. Only the credential suffix is
// ever kept client-side; the full secret lives server-side.
type Integration struct {
	ID                    string                     `json:"id"`
	Provider              Provider                   `json:"provider"`
	ExternalAccountID     string                     `json:"external_account_id"`
	DisplayName           string                     `json:"display_name"`
	TokenSource           TokenSource                `json:"token_source"`
	CredentialFingerprint string                     `json:"credential_fingerprint,omitempty"`
	ConnectedAt           time.Time                  `json:"connected_at"`
	LastUsedAt            time.Time                  `json:"last_used_at,omitempty"`
	Permissions           map[string]PermissionState `json:"permissions,omitempty"`
	WorkspaceCount        int                        `json:"workspace_count,omitempty"`

	// PendingRename holds the optimistic rename while the backend call is in
	// flight; cleared on confirmation, reverted on failure.
	PendingRename string `json:"pending_rename,omitempty"`
}

// Name returns the effective display name, preferring an in-flight rename.
func (i *Integration) Name() string {
	if i.PendingRename != "" {
		return i.PendingRename
	}

	return i.DisplayName
}

// AISource indicates which credential backs the AI-insights feature.
type AISource string

const (
	AISourceSystem AISource = "system"
	AISourceCustom AISource = "custom"
)

// AIProvider identifies the vendor of a custom AI credential. Only meaningful
// when the source is custom.
type AIProvider string

const (
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOpenAI    AIProvider = "openai"
)

// TokenConfig is the singleton AI-insights credential configuration for one
// user account.
type TokenConfig struct {
	HasToken    bool       `json:"has_token"`
	Source      AISource   `json:"source"`
	Provider    AIProvider `json:"provider,omitempty"`
	TokenSuffix string     `json:"token_suffix,omitempty"`
}

// RawMember is one member record as reported by a single provider, before
// correlation.
type RawMember struct {
	ExternalID  string `json:"external_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// ProviderIdentity is one provider's view of a canonical member.
type ProviderIdentity struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name,omitempty"`
	Matched     bool   `json:"matched"`

	// Manual marks an identity pinned by a manual mapping; manual identities
	// are never overwritten by automatic matches.
	Manual bool `json:"manual,omitempty"`
}

// TeamMember is the canonical deduplicated cross-provider member record,
// keyed by normalized email.
type TeamMember struct {
	NormalizedEmail string                        `json:"normalized_email"`
	DisplayName     string                        `json:"display_name"`
	Identities      map[Provider]ProviderIdentity `json:"per_provider_identity"`
}

// Workspace is one tenant boundary within a provider that exposes more than
// one accessible organization.
type Workspace struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	URL                 string   `json:"url,omitempty"`
	Scopes              []string `json:"scopes,omitempty"`
	IsCurrentlySelected bool     `json:"is_currently_selected"`
}

// Handshake is the client-side record of an in-flight OAuth redirect.
type Handshake struct {
	Provider  Provider  `json:"provider"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
	Consumed  bool      `json:"consumed"`
}

// ManualMapping pins one member email to a provider identity, curated by a
// human and taking precedence over any inferred match.
type ManualMapping struct {
	Email      string   `json:"email"`
	Provider   Provider `json:"provider"`
	ExternalID string   `json:"external_id"`
}

// SyncStats summarizes one member-sync run.
type SyncStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}
