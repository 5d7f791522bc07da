// Package cache provides the two client-side state scopes: a durable
// key/value store that survives restarts (integration status, member
// snapshots, the sealed bearer credential) and a session scope that lives
// for one process run (OAuth anti-replay state, callback reentrancy lock).
package cache

import (
	"time"

	"github.com/emberops/burnoutctl/internal/model"
)

// credentialKey is the durable-store key under which the sealed bearer
// credential is kept.
const credentialKey = "credential"

// MemberSnapshot is the cached result of one correlation run for an
// organization, recorded with the providers that contributed to it so a
// provider-level invalidation can find it.
type MemberSnapshot struct {
	// SyncID identifies the correlation run that produced this snapshot,
	// for tracing a cached result back to its sync in the logs.
	SyncID string `json:"sync_id"`

	OrgID     string             `json:"org_id"`
	Providers []model.Provider   `json:"providers"`
	Members   []model.TeamMember `json:"members"`
	SyncedAt  time.Time          `json:"synced_at"`

	// Raw keeps the per-provider rows the correlation ran over, so a manual
	// mapping change can re-merge one member group without a refetch.
	Raw map[model.Provider][]model.RawMember `json:"raw,omitempty"`

	// Manual holds the curated identity pins in effect for this snapshot.
	Manual []model.ManualMapping `json:"manual,omitempty"`
}

// ContributedBy reports whether p contributed rows to this snapshot.
func (s *MemberSnapshot) ContributedBy(p model.Provider) bool {
	for _, sp := range s.Providers {
		if sp == p {
			return true
		}
	}

	return false
}

// Durable is the restart-surviving cache scope. Writers are the owning
// controllers only, and only after backend confirmation unless an operation
// is explicitly optimistic.
type Durable interface {
	GetIntegration(provider model.Provider) (*model.Integration, error)
	PutIntegration(integration *model.Integration) error
	DeleteIntegration(provider model.Provider) error
	Integrations() ([]model.Integration, error)

	GetMembers(orgID string) (*MemberSnapshot, error)
	PutMembers(snapshot *MemberSnapshot) error
	DeleteMembers(orgID string) error

	// InvalidateProvider removes the provider's integration entry and every
	// member snapshot the provider contributed to. A workspace switch changes
	// the data universe entirely, so nothing tied to the provider survives.
	InvalidateProvider(provider model.Provider) error

	// Credential is the bearer session credential, sealed at rest.
	Credential() (string, error)
	PutCredential(token string) error
	DeleteCredential() error

	Close() error
}
