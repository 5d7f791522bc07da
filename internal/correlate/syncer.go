package correlate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberops/burnoutctl/internal/apperr"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/model"
	"github.com/emberops/burnoutctl/internal/notify"
)

// Backend is the slice of the API client the syncer consumes.
type Backend interface {
	PlatformMembers(ctx context.Context, provider model.Provider) ([]model.RawMember, error)
	CreateManualMapping(ctx context.Context, provider model.Provider, email, externalID string) error
	RemoveMapping(ctx context.Context, provider model.Provider, email string) error
}

// Syncer runs correlation over live provider data and keeps the cached
// member snapshot for an organization current.
type Syncer struct {
	backend  Backend
	durable  cache.Durable
	notifier *notify.Dispatcher
	logger   *slog.Logger

	mu sync.Mutex
}

// NewSyncer creates a syncer over the given backend and durable cache.
func NewSyncer(backend Backend, durable cache.Durable, notifier *notify.Dispatcher, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}

	if notifier == nil {
		notifier = notify.NewDispatcher()
	}

	return &Syncer{
		backend:  backend,
		durable:  durable,
		notifier: notifier,
		logger:   logger,
	}
}

// Sync fetches raw member rows from each provider, correlates them and
// replaces the organization's cached snapshot. Providers the backend does
// not know (not connected) are skipped with a warning rather than failing
// the run. The snapshot is written only after correlation succeeds.
func (s *Syncer) Sync(ctx context.Context, orgID string, providers []model.Provider) (*cache.MemberSnapshot, model.SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := make(map[model.Provider][]model.RawMember)

	var fetched []model.Provider

	for _, provider := range providers {
		if !model.ValidProvider(provider) {
			return nil, model.SyncStats{}, &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
		}

		rows, err := s.backend.PlatformMembers(ctx, provider)
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("provider not connected, skipping member sync", "provider", provider)

			continue
		}

		if err != nil {
			return nil, model.SyncStats{}, err
		}

		lists[provider] = rows
		fetched = append(fetched, provider)
	}

	// Curated pins survive re-syncs.
	var manual []model.ManualMapping
	if existing, err := s.durable.GetMembers(orgID); err == nil && existing != nil {
		manual = existing.Manual
	}

	members, stats := Correlate(lists, manual)

	snapshot := &cache.MemberSnapshot{
		SyncID:    uuid.NewString(),
		OrgID:     orgID,
		Providers: fetched,
		Members:   members,
		SyncedAt:  time.Now().UTC(),
		Raw:       lists,
		Manual:    manual,
	}

	if err := s.durable.PutMembers(snapshot); err != nil {
		return nil, model.SyncStats{}, fmt.Errorf("store member snapshot: %w", err)
	}

	s.logger.Debug("member sync complete",
		"sync_id", snapshot.SyncID,
		"org", orgID,
		"members", len(members),
		"skipped", stats.Skipped)

	s.notifier.Dispatch(ctx, notify.NewEvent(notify.EventMembersSynced).
		WithMessage(fmt.Sprintf("synced %d members for %s (%d created, %d updated, %d skipped)",
			len(members), orgID, stats.Created, stats.Updated, stats.Skipped)))

	return snapshot, stats, nil
}

// Members returns the cached snapshot for an organization.
func (s *Syncer) Members(orgID string) (*cache.MemberSnapshot, error) {
	snapshot, err := s.durable.GetMembers(orgID)
	if err != nil {
		return nil, err
	}

	if snapshot == nil {
		return nil, apperr.ErrNotFound
	}

	return snapshot, nil
}

// AddMapping records a curated identity pin server-side, then re-merges only
// the affected member group in the organization's cached snapshot. Other
// organizations' snapshots are untouched.
func (s *Syncer) AddMapping(ctx context.Context, orgID string, m model.ManualMapping) error {
	if !model.ValidProvider(m.Provider) {
		return &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", m.Provider)}
	}

	email := NormalizeEmail(m.Email)
	if email == "" {
		return &apperr.ValidationError{Field: "email", Reason: "must not be empty"}
	}

	if m.ExternalID == "" {
		return &apperr.ValidationError{Field: "external_id", Reason: "must not be empty"}
	}

	m.Email = email

	// Server first; the cache only reflects confirmed state.
	if err := s.backend.CreateManualMapping(ctx, m.Provider, email, m.ExternalID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.durable.GetMembers(orgID)
	if err != nil || snapshot == nil {
		// Nothing cached for this organization; the next sync picks the
		// mapping up from the server.
		return nil
	}

	snapshot.Manual = upsertMapping(snapshot.Manual, m)
	remergeGroup(snapshot, email)

	return s.durable.PutMembers(snapshot)
}

// DropMapping removes a curated pin server-side and re-merges the affected
// group, restoring whatever the automatic match would produce.
func (s *Syncer) DropMapping(ctx context.Context, orgID string, provider model.Provider, rawEmail string) error {
	if !model.ValidProvider(provider) {
		return &apperr.ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	email := NormalizeEmail(rawEmail)
	if email == "" {
		return &apperr.ValidationError{Field: "email", Reason: "must not be empty"}
	}

	if err := s.backend.RemoveMapping(ctx, provider, email); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.durable.GetMembers(orgID)
	if err != nil || snapshot == nil {
		return nil
	}

	kept := snapshot.Manual[:0]

	for _, existing := range snapshot.Manual {
		if NormalizeEmail(existing.Email) == email && existing.Provider == provider {
			continue
		}

		kept = append(kept, existing)
	}

	snapshot.Manual = kept
	remergeGroup(snapshot, email)

	return s.durable.PutMembers(snapshot)
}

// upsertMapping replaces a pin for the same email+provider slot or appends.
func upsertMapping(manual []model.ManualMapping, m model.ManualMapping) []model.ManualMapping {
	for i, existing := range manual {
		if NormalizeEmail(existing.Email) == m.Email && existing.Provider == m.Provider {
			manual[i] = m

			return manual
		}
	}

	return append(manual, m)
}

// remergeGroup recomputes one member group from the snapshot's retained raw
// rows and pins, leaving every other group untouched.
func remergeGroup(snapshot *cache.MemberSnapshot, email string) {
	// Narrow the inputs to rows and pins belonging to this address.
	lists := make(map[model.Provider][]model.RawMember, len(snapshot.Raw))

	for provider, rows := range snapshot.Raw {
		var scoped []model.RawMember

		for _, row := range rows {
			if NormalizeEmail(row.Email) == email {
				scoped = append(scoped, row)
			}
		}

		// Keep the provider key even when empty so unmatched slots stay
		// flagged for this group.
		lists[provider] = scoped
	}

	var pins []model.ManualMapping

	pinned := make(map[model.Provider][]model.RawMember)

	for _, m := range snapshot.Manual {
		if NormalizeEmail(m.Email) != email {
			continue
		}

		pins = append(pins, m)

		// A pin may point at a row that carries no email; surface that row
		// to the merge so the display name is recoverable.
		for _, row := range snapshot.Raw[m.Provider] {
			if row.ExternalID == m.ExternalID {
				pinned[m.Provider] = append(pinned[m.Provider], row)
			}
		}
	}

	for provider, rows := range pinned {
		lists[provider] = append(lists[provider], rows...)
	}

	merged, _ := Correlate(lists, pins)

	var (
		member    model.TeamMember
		hasMember bool
	)

	for _, candidate := range merged {
		if candidate.NormalizedEmail == email {
			member = candidate
			hasMember = true

			break
		}
	}

	idx := sort.Search(len(snapshot.Members), func(i int) bool {
		return snapshot.Members[i].NormalizedEmail >= email
	})
	found := idx < len(snapshot.Members) && snapshot.Members[idx].NormalizedEmail == email

	if !hasMember {
		if found {
			snapshot.Members = append(snapshot.Members[:idx], snapshot.Members[idx+1:]...)
		}

		return
	}

	if found {
		snapshot.Members[idx] = member

		return
	}

	snapshot.Members = append(snapshot.Members, model.TeamMember{})
	copy(snapshot.Members[idx+1:], snapshot.Members[idx:])
	snapshot.Members[idx] = member
}
