// Package correlate deduplicates per-provider member lists into canonical
// team members keyed by normalized email, with manual mappings taking
// precedence and a fuzzy display-name fallback for rows without an email.
package correlate

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/emberops/burnoutctl/internal/model"
)

// NameMatchThreshold is the minimum display-name similarity for the fuzzy
// fallback to attach an email-less row to an existing member.
const NameMatchThreshold = 0.70

// orphan is a provider row without an email, held back for the fuzzy
// display-name fallback.
type orphan struct {
	provider model.Provider
	member   model.RawMember
}

// NormalizeEmail lowercases and trims an address. Two rows whose emails
// differ only in case or surrounding whitespace are the same person.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameSimilarity scores two display names in [0,1]. Case and surrounding
// whitespace are ignored.
func nameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}

	if a == b {
		return 1
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	dist := levenshtein.ComputeDistance(a, b)

	return 1 - float64(dist)/float64(longest)
}

// Correlate merges per-provider member lists into deduplicated team members.
// The result is deterministic: independent of map iteration order and of the
// ordering within each provider list, sorted ascending by normalized email.
func Correlate(providerLists map[model.Provider][]model.RawMember, manual []model.ManualMapping) ([]model.TeamMember, model.SyncStats) {
	var stats model.SyncStats

	groups := make(map[string]*model.TeamMember)

	// Canonical provider order plus sorted rows per provider make the merge
	// commutative over input orderings.
	var orphans []orphan

	for _, provider := range model.Providers {
		rows, ok := providerLists[provider]
		if !ok {
			continue
		}

		sorted := make([]model.RawMember, len(rows))
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExternalID < sorted[j].ExternalID })

		for _, row := range sorted {
			stats.Total++

			email := NormalizeEmail(row.Email)
			if email == "" {
				orphans = append(orphans, orphan{provider: provider, member: row})

				continue
			}

			member, exists := groups[email]
			if !exists {
				member = &model.TeamMember{
					NormalizedEmail: email,
					Identities:      make(map[model.Provider]model.ProviderIdentity),
				}
				groups[email] = member
				stats.Created++
			} else {
				stats.Updated++
			}

			if member.DisplayName == "" {
				member.DisplayName = row.DisplayName
			}

			// First row per provider slot wins; later rows for the same
			// address and provider are duplicates from that provider's side.
			if _, taken := member.Identities[provider]; !taken {
				member.Identities[provider] = model.ProviderIdentity{
					ExternalID:  row.ExternalID,
					DisplayName: row.DisplayName,
					Matched:     true,
				}
			}
		}
	}

	applyManual(groups, providerLists, manual, &stats)
	attachOrphans(groups, orphans, &stats)

	members := make([]model.TeamMember, 0, len(groups))
	for _, member := range groups {
		// Providers that reported members but contributed nothing to this
		// person stay visible as unmatched slots.
		for _, provider := range model.Providers {
			if _, reported := providerLists[provider]; !reported {
				continue
			}

			if _, ok := member.Identities[provider]; !ok {
				member.Identities[provider] = model.ProviderIdentity{Matched: false}
			}
		}

		members = append(members, *member)
	}

	sort.Slice(members, func(i, j int) bool { return members[i].NormalizedEmail < members[j].NormalizedEmail })

	return members, stats
}

// applyManual pins curated identities over anything the automatic merge
// produced for the same provider slot.
func applyManual(groups map[string]*model.TeamMember, providerLists map[model.Provider][]model.RawMember, manual []model.ManualMapping, stats *model.SyncStats) {
	sorted := make([]model.ManualMapping, len(manual))
	copy(sorted, manual)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Email != sorted[j].Email {
			return sorted[i].Email < sorted[j].Email
		}

		return sorted[i].Provider < sorted[j].Provider
	})

	for _, m := range sorted {
		email := NormalizeEmail(m.Email)
		if email == "" || m.ExternalID == "" {
			continue
		}

		member, exists := groups[email]
		if !exists {
			member = &model.TeamMember{
				NormalizedEmail: email,
				Identities:      make(map[model.Provider]model.ProviderIdentity),
			}
			groups[email] = member
			stats.Created++
		}

		identity := model.ProviderIdentity{
			ExternalID: m.ExternalID,
			Matched:    true,
			Manual:     true,
		}

		// Carry the display name of the pinned row when the provider
		// reported it.
		for _, row := range providerLists[m.Provider] {
			if row.ExternalID == m.ExternalID {
				identity.DisplayName = row.DisplayName

				if member.DisplayName == "" {
					member.DisplayName = row.DisplayName
				}

				break
			}
		}

		member.Identities[m.Provider] = identity
	}
}

// attachOrphans fuzzy-matches email-less rows against existing members by
// display name. A manual identity is never displaced; rows below the
// threshold are counted as skipped.
func attachOrphans(groups map[string]*model.TeamMember, orphans []orphan, stats *model.SyncStats) {
	emails := make([]string, 0, len(groups))
	for email := range groups {
		emails = append(emails, email)
	}

	sort.Strings(emails)

	for _, o := range orphans {
		var (
			bestEmail string
			bestScore float64
		)

		for _, email := range emails {
			score := nameSimilarity(groups[email].DisplayName, o.member.DisplayName)
			if score > bestScore {
				bestScore = score
				bestEmail = email
			}
		}

		if bestScore < NameMatchThreshold {
			stats.Skipped++

			continue
		}

		member := groups[bestEmail]
		if existing, ok := member.Identities[o.provider]; ok && (existing.Manual || existing.Matched) {
			stats.Skipped++

			continue
		}

		member.Identities[o.provider] = model.ProviderIdentity{
			ExternalID:  o.member.ExternalID,
			DisplayName: o.member.DisplayName,
			Matched:     true,
		}
		stats.Updated++
	}
}
