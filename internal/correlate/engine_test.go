package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberops/burnoutctl/internal/model"
)

func TestCorrelateMergesCaseInsensitiveEmails(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "A@x.com", DisplayName: "Ada"},
		},
		model.ProviderSlack: {
			{ExternalID: "sl-1", Email: " a@x.com ", DisplayName: "Ada L."},
		},
	}

	members, stats := Correlate(lists, nil)

	require.Len(t, members, 1)
	member := members[0]
	assert.Equal(t, "a@x.com", member.NormalizedEmail)
	assert.Equal(t, "gh-1", member.Identities[model.ProviderGitHub].ExternalID)
	assert.Equal(t, "sl-1", member.Identities[model.ProviderSlack].ExternalID)
	assert.True(t, member.Identities[model.ProviderGitHub].Matched)
	assert.True(t, member.Identities[model.ProviderSlack].Matched)

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 2, stats.Total)
}

func TestCorrelateIsCommutativeOverInputOrder(t *testing.T) {
	forward := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "ada@x.com", DisplayName: "Ada"},
			{ExternalID: "gh-2", Email: "bob@x.com", DisplayName: "Bob"},
		},
		model.ProviderJira: {
			{ExternalID: "j-2", Email: "bob@x.com", DisplayName: "Robert"},
			{ExternalID: "j-1", Email: "ada@x.com", DisplayName: "Ada L."},
		},
	}
	reversed := map[model.Provider][]model.RawMember{
		model.ProviderJira: {
			{ExternalID: "j-1", Email: "ada@x.com", DisplayName: "Ada L."},
			{ExternalID: "j-2", Email: "bob@x.com", DisplayName: "Robert"},
		},
		model.ProviderGitHub: {
			{ExternalID: "gh-2", Email: "bob@x.com", DisplayName: "Bob"},
			{ExternalID: "gh-1", Email: "ada@x.com", DisplayName: "Ada"},
		},
	}

	a, _ := Correlate(forward, nil)
	b, _ := Correlate(reversed, nil)

	assert.Equal(t, a, b, "result must not depend on input ordering")
}

func TestCorrelateIsIdempotent(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderRootly: {
			{ExternalID: "r-1", Email: "ada@x.com", DisplayName: "Ada"},
		},
	}

	first, _ := Correlate(lists, nil)
	second, _ := Correlate(lists, nil)

	assert.Equal(t, first, second)
}

func TestManualMappingWinsOverInferred(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-wrong", Email: "ada@x.com", DisplayName: "Ada"},
			{ExternalID: "gh-right", Email: "", DisplayName: "Ada Lovelace"},
		},
	}
	manual := []model.ManualMapping{
		{Email: "ada@x.com", Provider: model.ProviderGitHub, ExternalID: "gh-right"},
	}

	members, _ := Correlate(lists, manual)

	require.Len(t, members, 1)
	identity := members[0].Identities[model.ProviderGitHub]
	assert.Equal(t, "gh-right", identity.ExternalID)
	assert.True(t, identity.Manual)
	assert.True(t, identity.Matched)
}

func TestUnmatchedProviderKeptAsUnmatchedSlot(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "ada@x.com", DisplayName: "Ada"},
		},
		model.ProviderSlack: {
			{ExternalID: "sl-9", Email: "someone@else.com", DisplayName: "Someone"},
		},
	}

	members, _ := Correlate(lists, nil)

	require.Len(t, members, 2)

	var ada model.TeamMember

	for _, m := range members {
		if m.NormalizedEmail == "ada@x.com" {
			ada = m
		}
	}

	slot, ok := ada.Identities[model.ProviderSlack]
	require.True(t, ok, "a reporting provider without a match stays visible")
	assert.False(t, slot.Matched)
	assert.Empty(t, slot.ExternalID)
}

func TestOutputSortedByEmail(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-3", Email: "zoe@x.com", DisplayName: "Zoe"},
			{ExternalID: "gh-1", Email: "ada@x.com", DisplayName: "Ada"},
			{ExternalID: "gh-2", Email: "bob@x.com", DisplayName: "Bob"},
		},
	}

	members, _ := Correlate(lists, nil)

	require.Len(t, members, 3)
	assert.Equal(t, "ada@x.com", members[0].NormalizedEmail)
	assert.Equal(t, "bob@x.com", members[1].NormalizedEmail)
	assert.Equal(t, "zoe@x.com", members[2].NormalizedEmail)
}

func TestFuzzyNameFallbackAttachesEmaillessRow(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "john@x.com", DisplayName: "John Smith"},
		},
		model.ProviderJira: {
			{ExternalID: "j-1", Email: "", DisplayName: "Jon Smith"},
		},
	}

	members, stats := Correlate(lists, nil)

	require.Len(t, members, 1)
	identity := members[0].Identities[model.ProviderJira]
	assert.Equal(t, "j-1", identity.ExternalID)
	assert.True(t, identity.Matched)
	assert.Zero(t, stats.Skipped)
}

func TestFuzzyFallbackBelowThresholdSkips(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "john@x.com", DisplayName: "John Smith"},
		},
		model.ProviderJira: {
			{ExternalID: "j-9", Email: "", DisplayName: "Zelda Q"},
		},
	}

	members, stats := Correlate(lists, nil)

	require.Len(t, members, 1)
	assert.False(t, members[0].Identities[model.ProviderJira].Matched)
	assert.Equal(t, 1, stats.Skipped)
}

func TestFuzzyFallbackNeverDisplacesManualPin(t *testing.T) {
	lists := map[model.Provider][]model.RawMember{
		model.ProviderGitHub: {
			{ExternalID: "gh-1", Email: "john@x.com", DisplayName: "John Smith"},
		},
		model.ProviderJira: {
			{ExternalID: "j-pinned", Email: "", DisplayName: "J. Smith (pinned)"},
			{ExternalID: "j-fuzzy", Email: "", DisplayName: "John Smith"},
		},
	}
	manual := []model.ManualMapping{
		{Email: "john@x.com", Provider: model.ProviderJira, ExternalID: "j-pinned"},
	}

	members, _ := Correlate(lists, manual)

	require.Len(t, members, 1)
	identity := members[0].Identities[model.ProviderJira]
	assert.Equal(t, "j-pinned", identity.ExternalID)
	assert.True(t, identity.Manual)
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{name: "identical", a: "John Smith", b: "john smith", min: 1, max: 1},
		{name: "close", a: "Jon Smith", b: "John Smith", min: 0.8, max: 0.99},
		{name: "distant", a: "Zelda Q", b: "John Smith", min: 0, max: 0.4},
		{name: "empty", a: "", b: "John Smith", min: 0, max: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameSimilarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}
