package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMixedDocument(t *testing.T) {
	input := `## Burnout risk

The on-call load for this sprint is concentrated
on two engineers.

- Ada: 14 pages
- Bob: 11 pages

1. Rebalance the rotation
2. Add a shadow

` + "```json\n{\"severity\": \"high\"}\n```"

	blocks, err := ParseString(input)
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	assert.Equal(t, KindHeading, blocks[0].Kind)
	assert.Equal(t, 2, blocks[0].Level)
	assert.Equal(t, "Burnout risk", blocks[0].Text)

	assert.Equal(t, KindParagraph, blocks[1].Kind)
	assert.Equal(t, "The on-call load for this sprint is concentrated on two engineers.", blocks[1].Text,
		"soft line breaks collapse into one paragraph")

	assert.Equal(t, KindList, blocks[2].Kind)
	assert.False(t, blocks[2].Ordered)
	assert.Equal(t, []string{"Ada: 14 pages", "Bob: 11 pages"}, blocks[2].Items)

	assert.Equal(t, KindList, blocks[3].Kind)
	assert.True(t, blocks[3].Ordered)
	assert.Equal(t, []string{"Rebalance the rotation", "Add a shadow"}, blocks[3].Items)

	assert.Equal(t, KindCode, blocks[4].Kind)
	assert.Equal(t, "json", blocks[4].Language)
	assert.Equal(t, []string{`{"severity": "high"}`}, blocks[4].Lines)
}

func TestParseAdjacentListsOfDifferentKindsSplit(t *testing.T) {
	blocks, err := ParseString("- one\n1. two\n- three\n")
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.False(t, blocks[0].Ordered)
	assert.True(t, blocks[1].Ordered)
	assert.False(t, blocks[2].Ordered)
}

func TestParseUnterminatedFenceKeepsLines(t *testing.T) {
	blocks, err := ParseString("```\nline one\nline two")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	assert.Equal(t, KindCode, blocks[0].Kind)
	assert.Equal(t, []string{"line one", "line two"}, blocks[0].Lines)
}

func TestParsePlainTextIsOneParagraph(t *testing.T) {
	blocks, err := ParseString("just a sentence")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
}

func TestParseEmptyInput(t *testing.T) {
	blocks, err := ParseString("")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParseHashWithoutSpaceIsParagraph(t *testing.T) {
	blocks, err := ParseString("#nospace")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindParagraph, blocks[0].Kind)
}
