package library

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Boss Fight":      "boss-fight",
		"  Many   Spaces": "-many-spaces",
		"Ünïcode & Co.":   "ncode--co",
		"会议":              "",
		"already-slug-9":  "already-slug-9",
	}
	for in, want := range tests {
		require.Equal(t, want, Slugify(in), in)
		require.Equal(t, Slugify(in), Slugify(in), "deterministic")
	}
}

func TestNewGroupKeySuffixes(t *testing.T) {
	groups := []Group{{Key: "fx"}, {Key: "fx-1"}}
	require.Equal(t, "fx-2", NewGroupKey("FX", groups))
	require.Equal(t, "new", NewGroupKey("new", groups))
	require.Equal(t, "all-1", NewGroupKey("All", groups))
}

func TestDecodeDocumentVariants(t *testing.T) {
	doc, err := decodeDocument([]byte(`[{"id":1}]`))
	require.NoError(t, err)
	require.Equal(t, formatLegacyArray, doc.format)
	require.Len(t, doc.items, 1)
	require.Equal(t, SeedGroups(), doc.groups)

	doc, err = decodeDocument([]byte(`{"groups":[{"key":"a"}]}`))
	require.NoError(t, err)
	require.Equal(t, formatDocument, doc.format)
	require.Empty(t, doc.items)
	require.Equal(t, []Group{{Key: "a"}}, doc.groups)

	doc, err = decodeDocument([]byte(`{"items":"nope","groups":null}`))
	require.NoError(t, err)
	require.Empty(t, doc.items)
	require.Equal(t, SeedGroups(), doc.groups)

	_, err = decodeDocument([]byte(`"text"`))
	require.Error(t, err)
	_, err = decodeDocument(nil)
	require.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload([]byte(`[{"id":2}]`))
	require.NoError(t, err)
	require.True(t, p.ItemsOnly)

	p, err = ParsePayload([]byte(`{"items":[{"id":2}]}`))
	require.NoError(t, err)
	require.False(t, p.ItemsOnly)
	require.Equal(t, SeedGroups(), p.Groups)

	_, err = ParsePayload([]byte(`{`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestFilterMatchesNameAndDescription(t *testing.T) {
	items := []Item{
		{ID: 1, Name: "Airhorn", Group: "game"},
		{ID: 2, Name: "clap", Description: "Crowd AIR", Group: "meeting"},
		{ID: 3, Name: "drum", Group: "game"},
	}
	require.Len(t, Filter(items, SeedGroups(), KeyAll, "air"), 2)
	require.Len(t, Filter(items, SeedGroups(), "game", "air"), 1)
	require.Len(t, Filter(items, SeedGroups(), "game", ""), 2)
}
