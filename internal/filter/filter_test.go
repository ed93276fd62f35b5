package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geovcs/geovcs/internal/diff"
	"github.com/geovcs/geovcs/internal/model"
)

func TestZeroFilterMatchesEverything(t *testing.T) {
	var f RepositoryFilter
	assert.True(t, f.Matches("anything/at/all", nil))
}

func TestMatchesByPathPrefix(t *testing.T) {
	f := New([]Rule{{Path: "parcels/", Attributes: map[string]string{}}})
	assert.True(t, f.Matches("parcels/lot-1", nil))
	assert.False(t, f.Matches("buildings/tower-1", nil))
}

func TestMatchesByAttributeEquality(t *testing.T) {
	f := New([]Rule{{Path: "parcels/", Attributes: map[string]string{"zone": "residential"}}})
	assert.True(t, f.Matches("parcels/lot-1", map[string]string{"zone": "residential"}))
	assert.False(t, f.Matches("parcels/lot-1", map[string]string{"zone": "commercial"}))
}

func TestFilterChangesReportsSuppression(t *testing.T) {
	f := New([]Rule{{Path: "parcels/", Attributes: map[string]string{}}})
	changes := []diff.Change{
		{Name: "parcels/lot-1", Kind: diff.Added},
		{Name: "buildings/tower-1", Kind: diff.Added},
	}
	kept, filtered := f.FilterChanges(changes)
	require.Len(t, kept, 1)
	assert.Equal(t, "parcels/lot-1", kept[0].Name)
	assert.True(t, filtered)
}

func TestFilterChangesNoSuppressionWhenEverythingMatches(t *testing.T) {
	f := New(nil)
	changes := []diff.Change{{Name: "anything", Kind: diff.Added}}
	kept, filtered := f.FilterChanges(changes)
	assert.Len(t, kept, 1)
	assert.False(t, filtered)
}

func TestEntriesMatching(t *testing.T) {
	f := New([]Rule{{Path: "parcels/", Attributes: map[string]string{}}})
	entries := []model.TreeEntry{
		{Name: "lot-1"},
		{Name: "tower-1"},
	}
	kept := f.EntriesMatching("parcels/", entries)
	require.Len(t, kept, 2, "both entries fall under the parcels/ prefix once joined with their parent path")
}

func TestParseBasicINI(t *testing.T) {
	r := strings.NewReader(`
; a comment
[parcels]
zone = residential

[buildings]
use = commercial
`)
	rules, err := Parse(r)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "parcels", rules[0].Path)
	assert.Equal(t, "residential", rules[0].Attributes["zone"])
	assert.Equal(t, "buildings", rules[1].Path)
	assert.Equal(t, "commercial", rules[1].Attributes["use"])
}

func TestParseSectionWithNoAttributes(t *testing.T) {
	r := strings.NewReader("[parcels]\n[buildings]\n")
	rules, err := Parse(r)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Empty(t, rules[0].Attributes)
}

func TestParseRejectsAttributeOutsideSection(t *testing.T) {
	r := strings.NewReader("zone = residential\n")
	_, err := Parse(r)
	assert.Error(t, err)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	r := strings.NewReader("[parcels]\nnot-a-key-value-line\n")
	_, err := Parse(r)
	assert.Error(t, err)
}

func TestParseFileReadsRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sparse.filter"), []byte("[parcels]\nzone = residential\n"), 0o644))

	rules, err := ParseFile(dir, "sparse.filter")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "parcels", rules[0].Path)
}

func TestParseFileMissingReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := ParseFile(dir, "does-not-exist.filter")
	assert.Error(t, err)
}
