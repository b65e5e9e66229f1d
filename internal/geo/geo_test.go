package geo

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
)

type fakeSource struct{ records []patternstore.Record }

func (f fakeSource) FetchAll(ctx context.Context) ([]patternstore.Record, error) {
	return f.records, nil
}

func geoRecords() []patternstore.Record {
	return []patternstore.Record{
		{Type: patternstore.TypeGeographic, Term: "United States", Aliases: []string{"U.S.", "US", "USA"}, Priority: 0, Active: true},
		{Type: patternstore.TypeGeographic, Term: "Middle East and Africa", Priority: 0, Active: true},
		{Type: patternstore.TypeGeographic, Term: "Europe", Priority: 1, Active: true},
		{Type: patternstore.TypeGeographic, Term: "Singapore", Priority: 1, Active: true},
		{Type: patternstore.TypeGeographic, Term: "Idaho", Aliases: []string{"ID"}, ArchivedAliases: []string{"ID"}, Priority: 1, Active: true},
		// boundary marker required for patternstore.Load to succeed
		{Type: patternstore.TypeReportType, Term: patternstore.BoundaryMarkerTerm, Subtype: string(patternstore.SubtypeBoundaryMarker), Active: true},
	}
}

func newTestStore(t *testing.T) *patternstore.Store {
	t.Helper()
	store := patternstore.New(observability.DefaultLogger())
	require.NoError(t, store.Load(context.Background(), fakeSource{records: geoRecords()}))
	return store
}

func TestExtractor_SimpleRegion(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Retail in Singapore")
	assert.Equal(t, []string{"Singapore"}, res.ExtractedRegions)
	assert.Equal(t, "Retail", res.Title)
}

func TestExtractor_CompoundRegionPreferredOverSimple(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Energy Drinks Market in Middle East and Africa")
	assert.Equal(t, []string{"Middle East and Africa"}, res.ExtractedRegions)
	assert.NotContains(t, res.Title, "Africa")
}

func TestExtractor_ArchivedAliasDoesNotMatch(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("ID Potato Market Report")
	assert.NotContains(t, res.ExtractedRegions, "Idaho")
}

func TestExtractor_SeparatorWordConsumedWithSecondMatch(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("U.S. And Europe Digital Pathology")
	assert.ElementsMatch(t, []string{"United States", "Europe"}, res.ExtractedRegions)
	assert.Equal(t, "Digital Pathology", res.Title)
}

func TestExtractor_NoRegionMatched(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Global Widgets Market")
	assert.Empty(t, res.ExtractedRegions)
	assert.Equal(t, 0.80, res.Confidence)
}

// TestExtractor_RegionOrderFollowsPatternPriorityNotTitlePosition asserts
// the exact, order-sensitive shape of extracted_regions: regions are
// appended in pattern priority order (longest-term-first within a
// priority band), not the left-to-right order they appear in the title
// — "Singapore" (priority 1, 9 chars) is scanned before "Europe"
// (priority 1, 6 chars) even though Europe comes first in the title.
// ElementsMatch above would hide a regression in this ordering.
func TestExtractor_RegionOrderFollowsPatternPriorityNotTitlePosition(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Europe and Singapore Smart Home Market")

	want := []string{"Singapore", "Europe"}
	if diff := cmp.Diff(want, res.ExtractedRegions); diff != "" {
		t.Errorf("extracted_regions mismatch (-want +got):\n%s", diff)
	}
}
