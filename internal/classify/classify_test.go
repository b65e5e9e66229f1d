package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
)

type fakeSource struct{ records []patternstore.Record }

func (f fakeSource) FetchAll(ctx context.Context) ([]patternstore.Record, error) {
	return f.records, nil
}

func marketTermRecords() []patternstore.Record {
	return []patternstore.Record{
		{Type: patternstore.TypeMarketTerm, Term: "Market for", Active: true, Priority: 0},
		{Type: patternstore.TypeMarketTerm, Term: "Market in", Active: true, Priority: 0},
		{Type: patternstore.TypeMarketTerm, Term: "Market by", Active: true, Priority: 0},
		{
			Type: patternstore.TypeReportType, Term: patternstore.BoundaryMarkerTerm,
			Subtype: string(patternstore.SubtypeBoundaryMarker), Active: true,
		},
	}
}

func newTestStore(t *testing.T) *patternstore.Store {
	t.Helper()
	store := patternstore.New(observability.DefaultLogger())
	require.NoError(t, store.Load(context.Background(), fakeSource{records: marketTermRecords()}))
	return store
}

func TestClassifier_Standard(t *testing.T) {
	c := New(newTestStore(t))
	res := c.Run("Europe In Vitro Diagnostics Market Size, Share Report, 2030")
	assert.Equal(t, Standard, res.MarketTermType)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestClassifier_MarketIn(t *testing.T) {
	c := New(newTestStore(t))
	res := c.Run("Artificial Intelligence (AI) Market in Automotive Outlook & Trends, 2025-2035")
	assert.Equal(t, MarketIn, res.MarketTermType)
	assert.Equal(t, 0.95, res.Confidence)
	assert.Equal(t, "Market in", res.MatchedPhrase)
}

func TestClassifier_CompoundWordsDoNotMatch(t *testing.T) {
	c := New(newTestStore(t))
	res := c.Run("Aftermarket Auto Parts Industry Report, 2029")
	assert.Equal(t, Standard, res.MarketTermType)
}

func TestClassifier_MarketForecastDoesNotMatchMarketFor(t *testing.T) {
	c := New(newTestStore(t))
	res := c.Run("Global Widgets Market forecast to 2030")
	assert.Equal(t, Standard, res.MarketTermType)
}

func TestClassifier_DoesNotModifyTitle(t *testing.T) {
	c := New(newTestStore(t))
	title := "Retail Market in Singapore - Size, Outlook & Statistics"
	res := c.Run(title)
	assert.Equal(t, title, res.Title)
}
