package reporttype

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

func dictionaryRecords() []patternstore.Record {
	mk := func(term, subtype string) patternstore.Record {
		return patternstore.Record{
			Type: patternstore.TypeReportType, Term: term, Subtype: subtype, Active: true,
		}
	}
	return []patternstore.Record{
		mk("Market", string(patternstore.SubtypeBoundaryMarker)),
		mk("Size", string(patternstore.SubtypePrimaryKeyword)),
		mk("Share", string(patternstore.SubtypePrimaryKeyword)),
		mk("Growth", string(patternstore.SubtypePrimaryKeyword)),
		mk("Trends", string(patternstore.SubtypePrimaryKeyword)),
		mk("Analysis", string(patternstore.SubtypePrimaryKeyword)),
		mk("Report", string(patternstore.SubtypePrimaryKeyword)),
		mk("Industry", string(patternstore.SubtypeSecondaryKeyword)),
		mk("Study", string(patternstore.SubtypeSecondaryKeyword)),
		mk("Outlook", string(patternstore.SubtypeSecondaryKeyword)),
		mk("Forecast", string(patternstore.SubtypeSecondaryKeyword)),
		mk("Statistics", string(patternstore.SubtypeSecondaryKeyword)),
	}
}

func newTestStore(t *testing.T) *patternstore.Store {
	t.Helper()
	store := patternstore.New(observability.DefaultLogger())
	require.NoError(t, store.Load(context.Background(), fakeSource{records: dictionaryRecords()}))
	return store
}

func TestExtractor_StandardWorkflow(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("APAC Personal Protective Equipment Market Analysis", Standard)
	assert.Equal(t, "Market Analysis", res.ExtractedReportType)
	assert.Equal(t, "APAC Personal Protective Equipment", res.Title)
	assert.True(t, res.MarketBoundaryDetected)
}

func TestExtractor_PreservesAcronymBetweenKeywords(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Real-Time Locating Systems Market Size, RTLS Industry Report", Standard)
	assert.Equal(t, "Market Size Industry Report", res.ExtractedReportType)
	assert.Equal(t, "Real-Time Locating Systems RTLS", res.Title)
}

func TestExtractor_LoneAmpersandSurvivesReconstruction(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Artificial Intelligence (AI) Market in Automotive Outlook & Trends", MarketIn)
	assert.Equal(t, "Market Outlook & Trends", res.ExtractedReportType)
	assert.Equal(t, "Artificial Intelligence (AI) in Automotive", res.Title)
}

func TestExtractor_MixedSeparatorsNormalize(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Retail Market in Singapore - Size, Outlook & Statistics", MarketIn)
	assert.Equal(t, "Market Size Outlook Statistics", res.ExtractedReportType)
	assert.Equal(t, "Retail in Singapore", res.Title)
}

func TestExtractor_NoMarketBoundary(t *testing.T) {
	e := New(newTestStore(t))
	res := e.Run("Aftermarket Auto Parts Growth Analysis", Standard)
	assert.False(t, res.MarketBoundaryDetected)
}
