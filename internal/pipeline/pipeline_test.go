package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
)

type fakeSource struct{ records []patternstore.Record }

func (f fakeSource) FetchAll(ctx context.Context) ([]patternstore.Record, error) {
	return f.records, nil
}

// seedRecords covers every record the end-to-end scenarios below need:
// the boundary marker, a handful of report-type keywords, the three
// market_term phrases, and two geographic entities (one plain, one alias+archived-alias
// pair re-used from the C4 boundary-behavior tests).
func seedRecords() []patternstore.Record {
	return []patternstore.Record{
		{Type: patternstore.TypeReportType, Term: patternstore.BoundaryMarkerTerm, Subtype: string(patternstore.SubtypeBoundaryMarker), Active: true},
		{Type: patternstore.TypeReportType, Term: "Analysis", Subtype: string(patternstore.SubtypePrimaryKeyword), Priority: 0, Active: true},
		{Type: patternstore.TypeReportType, Term: "Report", Subtype: string(patternstore.SubtypePrimaryKeyword), Priority: 0, Active: true},
		{Type: patternstore.TypeReportType, Term: "Outlook", Subtype: string(patternstore.SubtypeSecondaryKeyword), Priority: 1, Active: true},
		{Type: patternstore.TypeReportType, Term: "Trends", Subtype: string(patternstore.SubtypeSecondaryKeyword), Priority: 1, Active: true},
		{Type: patternstore.TypeMarketTerm, Term: "Market in", Subtype: "market_in", Active: true},
		{Type: patternstore.TypeMarketTerm, Term: "Market for", Subtype: "market_for", Active: true},
		{Type: patternstore.TypeMarketTerm, Term: "Market by", Subtype: "market_by", Active: true},
		{Type: patternstore.TypeGeographic, Term: "Asia Pacific", Aliases: []string{"APAC"}, Priority: 0, Active: true},
		{Type: patternstore.TypeGeographic, Term: "Idaho", Aliases: []string{"ID"}, ArchivedAliases: []string{"ID"}, Priority: 1, Active: true},
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	logger := observability.DefaultLogger()
	store := patternstore.New(logger)
	require.NoError(t, store.Load(context.Background(), fakeSource{records: seedRecords()}))
	return New(store, logger)
}

func TestPipeline_StandardScenario(t *testing.T) {
	p := newTestPipeline(t)
	res := p.Run(context.Background(), "APAC Personal Protective Equipment Market Analysis, 2024-2029")

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "standard", res.MarketTermType)
	assert.Equal(t, "2024-2029", res.ExtractedDateRange)
	assert.Equal(t, "Market Analysis", res.ExtractedReportType)
	assert.Equal(t, []string{"Asia Pacific"}, res.ExtractedRegions)
	assert.Equal(t, "Personal Protective Equipment", res.Topic)
	assert.Equal(t, "personal-protective-equipment", res.TopicName)
}

func TestPipeline_MarketInScenario(t *testing.T) {
	p := newTestPipeline(t)
	res := p.Run(context.Background(), "Artificial Intelligence (AI) Market in Automotive Outlook & Trends, 2025-2035")

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "market_in", res.MarketTermType)
	assert.Equal(t, "2025-2035", res.ExtractedDateRange)
	assert.Equal(t, "Market Outlook & Trends", res.ExtractedReportType)
	assert.Empty(t, res.ExtractedRegions)
	assert.Equal(t, "Artificial Intelligence (AI) in Automotive", res.Topic)
	assert.Equal(t, "artificial-intelligence-ai-in-automotive", res.TopicName)
}

func TestPipeline_BareMarketRoundTrip(t *testing.T) {
	p := newTestPipeline(t)
	res := p.Run(context.Background(), "Renewable Energy Market")

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "Market", res.ExtractedReportType)
	assert.Empty(t, res.ExtractedRegions)
	assert.Empty(t, res.ExtractedDateRange)
	assert.Equal(t, "Renewable Energy", res.Topic)
}

func TestPipeline_ArchivedAliasNeverMatches(t *testing.T) {
	p := newTestPipeline(t)
	res := p.Run(context.Background(), "ID card printer Market")

	assert.Equal(t, StatusOK, res.Status)
	assert.NotContains(t, res.ExtractedRegions, "Idaho")
}

func TestPipeline_InvalidInput(t *testing.T) {
	p := newTestPipeline(t)
	res := p.Run(context.Background(), "Bad\x00Title Market")

	assert.Equal(t, StatusInvalidInput, res.Status)
}

func TestPipeline_Timeout(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	time.Sleep(time.Millisecond)

	res := p.Run(ctx, "Renewable Energy Market")
	assert.Equal(t, StatusTimeout, res.Status)
}

func TestWorkerPool_PreservesInputOrder(t *testing.T) {
	p := newTestPipeline(t)
	wp := NewWorkerPool(p, 2, 250*time.Millisecond)

	titles := []string{
		"APAC Personal Protective Equipment Market Analysis, 2024-2029",
		"Renewable Energy Market",
		"ID card printer Market",
	}
	run := wp.Process(context.Background(), titles)

	require.Len(t, run.Results, 3)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, []string{"Asia Pacific"}, run.Results[0].ExtractedRegions)
	assert.Equal(t, "Market", run.Results[1].ExtractedReportType)
	assert.NotContains(t, run.Results[2].ExtractedRegions, "Idaho")
}
