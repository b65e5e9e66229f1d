package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlib/titleparser/internal/cache"
	"github.com/reportlib/titleparser/internal/config"
	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
	"github.com/reportlib/titleparser/internal/pipeline"
)

type fakeSource struct{ records []patternstore.Record }

func (f fakeSource) FetchAll(ctx context.Context) ([]patternstore.Record, error) {
	return f.records, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := observability.DefaultLogger()
	store := patternstore.New(logger)
	records := []patternstore.Record{
		{Type: patternstore.TypeReportType, Term: patternstore.BoundaryMarkerTerm, Subtype: string(patternstore.SubtypeBoundaryMarker), Active: true},
		{Type: patternstore.TypeReportType, Term: "Analysis", Subtype: string(patternstore.SubtypePrimaryKeyword), Active: true},
	}
	require.NoError(t, store.Load(context.Background(), fakeSource{records: records}))

	p := pipeline.New(store, logger)
	cfg := config.DefaultConfig()
	cfg.Pipeline.PerTitleBudget = 250 * time.Millisecond
	return NewRouter(logger, p, cfg, cache.NewMemoryClient(0))
}

func TestParseHandler_RejectsInvalidInput(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"title": ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var result pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, pipeline.StatusInvalidInput, result.Status)
}

func TestParseHandler_StandardTitle(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"title": "Widget Market Analysis"})
	req := httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, pipeline.StatusOK, result.Status)
}

func TestParseHandler_CachesResultAcrossRequests(t *testing.T) {
	logger := observability.DefaultLogger()
	store := patternstore.New(logger)
	records := []patternstore.Record{
		{Type: patternstore.TypeReportType, Term: patternstore.BoundaryMarkerTerm, Subtype: string(patternstore.SubtypeBoundaryMarker), Active: true},
		{Type: patternstore.TypeReportType, Term: "Analysis", Subtype: string(patternstore.SubtypePrimaryKeyword), Active: true},
	}
	require.NoError(t, store.Load(context.Background(), fakeSource{records: records}))

	p := pipeline.New(store, logger)
	cfg := config.DefaultConfig()
	cfg.Pipeline.PerTitleBudget = 250 * time.Millisecond
	resultCache := cache.NewMemoryClient(0)
	router := NewRouter(logger, p, cfg, resultCache)

	body, _ := json.Marshal(map[string]string{"title": "Widget Market Analysis"})

	req1 := httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body))
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusOK, rec1.Code)

	cached, err := resultCache.Get(context.Background(), cache.TitleResultKey("Widget Market Analysis"))
	require.NoError(t, err)

	var cachedResult pipeline.PipelineResult
	require.NoError(t, json.Unmarshal(cached, &cachedResult))
	assert.Equal(t, pipeline.StatusOK, cachedResult.Status)

	req2 := httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.JSONEq(t, rec1.Body.String(), rec2.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
