package monitoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/pipeline"
)

func TestAuditLogger_RecentNewestFirst(t *testing.T) {
	a := NewAuditLogger(observability.DefaultLogger(), nil, 10)
	ctx := context.Background()

	assert.NoError(t, a.LogResult(ctx, "first title", pipeline.PipelineResult{Status: pipeline.StatusOK}))
	assert.NoError(t, a.LogResult(ctx, "second title", pipeline.PipelineResult{Status: pipeline.StatusTimeout}))

	recent := a.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, pipeline.StatusTimeout, recent[0].Status)
	assert.Equal(t, pipeline.StatusOK, recent[1].Status)
}

func TestAuditLogger_LastErrorsFiltersOK(t *testing.T) {
	a := NewAuditLogger(observability.DefaultLogger(), nil, 10)
	ctx := context.Background()

	assert.NoError(t, a.LogResult(ctx, "ok title", pipeline.PipelineResult{Status: pipeline.StatusOK}))
	assert.NoError(t, a.LogResult(ctx, "bad title", pipeline.PipelineResult{Status: pipeline.StatusInvalidInput}))

	errs := a.LastErrors(5)
	assert.Len(t, errs, 1)
	assert.Equal(t, pipeline.StatusInvalidInput, errs[0].Status)
}

func TestAuditLogger_RingWrapsAtCapacity(t *testing.T) {
	a := NewAuditLogger(observability.DefaultLogger(), nil, 2)
	ctx := context.Background()

	assert.NoError(t, a.LogResult(ctx, "one", pipeline.PipelineResult{Status: pipeline.StatusOK}))
	assert.NoError(t, a.LogResult(ctx, "two", pipeline.PipelineResult{Status: pipeline.StatusOK}))
	assert.NoError(t, a.LogResult(ctx, "three", pipeline.PipelineResult{Status: pipeline.StatusTimeout}))

	recent := a.Recent(10)
	assert.Len(t, recent, 2)
	assert.Equal(t, pipeline.StatusTimeout, recent[0].Status)
}
