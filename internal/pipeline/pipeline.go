// Package pipeline orchestrates the five extraction stages (C1…C5) over
// a single title, and fans that out across many titles with a bounded
// worker pool (spec.md §5).
package pipeline

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/reportlib/titleparser/internal/classify"
	"github.com/reportlib/titleparser/internal/dateextract"
	"github.com/reportlib/titleparser/internal/geo"
	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/patternstore"
	"github.com/reportlib/titleparser/internal/reporttype"
	"github.com/reportlib/titleparser/internal/topic"
)

// Status values for PipelineResult.Status (spec.md §6.3).
const (
	StatusOK           = "ok"
	StatusTimeout      = "timeout"
	StatusInvalidInput = "invalid_input"
)

// ConfidenceScores carries each stage's confidence, per spec.md §6.3.
type ConfidenceScores struct {
	Classification float64 `json:"classification"`
	Date           float64 `json:"date"`
	ReportType     float64 `json:"report_type"`
	Geographic     float64 `json:"geographic"`
	Topic          float64 `json:"topic"`
}

// PipelineResult is the full per-title output, per spec.md §6.3.
type PipelineResult struct {
	OriginalTitle       string           `json:"original_title"`
	MarketTermType      string           `json:"market_term_type"`
	ExtractedDateRange  string           `json:"extracted_date_range,omitempty"`
	ExtractedReportType string           `json:"extracted_report_type,omitempty"`
	ExtractedRegions    []string         `json:"extracted_regions"`
	Topic               string           `json:"topic"`
	TopicName           string           `json:"topic_name"`
	ConfidenceScores    ConfidenceScores `json:"confidence_scores"`
	ProcessingNotes     []string         `json:"processing_notes"`
	Status              string           `json:"status"`
}

// Pipeline wires the Pattern Library Store to the five extraction
// stages and runs them in sequence over one title at a time, mirroring
// the teacher's ingest.Pipeline, which owns a *Parser and runs
// metadata -> tables -> chunks in sequence.
type Pipeline struct {
	store      *patternstore.Store
	classifier *classify.Classifier
	dates      *dateextract.Extractor
	reports    *reporttype.Extractor
	geos       *geo.Extractor
	topics     *topic.Normalizer
	logger     *observability.Logger
}

// New builds a Pipeline bound to store. store must already be loaded.
func New(store *patternstore.Store, logger *observability.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		classifier: classify.New(store),
		dates:      dateextract.New(),
		reports:    reporttype.New(store),
		geos:       geo.New(store),
		topics:     topic.New(),
		logger:     logger,
	}
}

// Run processes a single title through C1…C5, honoring ctx's deadline
// as the per-title budget (spec.md §5). Stage panics are converted into
// per-title-recoverable notes rather than propagated (spec.md §7).
func (p *Pipeline) Run(ctx context.Context, title string) PipelineResult {
	if err := validateInput(title); err != nil {
		return PipelineResult{
			OriginalTitle:   title,
			Status:          StatusInvalidInput,
			ProcessingNotes: []string{err.Error()},
		}
	}

	result := PipelineResult{
		OriginalTitle:    title,
		ExtractedRegions: []string{},
		Status:           StatusOK,
	}
	var notes []string
	remaining := title

	// C1 — Classifier.
	if ctx.Err() != nil {
		return timedOut(result, notes)
	}
	c1 := p.runClassify(remaining)
	result.MarketTermType = string(c1.MarketTermType)
	result.ConfidenceScores.Classification = c1.Confidence
	notes = append(notes, c1.Notes...)

	// C2 — Date Extractor.
	if ctx.Err() != nil {
		return timedOut(result, notes)
	}
	c2 := p.runDates(remaining)
	remaining = c2.Title
	result.ExtractedDateRange = c2.ExtractedDateRange
	result.ConfidenceScores.Date = c2.Confidence
	notes = append(notes, c2.Notes...)

	// C3 — Report-Type Extractor.
	if ctx.Err() != nil {
		return timedOut(result, notes)
	}
	c3 := p.runReportType(remaining, result.MarketTermType)
	remaining = c3.Title
	result.ExtractedReportType = c3.ExtractedReportType
	result.ConfidenceScores.ReportType = c3.Confidence
	notes = append(notes, c3.Notes...)

	// C4 — Geographic Extractor.
	if ctx.Err() != nil {
		return timedOut(result, notes)
	}
	c4 := p.runGeo(remaining)
	remaining = c4.Title
	if c4.ExtractedRegions != nil {
		result.ExtractedRegions = c4.ExtractedRegions
	}
	result.ConfidenceScores.Geographic = c4.Confidence
	notes = append(notes, c4.Notes...)

	// C5 — Topic Normalizer.
	if ctx.Err() != nil {
		return timedOut(result, notes)
	}
	c5 := p.runTopic(remaining)
	result.Topic = c5.Topic
	result.TopicName = c5.TopicName
	result.ConfidenceScores.Topic = c5.Confidence
	notes = append(notes, c5.Notes...)

	result.ProcessingNotes = notes

	p.logger.Debug().Str("title_hash", observability.TitleHash(title)).
		Str("status", result.Status).Msg("pipeline run complete")

	return result
}

func timedOut(partial PipelineResult, notes []string) PipelineResult {
	partial.Status = StatusTimeout
	partial.ProcessingNotes = append(notes, "aborted: per-title budget exceeded")
	return partial
}

// runClassify recovers from a panic inside C1 and reports it as a
// per-title-recoverable condition (spec.md §7), rather than letting it
// propagate out of Run.
func (p *Pipeline) runClassify(title string) (res classify.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = classify.Result{Title: title, MarketTermType: classify.Standard, Confidence: 0,
				Notes: []string{fmt.Sprintf("classification stage recovered from panic: %v", r)}}
		}
	}()
	return p.classifier.Run(title)
}

func (p *Pipeline) runDates(title string) (res dateextract.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = dateextract.Result{Title: title, Confidence: 0,
				Notes: []string{fmt.Sprintf("date extraction stage recovered from panic: %v", r)}}
		}
	}()
	return p.dates.Run(title)
}

func (p *Pipeline) runReportType(title, marketTermType string) (res reporttype.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = reporttype.Result{Title: title, Confidence: 0,
				Notes: []string{fmt.Sprintf("report-type stage recovered from panic: %v", r)}}
		}
	}()
	return p.reports.Run(title, marketTermType)
}

func (p *Pipeline) runGeo(title string) (res geo.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = geo.Result{Title: title, Confidence: 0,
				Notes: []string{fmt.Sprintf("geographic stage recovered from panic: %v", r)}}
		}
	}()
	return p.geos.Run(title)
}

func (p *Pipeline) runTopic(title string) (res topic.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = topic.Result{Topic: title, TopicName: "", Confidence: 0,
				Notes: []string{fmt.Sprintf("topic stage recovered from panic: %v", r)}}
		}
	}()
	return p.topics.Run(title)
}

// validateInput rejects non-UTF-8 or control-character input other than
// tab/newline (spec.md §6.2).
func validateInput(title string) error {
	if title == "" {
		return fmt.Errorf("empty title")
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("invalid UTF-8 input")
	}
	for _, r := range title {
		if r == '\t' || r == '\n' {
			continue
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("control character in input")
		}
	}
	return nil
}
