package dateextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_NoDatesPresent(t *testing.T) {
	e := New()
	title := "Retail Market in Singapore - Size, Outlook & Statistics"
	res := e.Run(title)
	assert.Equal(t, StatusNoDatesPresent, res.Status)
	assert.Equal(t, title, res.Title)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestExtractor_RangeWithComma(t *testing.T) {
	e := New()
	res := e.Run("APAC Personal Protective Equipment Market Analysis, 2024-2029")
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "2024-2029", res.ExtractedDateRange)
	assert.Equal(t, FormatRange, res.FormatType)
	assert.Equal(t, "APAC Personal Protective Equipment Market Analysis", res.Title)
}

func TestExtractor_RangeWithDash(t *testing.T) {
	e := New()
	res := e.Run("Widget Market Outlook 2024–2029")
	assert.Equal(t, "2024-2029", res.ExtractedDateRange)
}

func TestExtractor_TerminalComma(t *testing.T) {
	e := New()
	res := e.Run("Real-Time Locating Systems Market Size, RTLS Industry Report, 2025")
	assert.Equal(t, "2025", res.ExtractedDateRange)
	assert.Equal(t, FormatTerminalComma, res.FormatType)
	assert.Equal(t, "Real-Time Locating Systems Market Size, RTLS Industry Report", res.Title)
}

func TestExtractor_ParenthesisPreservesContent(t *testing.T) {
	e := New()
	res := e.Run("Battery Fuel Gauge Market (Forecast 2020-2030)")
	assert.Equal(t, "2020-2030", res.ExtractedDateRange)
	assert.Equal(t, FormatParenthesis, res.FormatType)
	assert.Equal(t, "Battery Fuel Gauge Market Forecast", res.Title)
}

func TestExtractor_BracketSimple(t *testing.T) {
	e := New()
	res := e.Run("Widget Study [2024]")
	assert.Equal(t, "2024", res.ExtractedDateRange)
	assert.Equal(t, FormatBracket, res.FormatType)
	assert.Equal(t, "Widget Study", res.Title)
}

func TestExtractor_Embedded(t *testing.T) {
	e := New()
	res := e.Run("Market Outlook 2031")
	assert.Equal(t, "2031", res.ExtractedDateRange)
	assert.Equal(t, FormatEmbedded, res.FormatType)
	assert.Equal(t, "Market Outlook", res.Title)
}

func TestExtractor_DoesNotTouchUnrelatedParens(t *testing.T) {
	e := New()
	res := e.Run("Artificial Intelligence (AI) Market in Automotive Outlook & Trends, 2025-2035")
	assert.Equal(t, "2025-2035", res.ExtractedDateRange)
	assert.Equal(t, "Artificial Intelligence (AI) Market in Automotive Outlook & Trends", res.Title)
}

func TestExtractor_OutOfRangeYearMeansNoDatesPresent(t *testing.T) {
	e := New()
	res := e.Run("Market Report 1999 Edition")
	assert.Equal(t, StatusNoDatesPresent, res.Status)
}

func TestExtractor_Idempotent(t *testing.T) {
	e := New()
	title := "Retail Market in Singapore"
	first := e.Run(title)
	second := e.Run(first.Title)
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, StatusNoDatesPresent, second.Status)
}
