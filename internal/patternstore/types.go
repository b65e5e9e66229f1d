// Package patternstore loads and indexes the pattern library that every
// extraction stage matches against.
package patternstore

import (
	"errors"
	"regexp"
)

// PatternType distinguishes the six kinds of record the library holds.
type PatternType string

const (
	TypeMarketTerm      PatternType = "market_term"
	TypeDatePattern     PatternType = "date_pattern"
	TypeReportType      PatternType = "report_type_dictionary"
	TypeGeographic      PatternType = "geographic_entity"
	TypeSeparator       PatternType = "separator"
	TypeCleanupRule     PatternType = "cleanup_rule"
)

// ReportTypeSubtype tags the role a report_type_dictionary record plays.
type ReportTypeSubtype string

const (
	SubtypePrimaryKeyword   ReportTypeSubtype = "primary_keyword"
	SubtypeSecondaryKeyword ReportTypeSubtype = "secondary_keyword"
	SubtypeSeparator        ReportTypeSubtype = "separator"
	SubtypeBoundaryMarker   ReportTypeSubtype = "boundary_marker"
)

// DateFormatType tags the surface shape a date_pattern record recognizes.
type DateFormatType string

const (
	FormatTerminalComma DateFormatType = "terminal_comma"
	FormatRange         DateFormatType = "range"
	FormatBracket       DateFormatType = "bracket"
	FormatParenthesis   DateFormatType = "parenthesis"
	FormatEmbedded      DateFormatType = "embedded"
)

// BoundaryMarkerTerm is the single distinguished report_type_dictionary
// term that anchors C3's span selection.
const BoundaryMarkerTerm = "Market"

// Record is a single pattern-library entry, as specified in spec.md §3.1.
type Record struct {
	Type             PatternType `json:"type" bson:"type"`
	Term             string      `json:"term" bson:"term"`
	Aliases          []string    `json:"aliases,omitempty" bson:"aliases,omitempty"`
	ArchivedAliases  []string    `json:"archived_aliases,omitempty" bson:"archived_aliases,omitempty"`
	Pattern          string      `json:"pattern,omitempty" bson:"pattern,omitempty"`
	Priority         int         `json:"priority" bson:"priority"`
	Subtype          string      `json:"subtype,omitempty" bson:"subtype,omitempty"`
	Active           bool        `json:"active" bson:"active"`
	FormatType       string      `json:"format_type,omitempty" bson:"format_type,omitempty"`
	CurationNotes    string      `json:"curation_notes,omitempty" bson:"curation_notes,omitempty"`
	SuccessCount     int64       `json:"success_count,omitempty" bson:"success_count,omitempty"`
	FailureCount     int64       `json:"failure_count,omitempty" bson:"failure_count,omitempty"`

	// compiled is populated at load time from Pattern; nil when Pattern is
	// empty or fails to compile.
	compiled *regexp.Regexp
}

// Compiled returns the regexp compiled from Pattern, or nil if there is
// none or it failed to compile at load time.
func (r *Record) Compiled() *regexp.Regexp {
	return r.compiled
}

// Common sentinel errors, mirroring the teacher's storage.ErrNotFound /
// storage.ErrConflict pair.
var (
	ErrStoreUnreachable  = errors.New("pattern store: backing store unreachable")
	ErrNoBoundaryMarker  = errors.New("pattern store: no boundary_marker record with term \"Market\"")
	ErrDuplicateKey      = errors.New("pattern store: duplicate (type, term, subtype)")
)
