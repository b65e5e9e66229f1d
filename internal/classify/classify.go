// Package classify implements the Classifier (C1): it labels a title as
// standard or one of the prepositional market-term variants, without
// modifying the title (spec.md §4.2).
package classify

import (
	"regexp"

	"github.com/reportlib/titleparser/internal/patternstore"
)

// MarketTermType is the classification label C1 assigns.
type MarketTermType string

const (
	Standard   MarketTermType = "standard"
	MarketFor  MarketTermType = "market_for"
	MarketIn   MarketTermType = "market_in"
	MarketBy   MarketTermType = "market_by"
)

// Result is the Classifier's output (spec.md §3.3).
type Result struct {
	Title          string
	MarketTermType MarketTermType
	Confidence     float64
	MatchedPhrase  string
	Notes          []string
}

// phraseTypes maps a market_term record's canonical phrase to its
// classification label, per spec.md §3.2.
var phraseTypes = map[string]MarketTermType{
	"Market for": MarketFor,
	"Market in":  MarketIn,
	"Market by":  MarketBy,
}

// Classifier runs C1 against the market_term patterns in the library.
type Classifier struct {
	store *patternstore.Store
}

// New creates a Classifier bound to store.
func New(store *patternstore.Store) *Classifier {
	return &Classifier{store: store}
}

// Run classifies title. The title returned is always the input title
// unchanged: C1 only labels (spec.md §4.2).
func (c *Classifier) Run(title string) Result {
	records := c.store.PatternsFor(patternstore.TypeMarketTerm, "")

	for _, rec := range records {
		typ, ok := phraseTypes[rec.Term]
		if !ok {
			continue
		}
		if loc := findWordBoundaryPhrase(title, rec.Term); loc != nil {
			return Result{
				Title:          title,
				MarketTermType: typ,
				Confidence:     0.95,
				MatchedPhrase:  title[loc[0]:loc[1]],
				Notes:          []string{"matched market-term phrase " + rec.Term},
			}
		}
	}

	return Result{
		Title:          title,
		MarketTermType: Standard,
		Confidence:     1.0,
		Notes:          []string{"no market-term phrase found"},
	}
}

// findWordBoundaryPhrase finds phrase in title case-insensitively,
// requiring a non-letter boundary (or string edge) on both sides so
// that "Aftermarket" and "Market forecast" never match "Market"/"Market
// for" (spec.md §4.2 edge cases).
func findWordBoundaryPhrase(title, phrase string) []int {
	pattern := `(?i)(^|[^A-Za-z])(` + regexp.QuoteMeta(phrase) + `)([^A-Za-z]|$)`
	re := regexp.MustCompile(pattern)

	loc := re.FindStringSubmatchIndex(title)
	if loc == nil {
		return nil
	}
	// loc[4], loc[5] bound the captured phrase (group 2); the boundary
	// classes around it already rule out "Aftermarket" and "Market
	// forecast" (trailing letter fails the non-letter/end class).
	return []int{loc[4], loc[5]}
}
