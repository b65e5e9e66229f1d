// Package reporttype implements the Report-Type Extractor (C3): it
// locates a "Market …" report-type phrase using dictionary keywords
// around the "Market" boundary marker, and returns a remaining title
// that preserves topic content — including acronyms sitting between
// report-type keywords (spec.md §4.4).
package reporttype

import (
	"regexp"
	"strings"

	"github.com/reportlib/titleparser/internal/patternstore"
)

// Market-term classification labels, duplicated from classify.MarketTermType
// as plain strings so this package has no dependency on classify — stages
// share no state beyond the strings the pipeline passes between them
// (spec.md §6.4).
const (
	Standard  = "standard"
	MarketFor = "market_for"
	MarketIn  = "market_in"
	MarketBy  = "market_by"
)

// Result is the Report-Type Extractor's output (spec.md §3.3).
type Result struct {
	Title                  string // remaining title
	ExtractedReportType    string
	Confidence             float64
	KeywordsFound          int
	MarketBoundaryDetected bool
	Notes                  []string
}

// keyword is one dictionary-term occurrence located in the title.
type keyword struct {
	start, end int
	text       string // original surface form
	isBoundary bool
}

// Separator characters/words allowed in an acceptance gap (spec.md
// §4.4.3 step 3 and §4.5.3's shared vocabulary).
var (
	separatorChars = map[rune]bool{
		',': true, '&': true, '-': true, '–': true, '—': true,
		'|': true, ';': true, ':': true, '+': true,
	}
	separatorWordRe = regexp.MustCompile(`(?i)^(and|plus|or)$`)
	wordSplitRe     = regexp.MustCompile(`\s+`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// Extractor runs C3 against the report_type_dictionary patterns.
type Extractor struct {
	store *patternstore.Store
}

// New creates a Report-Type Extractor bound to store.
func New(store *patternstore.Store) *Extractor {
	return &Extractor{store: store}
}

// Run extracts the report-type phrase and cleans the title, dispatching
// to the standard or market-term workflow per marketTermType (spec.md
// §4.4.3 / §4.4.4).
func (e *Extractor) Run(title string, marketTermType string) Result {
	keywords := e.detectKeywords(title)

	switch marketTermType {
	case MarketFor, MarketIn, MarketBy:
		return e.runMarketTermWorkflow(title, keywords, marketTermType)
	default:
		return e.runStandardWorkflow(title, keywords)
	}
}

// detectKeywords scans title for every active report_type_dictionary
// primary/secondary/boundary_marker term, preserving original casing and
// position (spec.md §4.4.3 step 1).
func (e *Extractor) detectKeywords(title string) []keyword {
	records := e.store.PatternsFor(patternstore.TypeReportType, "")

	var found []keyword
	for _, rec := range records {
		if rec.Subtype == string(patternstore.SubtypeSeparator) {
			continue // separators are gap-acceptance vocabulary, not keywords
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(rec.Term) + `\b`)
		for _, loc := range re.FindAllStringIndex(title, -1) {
			found = append(found, keyword{
				start:      loc[0],
				end:        loc[1],
				text:       title[loc[0]:loc[1]],
				isBoundary: rec.Subtype == string(patternstore.SubtypeBoundaryMarker),
			})
		}
	}

	sortKeywords(found)
	return dedupeOverlaps(found)
}

func sortKeywords(kws []keyword) {
	for i := 1; i < len(kws); i++ {
		for j := i; j > 0 && kws[j-1].start > kws[j].start; j-- {
			kws[j-1], kws[j] = kws[j], kws[j-1]
		}
	}
}

// dedupeOverlaps drops a keyword occurrence that starts inside a
// previously accepted occurrence's span (e.g. two records that both
// happen to match the same text).
func dedupeOverlaps(kws []keyword) []keyword {
	out := make([]keyword, 0, len(kws))
	lastEnd := -1
	for _, k := range kws {
		if k.start < lastEnd {
			continue
		}
		out = append(out, k)
		lastEnd = k.end
	}
	return out
}

// mixedSeparatorKind marks a gap that mixed two or more distinct
// separator characters (e.g. ", &"): distinct from any single real
// separator rune, so it still breaks a span's "one uniform kind" test.
const mixedSeparatorKind = rune(-1)

// wordSeparatorKind marks a gap that matched a whole-word separator
// (and/plus/or) rather than a punctuation character.
const wordSeparatorKind = rune(-2)

// gapOutcome describes what a gap between two keyword occurrences
// permits: acceptance of the next keyword into the span, the separator
// kind seen (for the §4.4.5 lone &/+ preservation rule), and any
// non-separator filler content to preserve in the remaining title.
type gapOutcome struct {
	accepted        bool
	separatorKind   rune // 0 if the gap carried no separator at all
	preservedFiller string
}

// evaluateGap classifies the text between two accepted keywords, per
// spec.md §4.4.3 steps 3/4 and §4.4.3 step 6's content preservation.
func evaluateGap(gap string) gapOutcome {
	trimmed := strings.TrimSpace(gap)
	if trimmed == "" {
		return gapOutcome{accepted: true}
	}

	if separatorWordRe.MatchString(trimmed) {
		return gapOutcome{accepted: true, separatorKind: wordSeparatorKind}
	}

	// A gap built entirely from separator characters/whitespace.
	onlySeparatorChars := true
	kinds := map[rune]bool{}
	for _, r := range trimmed {
		if r == ' ' {
			continue
		}
		if separatorChars[r] {
			kinds[r] = true
			continue
		}
		onlySeparatorChars = false
		break
	}
	if onlySeparatorChars && len(kinds) > 0 {
		outcome := gapOutcome{accepted: true}
		if len(kinds) == 1 {
			for k := range kinds {
				outcome.separatorKind = k
			}
		} else {
			outcome.separatorKind = mixedSeparatorKind
		}
		return outcome
	}

	// Strip leading/trailing separator characters and whole-word
	// separators, then see how much content remains.
	remainder := stripSeparatorEdges(trimmed)
	words := wordSplitRe.Split(strings.TrimSpace(remainder), -1)
	if remainder == "" {
		return gapOutcome{accepted: true}
	}
	if len(words) <= 2 {
		return gapOutcome{accepted: true, preservedFiller: remainder}
	}
	return gapOutcome{accepted: false}
}

func stripSeparatorEdges(s string) string {
	isSep := func(r rune) bool { return separatorChars[r] || r == ' ' }
	runes := []rune(s)
	lo, hi := 0, len(runes)
	for lo < hi && isSep(runes[lo]) {
		lo++
	}
	for hi > lo && isSep(runes[hi-1]) {
		hi--
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}

// span holds the result of walking a keyword sequence from an anchor:
// the accepted keywords (in order), the preserved filler chunks found
// in their gaps (in order), and the set of pure-separator kinds seen
// across purely-separator gaps.
type span struct {
	accepted []keyword
	filler   []string
	kinds    map[rune]bool
}

// scanRight walks rightward from fromEnd (exclusive) over kws, accepting
// keywords while gaps permit, per spec.md §4.4.3 step 3.
func scanRight(title string, kws []keyword, fromEnd int, afterIdx int) span {
	s := span{kinds: map[rune]bool{}}
	prevEnd := fromEnd
	for i := afterIdx; i < len(kws); i++ {
		outcome := evaluateGapBetween(title, prevEnd, kws[i].start)
		if !outcome.accepted {
			break
		}
		if outcome.separatorKind != 0 {
			s.kinds[outcome.separatorKind] = true
		}
		if outcome.preservedFiller != "" {
			s.filler = append(s.filler, outcome.preservedFiller)
		}
		s.accepted = append(s.accepted, kws[i])
		prevEnd = kws[i].end
	}
	return s
}

// scanLeft walks leftward from toStart (exclusive) over kws (processed
// in reverse), accepting keywords while gaps permit, per spec.md
// §4.4.3 step 4.
func scanLeft(title string, kws []keyword, toStart int, beforeIdx int) span {
	s := span{kinds: map[rune]bool{}}
	nextStart := toStart
	var acceptedRev []keyword
	for i := beforeIdx; i >= 0; i-- {
		outcome := evaluateGapBetween(title, kws[i].end, nextStart)
		if !outcome.accepted {
			break
		}
		if outcome.separatorKind != 0 {
			s.kinds[outcome.separatorKind] = true
		}
		if outcome.preservedFiller != "" {
			s.filler = append([]string{outcome.preservedFiller}, s.filler...)
		}
		acceptedRev = append(acceptedRev, kws[i])
		nextStart = kws[i].start
	}
	// reverse acceptedRev into textual order
	for i := len(acceptedRev) - 1; i >= 0; i-- {
		s.accepted = append(s.accepted, acceptedRev[i])
	}
	return s
}

func evaluateGapBetween(title string, end, start int) gapOutcome {
	if start < end {
		return gapOutcome{accepted: false}
	}
	return evaluateGap(title[end:start])
}

func (e *Extractor) runStandardWorkflow(title string, keywords []keyword) Result {
	boundaryIdx := -1
	for i, k := range keywords {
		if k.isBoundary {
			boundaryIdx = i
			break
		}
	}
	if boundaryIdx == -1 {
		return Result{Title: title, MarketBoundaryDetected: false, Confidence: 0, Notes: []string{"no Market boundary found"}}
	}

	market := keywords[boundaryIdx]
	right := scanRight(title, keywords, market.end, boundaryIdx+1)
	left := scanLeft(title, keywords, market.start, boundaryIdx-1)

	accepted := append(append([]keyword{}, left.accepted...), market)
	accepted = append(accepted, right.accepted...)

	kinds := map[rune]bool{}
	for k := range left.kinds {
		kinds[k] = true
	}
	for k := range right.kinds {
		kinds[k] = true
	}

	reportType := buildReportType(title, accepted, kinds)
	remaining := buildRemainingTitle(title, accepted, append(left.filler, right.filler...))

	confidence := 0.6
	if len(accepted) > 1 {
		confidence = 0.9
	}

	return Result{
		Title:                  remaining,
		ExtractedReportType:    reportType,
		Confidence:             confidence,
		KeywordsFound:          len(accepted),
		MarketBoundaryDetected: true,
		Notes:                  []string{"standard workflow"},
	}
}

func (e *Extractor) runMarketTermWorkflow(title string, keywords []keyword, marketTermType string) Result {
	preposition := map[string]string{MarketFor: "for", MarketIn: "in", MarketBy: "by"}[marketTermType]
	phrase := "Market " + preposition

	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
	loc := re.FindStringIndex(title)
	if loc == nil {
		return e.runStandardWorkflow(title, keywords)
	}
	pStart, pEnd := loc[0], loc[1]

	// Object of the preposition: from pEnd to the first non-preposition
	// dictionary keyword occurrence, or end of string (spec.md §4.4.4
	// step 2).
	objEnd := len(title)
	for _, k := range keywords {
		if k.start >= pEnd {
			objEnd = k.start
			break
		}
	}
	marketContext := strings.TrimSpace(stripSeparatorEdges(title[pEnd:objEnd]))
	contextAbsEnd := objEnd
	if contextStart := strings.Index(title[pEnd:], marketContext); contextStart >= 0 {
		contextAbsEnd = pEnd + contextStart + len(marketContext)
	}

	// Keywords strictly before pStart and strictly after contextAbsEnd
	// are eligible; anything inside [pStart, contextAbsEnd] is excluded
	// (it is the placeholder region), per spec.md §4.4.4 step 4.
	beforeLastIdx, afterFirstIdx := -1, -1
	for i, k := range keywords {
		if k.end <= pStart {
			beforeLastIdx = i
		} else if k.start >= contextAbsEnd && afterFirstIdx == -1 {
			afterFirstIdx = i
		}
	}

	right := scanRight(title, keywords, contextAbsEnd, afterFirstIdxOr(afterFirstIdx, keywords))
	left := scanLeft(title, keywords, pStart, beforeLastIdx)

	kinds := map[rune]bool{}
	for k := range left.kinds {
		kinds[k] = true
	}
	for k := range right.kinds {
		kinds[k] = true
	}

	nonMarket := append(append([]keyword{}, left.accepted...), right.accepted...)
	reportType := "Market"
	if joined := buildReportType(title, nonMarket, kinds); joined != "" {
		reportType = "Market " + joined
	}

	// Remaining title: prefix (portion before P with accepted
	// left-of-Market keywords removed) + preposition + market_context.
	prefix := removeAcceptedSpans(title[:pStart], left.accepted)
	prefix = strings.TrimSpace(prefix)

	remaining := strings.TrimSpace(prefix + " " + preposition + " " + marketContext)
	remaining = multiSpace.ReplaceAllString(remaining, " ")

	confidence := 0.6
	if len(nonMarket) > 0 {
		confidence = 0.9
	}

	return Result{
		Title:                  remaining,
		ExtractedReportType:    reportType,
		Confidence:             confidence,
		KeywordsFound:          len(nonMarket) + 1,
		MarketBoundaryDetected: true,
		Notes:                  []string{"market-term workflow (" + marketTermType + ")"},
	}
}

func afterFirstIdxOr(idx int, kws []keyword) int {
	if idx == -1 {
		return len(kws)
	}
	return idx
}

// removeAcceptedSpans deletes each accepted keyword's text from s,
// which must be a prefix of the original title ending at the same
// absolute offsets used in accepted[i].start/end.
func removeAcceptedSpans(s string, accepted []keyword) string {
	if len(accepted) == 0 {
		return s
	}
	var b strings.Builder
	prev := 0
	for _, k := range accepted {
		if k.start > len(s) {
			continue
		}
		b.WriteString(s[prev:k.start])
		prev = k.end
	}
	if prev < len(s) {
		b.WriteString(s[prev:])
	}
	return b.String()
}

// buildReportType joins accepted keyword surface text into the
// reconstructed report-type phrase (spec.md §4.4.3 step 5). When every
// pure-separator gap in the span used the same lone "&"/"+" kind, that
// character is preserved between the words it joins (spec.md §4.4.5);
// otherwise every gap collapses to a single space, and duplicate
// adjacent words are removed.
func buildReportType(title string, accepted []keyword, kinds map[rune]bool) string {
	if len(accepted) == 0 {
		return ""
	}

	preserveGlyph := byte(0)
	if len(kinds) == 1 {
		for k := range kinds {
			if k == '&' || k == '+' {
				preserveGlyph = byte(k)
			}
		}
	}

	words := make([]string, 0, len(accepted)*2)
	for i, k := range accepted {
		if i > 0 && preserveGlyph != 0 && strings.IndexByte(title[accepted[i-1].end:k.start], preserveGlyph) >= 0 {
			words = append(words, string(preserveGlyph))
		}
		words = append(words, titleCase(k.text))
	}

	return dedupeAdjacent(strings.Join(words, " "))
}

// buildRemainingTitle rebuilds the post-C3 title by stitching together
// the text before the first accepted keyword, every preserved filler
// chunk found between accepted keywords (spec.md §4.4.3 step 6), and
// the text after the last accepted keyword.
func buildRemainingTitle(title string, accepted []keyword, filler []string) string {
	if len(accepted) == 0 {
		return strings.TrimSpace(title)
	}
	first := accepted[0]
	last := accepted[len(accepted)-1]

	before := title[:first.start]
	after := title[last.end:]

	parts := []string{strings.TrimSpace(before)}
	parts = append(parts, filler...)
	parts = append(parts, strings.TrimSpace(after))

	joined := strings.Join(nonEmpty(parts), " ")
	joined = multiSpace.ReplaceAllString(joined, " ")
	return stripOrphanSeparators(strings.TrimSpace(joined))
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

var (
	orphanLeadRe  = regexp.MustCompile(`(?i)^\s*(,|&|and|plus|or)\s+`)
	orphanTrailRe = regexp.MustCompile(`(?i)\s+(,|&|and|plus|or)\s*$`)
)

func stripOrphanSeparators(s string) string {
	for {
		next := orphanLeadRe.ReplaceAllString(s, "")
		next = orphanTrailRe.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	r := []rune(word)
	isLetter := (r[0] >= 'a' && r[0] <= 'z') || (r[0] >= 'A' && r[0] <= 'Z')
	if !isLetter {
		return word
	}
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

func dedupeAdjacent(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(out) > 0 && strings.EqualFold(out[len(out)-1], w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
