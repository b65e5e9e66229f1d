// Package geo implements the Geographic Extractor (C4): it removes
// geographic entities from the remaining title and returns the
// canonical list of entities found, compound regions matched before
// simple ones (spec.md §4.5).
package geo

import (
	"regexp"
	"strings"

	"github.com/reportlib/titleparser/internal/patternstore"
)

// Result is the Geographic Extractor's output (spec.md §3.3).
type Result struct {
	Title            string
	ExtractedRegions []string
	Confidence       float64
	Notes            []string
}

var (
	cleanupChars     = map[rune]bool{',': true, ';': true, '-': true, '(': true, ')': true, '[': true, ']': true, '{': true, '}': true}
	separatorWords   = regexp.MustCompile(`(?i)^(and|plus|or)$`)
	orphanPrepRe     = regexp.MustCompile(`(?i)^\s*(in|for|by|of|at|to|with|from)\b`)
	orphanPrepEndRe  = regexp.MustCompile(`(?i)\b(in|for|by|of|at|to|with|from)\s*$`)
	orphanSepStartRe = regexp.MustCompile(`(?i)^\s*(and|plus|or|[&+,;\-|])\s+`)
	orphanSepEndRe   = regexp.MustCompile(`(?i)\s+(and|plus|or|[&+,;\-|])\s*$`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// Extractor runs C4 against the geographic_entity patterns.
type Extractor struct {
	store *patternstore.Store
}

// New creates a Geographic Extractor bound to store.
func New(store *patternstore.Store) *Extractor {
	return &Extractor{store: store}
}

type match struct {
	start, end int
	term       string
}

// Run removes every matched region from title, in compound-before-simple
// priority order, and applies residual cleanup once at the end.
func (e *Extractor) Run(title string) Result {
	text := title
	var regions []string
	seen := map[string]bool{}

	for _, rec := range e.store.PatternsFor(patternstore.TypeGeographic, "") {
		candidates := activeSurfaceForms(rec)
		if len(candidates) == 0 {
			continue
		}

		matches := findNonOverlapping(text, candidates)
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if !seen[rec.Term] {
				seen[rec.Term] = true
				regions = append(regions, rec.Term)
			}
			text = removeWithEnhancedCleanup(text, m.start, m.end)
		}
	}

	text, artifacts := residualCleanup(text)
	text = strings.TrimSpace(multiSpace.ReplaceAllString(text, " "))

	confidence := 0.80
	if len(regions) > 0 {
		confidence = 0.85 - 0.05*float64(artifacts)
		if confidence < 0 {
			confidence = 0
		}
	}

	return Result{
		Title:            text,
		ExtractedRegions: regions,
		Confidence:       confidence,
		Notes:            []string{"matched " + itoa(len(regions)) + " region(s)"},
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// activeSurfaceForms returns rec.Term plus every alias not listed in
// ArchivedAliases (spec.md §4.5.1).
func activeSurfaceForms(rec patternstore.Record) []string {
	archived := map[string]bool{}
	for _, a := range rec.ArchivedAliases {
		archived[strings.ToLower(a)] = true
	}
	out := []string{rec.Term}
	for _, a := range rec.Aliases {
		if !archived[strings.ToLower(a)] {
			out = append(out, a)
		}
	}
	return out
}

// findNonOverlapping finds every non-overlapping, word-boundary,
// case-insensitive occurrence of any candidate surface form in text,
// ordered by position.
func findNonOverlapping(text string, candidates []string) []match {
	var all []match
	for _, c := range candidates {
		// Boundary classes rather than \b: a candidate like "U.S." ends
		// in punctuation, where \b does not fire between two non-word
		// runes.
		re := regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])(` + regexp.QuoteMeta(c) + `)(?:$|[^A-Za-z0-9])`)
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			all = append(all, match{start: loc[2], end: loc[3], term: c})
		}
	}
	sortMatches(all)
	return dedupeOverlapping(all)
}

func sortMatches(ms []match) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j-1].start > ms[j].start; j-- {
			ms[j-1], ms[j] = ms[j], ms[j-1]
		}
	}
}

func dedupeOverlapping(ms []match) []match {
	out := make([]match, 0, len(ms))
	lastEnd := -1
	for _, m := range ms {
		if m.start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.end
	}
	return out
}

// removeWithEnhancedCleanup deletes text[s:e] after extending the span
// over adjacent punctuation/whitespace and, when applicable, an
// adjoining separator word, per spec.md §4.5.3.
func removeWithEnhancedCleanup(text string, s, e int) string {
	runes := []rune(text)
	// s and e are byte offsets into text; the helpers below work on rune
	// indices.
	s, e = len([]rune(text[:s])), len([]rune(text[:e]))
	s, e = extendLeft(runes, s), extendRight(runes, e)

	// The word immediately before s is a dangling separator if what
	// follows e looks like another proper-noun region or the string
	// end — the fix for "U.S. And Europe" style interior separators
	// that residual cleanup's edge-only pass can't reach (spec.md
	// §4.5.3 bullet 3).
	if word, wordStart := trailingWord(runes, s); isSeparatorWordOrGlyph(word) {
		if e == len(runes) || startsWithCapitalWord(runes, e) {
			s = wordStart
		}
	}

	return string(runes[:s]) + string(runes[e:])
}

func isSeparatorWordOrGlyph(word string) bool {
	return word != "" && (separatorWords.MatchString(word) || word == "&")
}

// startsWithCapitalWord reports whether, skipping whitespace, pos is
// followed by a capitalized word — the heuristic used to recognize
// "probably another region" without a second pattern lookup.
func startsWithCapitalWord(runes []rune, pos int) bool {
	i := pos
	for i < len(runes) && runes[i] == ' ' {
		i++
	}
	return i < len(runes) && runes[i] >= 'A' && runes[i] <= 'Z'
}

func extendLeft(runes []rune, s int) int {
	for s > 0 {
		r := runes[s-1]
		if r == ' ' || cleanupChars[r] {
			s--
			continue
		}
		if (r == '&' || r == '+') && isolatedAt(runes, s-1) {
			s--
			continue
		}
		break
	}
	return s
}

func extendRight(runes []rune, e int) int {
	for e < len(runes) {
		r := runes[e]
		if r == ' ' || cleanupChars[r] {
			e++
			continue
		}
		if (r == '&' || r == '+') && isolatedAt(runes, e) {
			e++
			continue
		}
		break
	}
	return e
}

// isolatedAt reports whether the rune at index i is not flanked on
// both sides by word characters (spec.md §4.5.3's "isolated" test).
func isolatedAt(runes []rune, i int) bool {
	before := i > 0 && isWordRune(runes[i-1])
	after := i+1 < len(runes) && isWordRune(runes[i+1])
	return !(before && after)
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
}

// trailingWord returns the word (or lone &/+ glyph) immediately before
// pos, skipping intervening spaces, and the offset where it starts.
func trailingWord(runes []rune, pos int) (string, int) {
	i := pos
	for i > 0 && runes[i-1] == ' ' {
		i--
	}
	j := i
	for j > 0 && isWordRune(runes[j-1]) {
		j--
	}
	if j == i {
		if i > 0 && (runes[i-1] == '&' || runes[i-1] == '+') {
			return string(runes[i-1]), i - 1
		}
		return "", pos
	}
	return string(runes[j:i]), j
}

// residualCleanup applies spec.md §4.5.4 once, reporting how many
// distinct strip operations actually removed something (used by the
// confidence penalty).
func residualCleanup(text string) (string, int) {
	artifacts := 0
	strip := func(re *regexp.Regexp) {
		next := re.ReplaceAllString(text, "")
		if next != text {
			artifacts++
		}
		text = strings.TrimSpace(next)
	}

	for {
		before := text
		strip(orphanPrepRe)
		strip(orphanPrepEndRe)
		strip(orphanSepStartRe)
		strip(orphanSepEndRe)
		text = multiSpace.ReplaceAllString(text, " ")
		if stripped := stripIsolatedSingleChars(text); stripped != text {
			artifacts++
			text = stripped
		}
		if text == before {
			break
		}
	}

	return strings.TrimSpace(text), artifacts
}

// stripIsolatedSingleChars removes isolated single-character tokens
// except & and + (spec.md §4.5.4 item 4).
func stripIsolatedSingleChars(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) == 1 && w != "&" && w != "+" {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
