// Package dateextract implements the Date Extractor (C2): it locates at
// most one forecast date or year range in a title, returns it in
// canonical form, and returns the title with the date and its
// syntactic scaffolding removed (spec.md §4.3).
package dateextract

import (
	"regexp"
	"strconv"
	"strings"
)

// Status values for Result.Status.
const (
	StatusSuccess        = "success"
	StatusNoDatesPresent = "no_dates_present"
	StatusDatesMissed    = "dates_missed"
)

// Format type tags, mirroring patternstore.DateFormatType.
const (
	FormatTerminalComma = "terminal_comma"
	FormatRange         = "range"
	FormatBracket       = "bracket"
	FormatParenthesis   = "parenthesis"
	FormatEmbedded      = "embedded"
)

// Result is the Date Extractor's output (spec.md §3.3).
type Result struct {
	Title              string
	ExtractedDateRange string // canonical form, e.g. "2024" or "2023-2030"
	Confidence         float64
	FormatType         string
	Status             string
	Notes              []string
}

var (
	fourDigitYear   = regexp.MustCompile(`\b(20\d{2})\b`)
	rangeInText     = regexp.MustCompile(`(?i)(20\d{2})\s*(?:-|–|—|to|through|till|until)\s*(20\d{2})`)
	bracketPair     = regexp.MustCompile(`\[([^\[\]]*)\]`)
	parenPair       = regexp.MustCompile(`\(([^()]*)\)`)
	terminalComma   = regexp.MustCompile(`(?i),\s*(20\d{2})\s*$`)
	dateConnectorRe = regexp.MustCompile(`(?i)\b(Forecast\s+to|Forecast\s+through|to|through|till|until)\s*$`)
	trailingPunct   = regexp.MustCompile(`[\s,;]+$`)
	leadingPunct    = regexp.MustCompile(`^[\s,;]+`)
	orphanAmpStart  = regexp.MustCompile(`(?i)^\s*(&|and)\s+`)
	orphanAmpEnd    = regexp.MustCompile(`(?i)\s+(&|and)\s*$`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// Extractor runs C2. It carries no state of its own — all of its rules
// are fixed, matching spec.md's closed set of format families.
type Extractor struct{}

// New creates a Date Extractor.
func New() *Extractor {
	return &Extractor{}
}

// match describes a located date, the span to remove from the original
// title, and any preserved non-date content from inside a bracket or
// parenthesis pair (spec.md §4.3 cleaning rule 1).
type match struct {
	start, end int
	canonical  string
	formatType string
	preserved  string
	paired     byte // '[' or '(' when the match came from a paired structure, else 0
}

// Run extracts the date and cleans the title, per spec.md §4.3.
func (e *Extractor) Run(title string) Result {
	if !fourDigitYear.MatchString(title) {
		return Result{Title: title, Status: StatusNoDatesPresent, Confidence: 0}
	}

	m := firstMatch(title)
	if m == nil {
		return Result{Title: title, Status: StatusDatesMissed, Confidence: 0.5}
	}

	cleaned := clean(title, *m)
	return Result{
		Title:               cleaned,
		ExtractedDateRange:  m.canonical,
		Confidence:          1.0,
		FormatType:          m.formatType,
		Status:              StatusSuccess,
		Notes:               []string{"matched " + m.formatType + " date pattern"},
	}
}

// firstMatch tries format families in specificity order: paired
// structures first (so their content is resolved as a unit), then
// ranges, then a trailing comma-year, then a bare embedded year.
func firstMatch(title string) *match {
	if m := matchPaired(title, bracketPair, '[', FormatBracket); m != nil {
		return m
	}
	if m := matchPaired(title, parenPair, '(', FormatParenthesis); m != nil {
		return m
	}
	if m := matchRange(title); m != nil {
		return m
	}
	if m := matchTerminalComma(title); m != nil {
		return m
	}
	if m := matchEmbedded(title); m != nil {
		return m
	}
	return nil
}

func matchPaired(title string, re *regexp.Regexp, open byte, formatType string) *match {
	for _, loc := range re.FindAllStringSubmatchIndex(title, -1) {
		content := title[loc[2]:loc[3]]
		canonical, ok := canonicalDateIn(content)
		if !ok {
			continue
		}
		preserved := nonDateWords(content, canonical)
		return &match{
			start:      loc[0],
			end:        loc[1],
			canonical:  canonical,
			formatType: formatType,
			preserved:  preserved,
			paired:     open,
		}
	}
	return nil
}

func matchRange(title string) *match {
	loc := rangeInText.FindStringSubmatchIndex(title)
	if loc == nil {
		return nil
	}
	start, end := yearsToRange(title[loc[2]:loc[3]], title[loc[4]:loc[5]])
	if start == "" {
		return nil
	}
	matchStart, matchEnd := loc[0], loc[1]
	// Absorb an immediately preceding comma/dash into the removed span
	// so cleanup doesn't need a second pass for it.
	matchStart = extendLeftOverComma(title, matchStart)
	return &match{start: matchStart, end: matchEnd, canonical: start + "-" + end, formatType: FormatRange}
}

func matchTerminalComma(title string) *match {
	loc := terminalComma.FindStringSubmatchIndex(title)
	if loc == nil {
		return nil
	}
	year := title[loc[2]:loc[3]]
	if !validYear(year) {
		return nil
	}
	return &match{start: loc[0], end: loc[1], canonical: year, formatType: FormatTerminalComma}
}

func matchEmbedded(title string) *match {
	loc := fourDigitYear.FindStringIndex(title)
	if loc == nil {
		return nil
	}
	year := title[loc[0]:loc[1]]
	if !validYear(year) {
		return nil
	}
	return &match{start: loc[0], end: loc[1], canonical: year, formatType: FormatEmbedded}
}

// canonicalDateIn finds the best date expression within a bracket or
// parenthesis's content: a range first, then a single year.
func canonicalDateIn(content string) (string, bool) {
	if loc := rangeInText.FindStringSubmatchIndex(content); loc != nil {
		start, end := yearsToRange(content[loc[2]:loc[3]], content[loc[4]:loc[5]])
		if start != "" {
			return start + "-" + end, true
		}
	}
	if loc := fourDigitYear.FindStringIndex(content); loc != nil {
		year := content[loc[0]:loc[1]]
		if validYear(year) {
			return year, true
		}
	}
	return "", false
}

// nonDateWords returns the words in content left after removing the
// date expression that produced canonical, trimmed of separators —
// e.g. "Forecast 2020-2030" with canonical "2020-2030" yields
// "Forecast" (spec.md §4.3 cleaning rule 1).
func nonDateWords(content, canonical string) string {
	withoutDate := strings.Replace(content, canonical, "", 1)
	withoutDate = dateConnectorRe.ReplaceAllString(withoutDate, "")
	withoutDate = strings.Trim(withoutDate, " ,;-–—&")
	withoutDate = multiSpace.ReplaceAllString(withoutDate, " ")
	return strings.TrimSpace(withoutDate)
}

func yearsToRange(a, b string) (string, string) {
	if !validYear(a) || !validYear(b) {
		return "", ""
	}
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	if ai > bi {
		return "", ""
	}
	return a, b
}

func validYear(s string) bool {
	y, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return y >= 2000 && y <= 2099
}

func extendLeftOverComma(title string, start int) int {
	i := start
	for i > 0 {
		c := title[i-1]
		if c == ' ' || c == ',' || c == '-' {
			i--
			continue
		}
		break
	}
	return i
}

// clean rebuilds the title after removing m's span, per spec.md §4.3's
// three atomic cleaning rules.
func clean(title string, m match) string {
	before := title[:m.start]
	after := title[m.end:]

	var rebuilt string
	if m.preserved != "" {
		rebuilt = before + " " + m.preserved + " " + after
	} else {
		rebuilt = before + " " + after
	}

	rebuilt = balanceBrackets(rebuilt)
	rebuilt = multiSpace.ReplaceAllString(rebuilt, " ")
	rebuilt = strings.TrimSpace(rebuilt)
	rebuilt = stripOrphans(rebuilt)
	return rebuilt
}

// balanceBrackets strips every bracket/paren of a type whose pair count
// became unbalanced by the removal (spec.md §4.3 cleaning rule 1's last
// sentence).
func balanceBrackets(s string) string {
	if strings.Count(s, "[") != strings.Count(s, "]") {
		s = strings.NewReplacer("[", "", "]", "").Replace(s)
	}
	if strings.Count(s, "(") != strings.Count(s, ")") {
		s = strings.NewReplacer("(", "", ")", "").Replace(s)
	}
	return s
}

func stripOrphans(s string) string {
	for {
		next := s
		next = trailingPunct.ReplaceAllString(next, "")
		next = leadingPunct.ReplaceAllString(next, "")
		next = orphanAmpStart.ReplaceAllString(next, "")
		next = orphanAmpEnd.ReplaceAllString(next, "")
		next = dateConnectorRe.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}
