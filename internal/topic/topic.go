// Package topic implements the Topic Normalizer (C5): it derives a
// display topic and a canonical slug from the title remaining after
// C4 (spec.md §4.6).
package topic

import (
	"regexp"
	"strings"
)

// Result is the Topic Normalizer's output (spec.md §3.3).
type Result struct {
	Topic      string
	TopicName  string
	Confidence float64
	Notes      []string
}

var (
	orphanPrepRe     = regexp.MustCompile(`(?i)^\s*(in|for|by|of|at|to|with|from)\b`)
	orphanPrepEndRe  = regexp.MustCompile(`(?i)\b(in|for|by|of|at|to|with|from)\s*$`)
	orphanSepStartRe = regexp.MustCompile(`(?i)^\s*(and|plus|or|[&+,;\-|])\s+`)
	orphanSepEndRe   = regexp.MustCompile(`(?i)\s+(and|plus|or|[&+,;\-|])\s*$`)
	multiSpace       = regexp.MustCompile(`\s+`)

	ampAndRe   = regexp.MustCompile(`(?i)\s+(&|and)\s+`)
	plusRe     = regexp.MustCompile(`\s+\+\s+`)
	nonSlugRe  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash  = regexp.MustCompile(`-+`)
)

// Normalizer runs C5. It carries no state: every rule is a fixed
// residual-cleanup-then-slug pipeline over whatever text C4 produced.
type Normalizer struct{}

// New creates a Topic Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Run derives the topic and topic_name from title, per spec.md §4.6.
func (n *Normalizer) Run(title string) Result {
	topic := residualCleanup(title)

	if topic == "" {
		return Result{Topic: "", TopicName: "", Confidence: 0.3, Notes: []string{"empty topic after cleanup"}}
	}

	return Result{
		Topic:      topic,
		TopicName:  slug(topic),
		Confidence: 1.0,
	}
}

// residualCleanup re-applies spec.md §4.5.4 items 2-4 (a final pass,
// since C4 already applied its own pass — an idempotent title from C4
// runs through unchanged). It also strips orphan leading/trailing
// prepositions (§4.5.4 item 1), which §4.6 rule 1 does not ask C5 to
// repeat; kept as an intentional superset since C3/C4 normally consume
// prepositions first and a dangling one surviving to this stage is
// always cleanup debris, never a case where leaving it in would be
// correct.
func residualCleanup(text string) string {
	for {
		before := text
		text = strings.TrimSpace(orphanSepStartRe.ReplaceAllString(text, ""))
		text = strings.TrimSpace(orphanSepEndRe.ReplaceAllString(text, ""))
		text = strings.TrimSpace(orphanPrepRe.ReplaceAllString(text, ""))
		text = strings.TrimSpace(orphanPrepEndRe.ReplaceAllString(text, ""))
		text = multiSpace.ReplaceAllString(text, " ")
		text = stripIsolatedSingleChars(text)
		if text == before {
			break
		}
	}
	return strings.TrimSpace(text)
}

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

// slug derives topic_name from topic, per spec.md §4.6 rule 2.
func slug(topic string) string {
	s := strings.ToLower(topic)
	s = ampAndRe.ReplaceAllString(s, "-and-")
	s = plusRe.ReplaceAllString(s, "-plus-")
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
