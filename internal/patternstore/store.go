package patternstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/reportlib/titleparser/internal/observability"
)

// Source is the backing document store the PLS loads from. The Mongo
// implementation lives in mongo.go; tests use an in-memory fake.
type Source interface {
	FetchAll(ctx context.Context) ([]Record, error)
}

// Store is the in-memory, read-only-after-load Pattern Library Store
// (spec.md §4.1). It is built once per process and shared by reference
// across every pipeline worker; its indexes change only when a later
// Load or Reload swaps in a new snapshot.
type Store struct {
	logger *observability.Logger

	mu       sync.RWMutex
	byType   map[PatternType][]Record
	aliasMap map[PatternType]map[string]string // lowercase alias -> term
	loaded   bool
}

// New creates an unloaded Store. Call Load before use.
func New(logger *observability.Logger) *Store {
	return &Store{
		logger:   logger,
		byType:   make(map[PatternType][]Record),
		aliasMap: make(map[PatternType]map[string]string),
	}
}

// Load reads every active record from src, compiles its regex (if any),
// and builds the priority-ordered, per-type indexes and the alias->term
// maps. A failure to reach src is fatal (ErrStoreUnreachable); a record
// whose Pattern fails to compile is logged and skipped, never aborting
// the load (spec.md §4.1 failure semantics).
func (s *Store) Load(ctx context.Context, src Source) error {
	records, err := src.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	byType := make(map[PatternType][]Record)
	aliasMap := make(map[PatternType]map[string]string)
	seen := make(map[string]bool) // "type|term|subtype"

	for _, rec := range records {
		if !rec.Active {
			continue
		}

		key := string(rec.Type) + "|" + rec.Term + "|" + rec.Subtype
		if seen[key] {
			s.logger.Warn().Str("type", string(rec.Type)).Str("term", rec.Term).
				Msg("duplicate pattern record skipped")
			continue
		}
		seen[key] = true

		if rec.Pattern != "" {
			compiled, cerr := regexp.Compile("(?i)" + rec.Pattern)
			if cerr != nil {
				s.logger.Warn().Str("type", string(rec.Type)).Str("term", rec.Term).
					Err(cerr).Msg("pattern record failed to compile, skipped")
			} else {
				rec.compiled = compiled
			}
		}

		byType[rec.Type] = append(byType[rec.Type], rec)

		if aliasMap[rec.Type] == nil {
			aliasMap[rec.Type] = make(map[string]string)
		}
		archived := toSet(rec.ArchivedAliases)
		for _, alias := range rec.Aliases {
			if archived[strings.ToLower(alias)] {
				continue
			}
			aliasMap[rec.Type][strings.ToLower(alias)] = rec.Term
		}
		// The term itself always resolves to itself.
		aliasMap[rec.Type][strings.ToLower(rec.Term)] = rec.Term
	}

	for t := range byType {
		sortByPriority(byType[t])
	}

	if !hasBoundaryMarker(byType[TypeReportType]) {
		return ErrNoBoundaryMarker
	}

	s.mu.Lock()
	s.byType = byType
	s.aliasMap = aliasMap
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info().Int("record_count", len(records)).Msg("pattern library loaded")
	return nil
}

// Reload atomically swaps in a freshly loaded snapshot from src, leaving
// in-flight PatternsFor/ResolveAlias callers reading the old snapshot
// unaffected (spec.md §3.4: the store is read-only during a run).
func (s *Store) Reload(ctx context.Context, src Source) error {
	return s.Load(ctx, src)
}

// PatternsFor returns the active records of the given type (optionally
// filtered by subtype) in canonical priority order.
func (s *Store) PatternsFor(t PatternType, subtype string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byType[t]
	if subtype == "" {
		out := make([]Record, len(all))
		copy(out, all)
		return out
	}
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if r.Subtype == subtype {
			out = append(out, r)
		}
	}
	return out
}

// ResolveAlias resolves a surface form to its canonical term for the
// given type, or returns ("", false) if no active alias or term
// matches. Archived aliases never resolve.
func (s *Store) ResolveAlias(t PatternType, surface string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term, ok := s.aliasMap[t][strings.ToLower(strings.TrimSpace(surface))]
	return term, ok
}

// Loaded reports whether Load has completed successfully at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func hasBoundaryMarker(records []Record) bool {
	for _, r := range records {
		if r.Subtype == string(SubtypeBoundaryMarker) && r.Term == BoundaryMarkerTerm {
			return true
		}
	}
	return false
}

func toSet(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[strings.ToLower(v)] = true
	}
	return m
}

// sortByPriority applies spec.md §3.1's stability rule: ascending
// priority, ties broken by descending term length then lexicographic
// term order.
func sortByPriority(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if len(a.Term) != len(b.Term) {
			return len(a.Term) > len(b.Term)
		}
		return a.Term < b.Term
	})
}
