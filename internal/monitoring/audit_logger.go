// Package monitoring provides the per-title audit trail: a bounded,
// in-memory record of recent pipeline runs for post-hoc debugging,
// adapted from the teacher's audit_logger.go (spec.md §9's
// "debugging surface").
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reportlib/titleparser/internal/cache"
	"github.com/reportlib/titleparser/internal/observability"
	"github.com/reportlib/titleparser/internal/pipeline"
)

// Event is one audited pipeline run, trimmed to what's useful for
// debugging without ever carrying the full title (spec.md §9).
type Event struct {
	ID         uuid.UUID `json:"id"`
	TitleHash  string    `json:"title_hash"`
	Status     string    `json:"status"`
	Notes      []string  `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditLogger records every pipeline run to the structured logger and
// keeps the last Capacity of them in memory, mirroring the teacher's
// AuditLogger (logger + optional Redis publish) but dropping the
// tenant/campaign-scoped methods that have no analogue in this domain.
type AuditLogger struct {
	logger      *observability.Logger
	redisClient *cache.RedisClient

	mu       sync.Mutex
	ring     []Event
	capacity int
	next     int
	filled   bool
}

// NewAuditLogger creates an AuditLogger with the given in-memory ring
// capacity. capacity <= 0 defaults to 200.
func NewAuditLogger(logger *observability.Logger, redisClient *cache.RedisClient, capacity int) *AuditLogger {
	if capacity <= 0 {
		capacity = 200
	}
	return &AuditLogger{
		logger:      logger,
		redisClient: redisClient,
		ring:        make([]Event, capacity),
		capacity:    capacity,
	}
}

// LogResult records one pipeline run: a structured log line always, an
// in-memory ring entry always, and — for any non-ok status — a publish
// to the "titleparser.errors" Redis channel so a separate operator
// process can alert on it without polling, the same role the teacher's
// PublishDriftAlert plays for drift alerts.
func (a *AuditLogger) LogResult(ctx context.Context, title string, res pipeline.PipelineResult) error {
	event := Event{
		ID:         uuid.New(),
		TitleHash:  observability.TitleHash(title),
		Status:     res.Status,
		Notes:      res.ProcessingNotes,
		OccurredAt: time.Now(),
	}

	a.logger.Info().
		Str("event_id", event.ID.String()).
		Str("title_hash", event.TitleHash).
		Str("status", event.Status).
		Msg("pipeline run audited")

	a.mu.Lock()
	a.ring[a.next] = event
	a.next = (a.next + 1) % a.capacity
	if a.next == 0 {
		a.filled = true
	}
	a.mu.Unlock()

	if res.Status != pipeline.StatusOK && a.redisClient != nil {
		if err := a.redisClient.PublishEvent(ctx, "titleparser.errors", event); err != nil {
			return err
		}
	}

	return nil
}

// Recent returns up to n of the most recently logged events, newest
// first.
func (a *AuditLogger) Recent(n int) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := a.snapshotLocked()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// LastErrors returns up to n of the most recent non-ok events, newest
// first — the data behind the error summary the CLI's run command
// prints at the end of a batch.
func (a *AuditLogger) LastErrors(n int) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []Event
	for _, e := range a.snapshotLocked() {
		if e.Status != pipeline.StatusOK {
			errs = append(errs, e)
			if n > 0 && len(errs) == n {
				break
			}
		}
	}
	return errs
}

// snapshotLocked returns the ring's contents newest-first. Caller must
// hold a.mu.
func (a *AuditLogger) snapshotLocked() []Event {
	if !a.filled && a.next == 0 {
		return nil
	}

	var ordered []Event
	if a.filled {
		ordered = append(ordered, a.ring[a.next:]...)
		ordered = append(ordered, a.ring[:a.next]...)
	} else {
		ordered = append(ordered, a.ring[:a.next]...)
	}

	newestFirst := make([]Event, len(ordered))
	for i, e := range ordered {
		newestFirst[len(ordered)-1-i] = e
	}
	return newestFirst
}
