package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-intake/internal/repository"
)

const DefaultCapacity = 5000

type Event struct {
	ID      string         `json:"id"`
	At      time.Time      `json:"at"`
	Action  string         `json:"action"`
	ActorID string         `json:"actorId"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Trail keeps the most recent events in memory, newest first, and mirrors
// them to a repository when one is configured.
type Trail struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	store    repository.AuditRepository
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Trail)

func WithCapacity(n int) Option {
	return func(t *Trail) {
		if n > 0 {
			t.capacity = n
		}
	}
}

func WithStore(s repository.AuditRepository) Option {
	return func(t *Trail) { t.store = s }
}

func NewTrail(logger *slog.Logger, opts ...Option) *Trail {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Trail{capacity: DefaultCapacity, logger: logger, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Restore loads persisted events into memory.
func (t *Trail) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	recs, err := t.store.ListEvents(ctx, t.capacity)
	if err != nil {
		return err
	}
	events := make([]Event, 0, len(recs))
	for _, r := range recs {
		events = append(events, Event{ID: r.ID, At: r.At, Action: r.Action, ActorID: r.ActorID, Meta: r.Meta})
	}
	t.mu.Lock()
	t.events = events
	t.mu.Unlock()
	t.logger.Info("audit trail restored", "events", len(events))
	return nil
}

// Record prepends an event. Store failures are logged, never returned.
func (t *Trail) Record(ctx context.Context, action, actorID string, meta map[string]any) Event {
	e := Event{ID: uuid.NewString(), At: t.now().UTC(), Action: action, ActorID: actorID, Meta: meta}

	t.mu.Lock()
	t.events = append([]Event{e}, t.events...)
	if len(t.events) > t.capacity {
		t.events = t.events[:t.capacity]
	}
	t.mu.Unlock()

	if t.store != nil {
		rec := repository.AuditRecord{ID: e.ID, At: e.At, Action: e.Action, ActorID: e.ActorID, Meta: e.Meta}
		if err := t.store.AppendEvent(ctx, rec); err != nil {
			t.logger.Error("audit.persist.failed", "action", action, "error", err)
		} else if err := t.store.TrimEvents(ctx, t.capacity); err != nil {
			t.logger.Warn("audit.trim.failed", "error", err)
		}
	}
	t.logger.Debug("audit.recorded", "action", action, "actor", actorID)
	return e
}

// List returns up to limit events, newest first. limit <= 0 returns all.
func (t *Trail) List(limit int) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, n)
	copy(out, t.events[:n])
	return out
}

func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}
