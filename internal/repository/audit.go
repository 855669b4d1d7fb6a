package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

type AuditRecord struct {
	ID      string
	At      time.Time
	Action  string
	ActorID string
	Meta    map[string]any
}

type AuditRepository interface {
	AppendEvent(ctx context.Context, e AuditRecord) error
	// ListEvents returns up to limit events, newest first.
	ListEvents(ctx context.Context, limit int) ([]AuditRecord, error)
	// TrimEvents keeps only the newest keep events.
	TrimEvents(ctx context.Context, keep int) error
}

type auditRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewAuditRepository(db *sql.DB, log *slog.Logger) AuditRepository {
	if log == nil {
		log = slog.Default()
	}
	return &auditRepo{db: db, log: log}
}

func (r *auditRepo) AppendEvent(ctx context.Context, e AuditRecord) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("encode audit meta: %w", err)
	}
	if e.Meta == nil {
		meta = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO audit_events (id, at, action, actor_id, meta) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.At.UnixMilli(), e.Action, e.ActorID, string(meta))
	if err != nil {
		r.log.Error("append audit event failed", "action", e.Action, "error", err)
		return fmt.Errorf("%w: append audit event: %w", common.ErrStore, err)
	}
	return nil
}

func (r *auditRepo) ListEvents(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, at, action, actor_id, meta FROM audit_events ORDER BY at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit events: %w", common.ErrStore, err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var e AuditRecord
		var at int64
		var meta string
		if err := rows.Scan(&e.ID, &at, &e.Action, &e.ActorID, &meta); err != nil {
			return nil, fmt.Errorf("%w: scan audit event: %w", common.ErrStore, err)
		}
		e.At = time.UnixMilli(at).UTC()
		if err := json.Unmarshal([]byte(meta), &e.Meta); err != nil {
			r.log.Warn("bad audit meta", "id", e.ID, "error", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *auditRepo) TrimEvents(ctx context.Context, keep int) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM audit_events WHERE rowid NOT IN (
	SELECT rowid FROM audit_events ORDER BY at DESC, rowid DESC LIMIT ?
)`, keep)
	if err != nil {
		return fmt.Errorf("%w: trim audit events: %w", common.ErrStore, err)
	}
	return nil
}
