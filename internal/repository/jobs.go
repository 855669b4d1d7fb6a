package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

// JobRecord is the persisted shape of a transcription job.
type JobRecord struct {
	ID         string
	OwnerID    string
	FileName   string
	Status     string
	Percent    int
	Message    string
	Mode       string
	PartsTotal int
	PartIndex  int
	Text       string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type JobRepository interface {
	SaveJob(ctx context.Context, j JobRecord) error
	GetJob(ctx context.Context, id string) (JobRecord, error)
	ListJobs(ctx context.Context) ([]JobRecord, error)
	DeleteJob(ctx context.Context, id string) error
	// MarkInterrupted fails every queued/running job and returns how many were touched.
	MarkInterrupted(ctx context.Context, message string, at time.Time) (int64, error)
}

type jobRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewJobRepository(db *sql.DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log}
}

func (r *jobRepo) SaveJob(ctx context.Context, j JobRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO transcription_jobs
	(id, owner_id, file_name, status, percent, message, mode, parts_total, part_index, text, error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	percent = excluded.percent,
	message = excluded.message,
	mode = excluded.mode,
	parts_total = excluded.parts_total,
	part_index = excluded.part_index,
	text = excluded.text,
	error = excluded.error,
	updated_at = excluded.updated_at`,
		j.ID, j.OwnerID, j.FileName, j.Status, j.Percent, j.Message, j.Mode, j.PartsTotal, j.PartIndex,
		j.Text, j.Error, j.CreatedAt.UnixMilli(), j.UpdatedAt.UnixMilli())
	if err != nil {
		r.log.Error("save job failed", "job_id", j.ID, "error", err)
		return fmt.Errorf("%w: save job: %w", common.ErrStore, err)
	}
	return nil
}

const jobColumns = `id, owner_id, file_name, status, percent, message, mode, parts_total, part_index, text, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (JobRecord, error) {
	var j JobRecord
	var created, updated int64
	err := s.Scan(&j.ID, &j.OwnerID, &j.FileName, &j.Status, &j.Percent, &j.Message, &j.Mode,
		&j.PartsTotal, &j.PartIndex, &j.Text, &j.Error, &created, &updated)
	if err != nil {
		return JobRecord{}, err
	}
	j.CreatedAt = time.UnixMilli(created).UTC()
	j.UpdatedAt = time.UnixMilli(updated).UTC()
	return j, nil
}

func (r *jobRepo) GetJob(ctx context.Context, id string) (JobRecord, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM transcription_jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, common.ErrNotFound
	}
	if err != nil {
		return JobRecord{}, fmt.Errorf("%w: get job: %w", common.ErrStore, err)
	}
	return j, nil
}

// ListJobs returns jobs oldest first.
func (r *jobRepo) ListJobs(ctx context.Context) ([]JobRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM transcription_jobs ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %w", common.ErrStore, err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan job: %w", common.ErrStore, err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *jobRepo) DeleteJob(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transcription_jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete job: %w", common.ErrStore, err)
	}
	return nil
}

func (r *jobRepo) MarkInterrupted(ctx context.Context, message string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE transcription_jobs
SET status = 'failed', percent = 100, error = ?, message = ?, updated_at = ?
WHERE status IN ('queued', 'running')`, message, message, at.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%w: mark interrupted: %w", common.ErrStore, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Warn("jobs interrupted by restart", "count", n)
	}
	return n, nil
}
