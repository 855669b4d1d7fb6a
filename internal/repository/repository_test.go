package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/internal/common"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "intake.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	return db
}

func TestJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(openTestDB(t), nil)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	jobs := []JobRecord{
		{ID: "a", OwnerID: "u1", FileName: "a.mp3", Status: "completed", Percent: 100, Mode: "single", Text: "готово", CreatedAt: base, UpdatedAt: base},
		{ID: "b", OwnerID: "u1", FileName: "b.mp3", Status: "running", Percent: 40, Mode: "segmented", CreatedAt: base.Add(time.Minute), UpdatedAt: base},
		{ID: "c", OwnerID: "u2", FileName: "c.mp3", Status: "queued", Percent: 1, Mode: "pending", CreatedAt: base.Add(2 * time.Minute), UpdatedAt: base},
	}
	for _, j := range jobs {
		require.NoError(t, repo.SaveJob(ctx, j))
	}

	// upsert
	jobs[1].Percent = 55
	require.NoError(t, repo.SaveJob(ctx, jobs[1]))
	got, err := repo.GetJob(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 55, got.Percent)
	assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))

	n, err := repo.MarkInterrupted(ctx, "interrupted by restart", base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "completed", all[0].Status)
	assert.Equal(t, "готово", all[0].Text)
	for _, j := range all[1:] {
		assert.Equal(t, "failed", j.Status)
		assert.Equal(t, "interrupted by restart", j.Error)
	}

	require.NoError(t, repo.DeleteJob(ctx, "a"))
	_, err = repo.GetJob(ctx, "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditRepository(openTestDB(t), nil)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	for i, action := range []string{"transcription.started", "transcription.completed", "transcription.started"} {
		require.NoError(t, repo.AppendEvent(ctx, AuditRecord{
			ID:      string(rune('a' + i)),
			At:      base.Add(time.Duration(i) * time.Second),
			Action:  action,
			ActorID: "u1",
			Meta:    map[string]any{"jobId": "j1", "parts": i},
		}))
	}

	events, err := repo.ListEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].ID)
	assert.Equal(t, "j1", events[0].Meta["jobId"])
	assert.EqualValues(t, 2, events[0].Meta["parts"])

	require.NoError(t, repo.TrimEvents(ctx, 1))
	events, err = repo.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "c", events[0].ID)
}

func TestStoreErrorsKeepDriverChain(t *testing.T) {
	db := openTestDB(t)
	jobs := NewJobRepository(db, nil)
	events := NewAuditRepository(db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := map[string]error{
		"save job":     jobs.SaveJob(ctx, JobRecord{ID: "x", OwnerID: "u1", Status: "queued"}),
		"append event": events.AppendEvent(ctx, AuditRecord{ID: "e1", Action: "transcription.started", At: time.Now()}),
	}
	_, errs["list jobs"] = jobs.ListJobs(ctx)
	_, errs["list events"] = events.ListEvents(ctx, 10)

	for name, err := range errs {
		require.Error(t, err, name)
		assert.ErrorIs(t, err, common.ErrStore, name)
		assert.ErrorIs(t, err, context.Canceled, name)
	}
}
