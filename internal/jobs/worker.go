package jobs

import (
	"context"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/transcribe"
)

func (r *Registry) process(workerID int, t task) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx = common.WithOwnerID(common.WithRequestID(ctx, t.jobID), t.sub.OwnerID)
	start := time.Now()

	r.update(ctx, t.jobID, true, func(j *Job) {
		j.Status = constants.JobStatusRunning
		j.Percent = max(j.Percent, 3)
		j.Message = "Подготовка к расшифровке"
	})

	res, err := r.tr.Transcribe(ctx, transcribe.Request{
		FileName: t.sub.FileName,
		MimeType: t.sub.MimeType,
		Data:     t.sub.Data,
		Prompt:   t.sub.Prompt,
	}, func(p transcribe.Progress) {
		r.update(ctx, t.jobID, false, func(j *Job) {
			j.Status = constants.JobStatusRunning
			j.Percent = max(j.Percent, p.Percent)
			j.Message = p.Message
			j.Mode = p.Mode
			j.PartsTotal = p.PartsTotal
			j.PartIndex = p.PartIndex
		})
	})

	r.finish(ctx, t.jobID, res, err)
	if err != nil {
		r.logger.Error("transcription failed", "worker_id", workerID, "job_id", t.jobID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return
	}
	r.logger.Info("transcription completed", "worker_id", workerID, "job_id", t.jobID, "mode", res.Mode,
		"parts", res.Parts, "elapsed_ms", time.Since(start).Milliseconds())
}

func (r *Registry) finish(ctx context.Context, jobID string, res transcribe.Result, err error) {
	var snap Job
	var ok bool
	if err != nil {
		snap, ok = r.update(ctx, jobID, true, func(j *Job) {
			j.Status = constants.JobStatusFailed
			j.Percent = 100
			j.Message = "Ошибка расшифровки"
			j.Error = err.Error()
		})
		if ok {
			r.record(ctx, constants.AuditTranscriptionFailed, snap.OwnerID, map[string]any{
				"jobId":    jobID,
				"fileName": snap.FileName,
				"error":    snap.Error,
			})
		}
		return
	}

	snap, ok = r.update(ctx, jobID, true, func(j *Job) {
		j.Status = constants.JobStatusCompleted
		j.Percent = 100
		j.Message = "Расшифровка завершена"
		j.Mode = res.Mode
		j.PartsTotal = res.Parts
		j.PartIndex = res.Parts
		j.Text = res.Text
	})
	if ok {
		r.record(ctx, constants.AuditTranscriptionCompleted, snap.OwnerID, map[string]any{
			"jobId":    jobID,
			"fileName": snap.FileName,
			"mode":     string(res.Mode),
			"parts":    res.Parts,
		})
	}
}

// update applies fn under the lock and optionally persists the result.
// Jobs evicted meanwhile are ignored.
func (r *Registry) update(ctx context.Context, jobID string, persist bool, fn func(*Job)) (Job, bool) {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return Job{}, false
	}
	fn(j)
	j.UpdatedAt = r.now().UTC()
	snap := *j
	r.mu.Unlock()

	if persist {
		r.persist(ctx, snap)
	}
	return snap, true
}

func (r *Registry) persist(ctx context.Context, j Job) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveJob(context.WithoutCancel(ctx), j.toRecord()); err != nil {
		r.logger.Error("jobs.store.save_failed", "job_id", j.ID, "error", err)
	}
}

func (r *Registry) record(ctx context.Context, action, owner string, meta map[string]any) {
	if r.trail == nil {
		return
	}
	r.trail.Record(context.WithoutCancel(ctx), action, owner, meta)
}
