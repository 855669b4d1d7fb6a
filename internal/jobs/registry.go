package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/audit"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/repository"
	"github.com/joseph-ayodele/legal-intake/internal/transcribe"
)

const (
	DefaultRetention     = 150
	DefaultMaxConcurrent = 2
	DefaultMaxBytes      = 512 << 20
	InterruptedMessage   = "interrupted by restart"
)

// Transcriber is the synchronous media pipeline the workers drive.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcribe.Request, onProgress transcribe.ProgressFunc) (transcribe.Result, error)
}

type task struct {
	jobID string
	sub   Submission
}

// Registry owns every transcription job for the life of the process.
// Reads return copies; only the worker that owns a job mutates it.
type Registry struct {
	tr      Transcriber
	limiter *SlidingWindow
	store   repository.JobRepository
	trail   *audit.Trail
	logger  *slog.Logger
	now     func() time.Time

	workers       int
	timeout       time.Duration
	retention     int
	maxConcurrent int
	maxBytes      int64

	mu   sync.RWMutex
	jobs map[string]*Job

	ch     chan task
	wg     sync.WaitGroup
	once   sync.Once
	qmu    sync.Mutex
	closed bool
}

type Option func(*Registry)

func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.ch = make(chan task, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithRetention(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.retention = n
		}
	}
}

func WithMaxConcurrent(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxConcurrent = n
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

func WithRateLimit(limit int, window time.Duration) Option {
	return func(r *Registry) {
		if limit > 0 && window > 0 {
			r.limiter = NewSlidingWindow(limit, window)
		}
	}
}

func WithStore(s repository.JobRepository) Option {
	return func(r *Registry) { r.store = s }
}

func WithAudit(t *audit.Trail) Option {
	return func(r *Registry) { r.trail = t }
}

// OptionsFromConfig maps process configuration onto registry options.
func OptionsFromConfig(cfg common.TranscriptionConfig) []Option {
	return []Option{
		WithWorkers(cfg.Workers),
		WithJobTimeout(cfg.JobTimeout),
		WithRetention(cfg.Retention),
		WithMaxConcurrent(cfg.MaxConcurrentJobs),
		WithMaxBytes(cfg.MaxBytes),
		WithRateLimit(cfg.RateLimit, cfg.RateWindow),
	}
}

// NewRegistry starts the worker pool. tr may be nil, in which case every
// submission is rejected with ErrBackendMissing.
func NewRegistry(tr Transcriber, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		tr:            tr,
		limiter:       NewSlidingWindow(8, 15*time.Minute),
		logger:        logger,
		now:           time.Now,
		workers:       4,
		timeout:       2 * time.Hour,
		retention:     DefaultRetention,
		maxConcurrent: DefaultMaxConcurrent,
		maxBytes:      DefaultMaxBytes,
		jobs:          make(map[string]*Job),
		ch:            make(chan task, 256),
	}
	for _, o := range opts {
		o(r)
	}
	r.start()
	return r
}

func (r *Registry) start() {
	r.once.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go func(workerID int) {
				defer r.wg.Done()
				r.logger.Debug("worker started", "worker_id", workerID)
				for t := range r.ch {
					r.process(workerID, t)
				}
				r.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Restore reloads persisted jobs. Jobs that were queued or running when the
// previous process stopped are failed; their media is gone.
func (r *Registry) Restore(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	if _, err := r.store.MarkInterrupted(ctx, InterruptedMessage, r.now().UTC()); err != nil {
		return err
	}
	recs, err := r.store.ListJobs(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	for _, rec := range recs {
		r.jobs[rec.ID] = fromRecord(rec)
	}
	evicted := r.pruneLocked()
	r.mu.Unlock()

	r.forget(ctx, evicted)
	r.logger.Info("jobs restored", "count", len(recs), "evicted", len(evicted))
	return nil
}

// Submit validates and admits a submission, then queues it. It returns the
// queued job without waiting for any work. When the queue is full the job is
// kept as failed and the QUEUE_FULL error is returned.
func (r *Registry) Submit(ctx context.Context, sub Submission) (Job, error) {
	if err := r.validate(sub); err != nil {
		return Job{}, err
	}

	if !r.limiter.Allow(sub.OwnerID) {
		r.logger.Warn("jobs.submit.rate_limited", "owner", sub.OwnerID)
		return Job{}, common.NewAppError("RATE_LIMITED",
			fmt.Sprintf("Превышен лимит расшифровок: %d запросов за %d минут.",
				r.limiter.Limit(), int(math.Round(r.limiter.Window().Minutes()))),
			common.ErrRateLimited)
	}

	now := r.now().UTC()
	job := &Job{
		ID:        "transcribe-job-" + uuid.NewString(),
		Status:    constants.JobStatusQueued,
		Percent:   1,
		Message:   "Задача поставлена в очередь",
		Mode:      constants.ModePending,
		FileName:  sub.FileName,
		OwnerID:   sub.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	if active := r.activeLocked(sub.OwnerID); active >= r.maxConcurrent {
		r.mu.Unlock()
		r.logger.Warn("jobs.submit.concurrency_limited", "owner", sub.OwnerID, "active", active)
		return Job{}, common.NewAppError("CONCURRENCY_LIMIT",
			fmt.Sprintf("Достигнут лимит параллельных расшифровок (%d). Дождись завершения текущих задач.", r.maxConcurrent),
			common.ErrConcurrencyLimit)
	}
	r.jobs[job.ID] = job
	evicted := r.pruneLocked()
	snap := *job
	r.mu.Unlock()

	r.forget(ctx, evicted)
	r.persist(ctx, snap)
	r.record(ctx, constants.AuditTranscriptionStarted, snap.OwnerID, map[string]any{
		"jobId":    snap.ID,
		"fileName": snap.FileName,
	})

	if err := r.enqueue(task{jobID: job.ID, sub: sub}); err != nil {
		r.finish(context.Background(), job.ID, transcribe.Result{}, err)
		return Job{}, err
	}
	r.logger.Info("jobs.submit.queued", "job_id", snap.ID, "owner", snap.OwnerID, "file", snap.FileName, "bytes", len(sub.Data))
	return snap, nil
}

func (r *Registry) validate(sub Submission) error {
	if r.tr == nil {
		return common.NewAppError("BACKEND_MISSING",
			"OPENAI_API_KEY не задан. Добавь ключ в .env для авторасшифровки.", common.ErrBackendMissing)
	}
	v := common.NewValidator().
		Field("ownerId", sub.OwnerID, common.Required).
		Field("fileName", sub.FileName, common.Required, common.MaxLength(255)).
		Field("data", sub.Data, common.Required).
		Field("extension", constants.ExtOf(sub.FileName), common.OneOf(constants.MediaExtensions))
	if err := v.Err(); err != nil {
		return err
	}
	if int64(len(sub.Data)) > r.maxBytes {
		return common.NewAppError("PAYLOAD_TOO_LARGE",
			fmt.Sprintf("Файл слишком большой. Лимит %d МБ.", int(math.Round(float64(r.maxBytes)/(1<<20)))),
			common.ErrPayloadTooLarge)
	}
	return nil
}

func (r *Registry) enqueue(t task) error {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	if r.closed {
		r.logger.Warn("cannot enqueue: registry is shutting down", "job_id", t.jobID)
		return common.NewAppError("SHUTTING_DOWN", "registry is shutting down", common.ErrInternal)
	}
	select {
	case r.ch <- t:
		return nil
	default:
		r.logger.Warn("jobs.enqueue.queue_full", "job_id", t.jobID, "capacity", cap(r.ch))
		return common.NewAppError("QUEUE_FULL",
			"Очередь расшифровки переполнена. Повтори попытку позже.", common.ErrQueueFull)
	}
}

// Get returns a snapshot of a job. Text is only exposed once completed.
// An empty requester reads any job; other owners see ErrNotFound.
func (r *Registry) Get(id, requester string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok || (requester != "" && j.OwnerID != requester) {
		return Job{}, common.NewAppError("NOT_FOUND", "Transcription job not found", common.ErrNotFound)
	}
	snap := *j
	if snap.Status != constants.JobStatusCompleted {
		snap.Text = ""
	}
	return snap, nil
}

// List returns snapshots for owner (all owners when empty), newest first.
func (r *Registry) List(owner string) []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if owner == "" || j.OwnerID == owner {
			out = append(out, *j)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// Len is the number of retained jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *Registry) activeLocked(owner string) int {
	n := 0
	for _, j := range r.jobs {
		if j.OwnerID == owner && j.Status.IsActive() {
			n++
		}
	}
	return n
}

// pruneLocked evicts terminal jobs, oldest first, until retention is met.
// Active jobs are never evicted.
func (r *Registry) pruneLocked() []string {
	if len(r.jobs) <= r.retention {
		return nil
	}
	all := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		all = append(all, j)
	}
	sort.SliceStable(all, func(i, k int) bool { return all[i].CreatedAt.Before(all[k].CreatedAt) })

	var evicted []string
	for _, j := range all {
		if len(r.jobs) <= r.retention {
			break
		}
		if j.Status.IsTerminal() {
			delete(r.jobs, j.ID)
			evicted = append(evicted, j.ID)
		}
	}
	return evicted
}

func (r *Registry) forget(ctx context.Context, ids []string) {
	if r.store == nil {
		return
	}
	for _, id := range ids {
		if err := r.store.DeleteJob(ctx, id); err != nil {
			r.logger.Warn("jobs.store.delete_failed", "job_id", id, "error", err)
		}
	}
}

// Shutdown stops accepting work and waits for queued jobs to drain.
func (r *Registry) Shutdown(ctx context.Context) {
	r.qmu.Lock()
	if r.closed {
		r.qmu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.qmu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); r.wg.Wait() }()

	select {
	case <-ctx.Done():
		r.logger.Warn("shutdown interrupted by context")
	case <-done:
		r.logger.Info("job queue drained, shutdown complete")
	}
}
