package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/extract"
	"github.com/joseph-ayodele/legal-intake/internal/jobs"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
	"github.com/joseph-ayodele/legal-intake/internal/transcribe"
)

// DefaultOwner is the job owner used for files picked up from the inbox.
const DefaultOwner = "inbox"

type Service struct {
	extractor extract.TextExtractor
	analyzer  *risk.Service
	jobs      JobSubmitter
	owner     string
	maxBytes  int64
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithJobs enables media submission; without it media files are skipped.
func WithJobs(j JobSubmitter) Option {
	return func(s *Service) { s.jobs = j }
}

func WithOwner(owner string) Option {
	return func(s *Service) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithMaxBytes caps the size of files read into memory.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func NewService(extractor extract.TextExtractor, analyzer *risk.Service, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		extractor: extractor,
		analyzer:  analyzer,
		owner:     DefaultOwner,
		maxBytes:  jobs.DefaultMaxBytes,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// HandleFile processes one file and writes its sidecar next to it.
func (s *Service) HandleFile(ctx context.Context, path string) (Outcome, error) {
	start := time.Now()
	abs, err := filepath.Abs(path)
	if err != nil {
		return Outcome{SourcePath: path}, fmt.Errorf("abs path: %w", err)
	}
	out := Outcome{SourcePath: abs, Class: constants.MapExtToClass(constants.ExtOf(abs))}
	if !Eligible(abs) {
		return out, common.NewAppError("UNSUPPORTED", "unsupported or missing extension", common.ErrUnsupportedFormat)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	out.SizeBytes = info.Size()
	if info.Size() > s.maxBytes {
		return s.fail(out, common.NewAppError("PAYLOAD_TOO_LARGE",
			fmt.Sprintf("file is %d bytes, limit %d", info.Size(), s.maxBytes), common.ErrPayloadTooLarge))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	ctx = common.WithOwnerID(common.WithRequestID(ctx, "inbox-"+out.HashHex[:12]), s.owner)
	if out.Class == constants.ClassMedia {
		err = s.submitMedia(ctx, abs, data, &out)
	} else {
		err = s.analyzeDocument(ctx, abs, data, &out)
	}
	if err != nil {
		return s.fail(out, err)
	}

	out.ProcessedAt = s.now().UTC()
	if err := writeSidecar(out); err != nil {
		return out, err
	}
	s.logger.Info("ingest.file.ok",
		"path", abs,
		"class", out.Class,
		"method", out.Method,
		"job_id", out.JobID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// analyzeDocument fails with ErrEmptyExtraction when no strategy produced text.
func (s *Service) analyzeDocument(ctx context.Context, path string, data []byte, out *Outcome) error {
	name := filepath.Base(path)
	res := s.extractor.Extract(ctx, data, constants.ExtOf(name), name)
	out.Method = res.Method
	out.Warning = res.Warning
	out.TextRunes = utf8.RuneCountInString(res.Text)
	if res.Text == "" {
		return common.NewAppError("EMPTY_EXTRACTION", string(res.Method), common.ErrEmptyExtraction)
	}
	if s.analyzer == nil {
		return nil
	}
	a := s.analyzer.AnalyzeMatter(ctx, risk.Matter{Company: name, SourceType: string(out.Class), RawText: res.Text}, nil)
	out.Analysis = &a
	return nil
}

func (s *Service) submitMedia(ctx context.Context, path string, data []byte, out *Outcome) error {
	if s.jobs == nil {
		out.Warning = "transcription is not configured; media skipped"
		return nil
	}
	name := filepath.Base(path)
	job, err := s.jobs.Submit(ctx, jobs.Submission{
		OwnerID:  s.owner,
		FileName: name,
		MimeType: transcribe.MimeTypeFor(constants.ExtOf(name)),
		Data:     data,
	})
	if err != nil {
		return err
	}
	out.JobID = job.ID
	return nil
}

// fail records err in the sidecar so the file is not silently dropped.
func (s *Service) fail(out Outcome, err error) (Outcome, error) {
	out.Err = err.Error()
	out.ProcessedAt = s.now().UTC()
	if werr := writeSidecar(out); werr != nil {
		s.logger.Warn("ingest.sidecar.write_failed", "path", out.SourcePath, "error", werr)
	}
	s.logger.Error("ingest.file.failed", "path", out.SourcePath, "error", err)
	return out, err
}

func writeSidecar(out Outcome) error {
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	tmp := out.SourcePath + SidecarSuffix + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return os.Rename(tmp, out.SourcePath+SidecarSuffix)
}

// Run consumes watcher events until ctx is done or events is closed.
func (s *Service) Run(ctx context.Context, events <-chan string, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			if _, err := s.HandleFile(ctx, p); err != nil {
				s.logger.Debug("ingest.event.skipped", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("ingest.watcher.error", "error", err)
		}
	}
}
