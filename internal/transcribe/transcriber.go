package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

const (
	DefaultDirectMaxBytes = 20 << 20
	DefaultSegmentSeconds = 900
	MinSegmentSeconds     = 120
	defaultFFmpegTimeout  = 30 * time.Minute
)

type Request struct {
	FileName string
	MimeType string
	Data     []byte
	Prompt   string
}

type Result struct {
	Text  string
	Mode  constants.TranscriptionMode
	Parts int
}

// Progress is emitted at each stage; Percent never decreases within one call.
type Progress struct {
	Stage      string
	Message    string
	Percent    int
	Mode       constants.TranscriptionMode
	PartsTotal int
	PartIndex  int
}

type ProgressFunc func(Progress)

type Config struct {
	DirectMaxBytes int64
	SegmentSeconds int
	FFmpegTimeout  time.Duration
}

// ConfigFrom maps process configuration onto transcriber settings.
func ConfigFrom(cfg common.TranscriptionConfig) Config {
	return Config{DirectMaxBytes: cfg.DirectMaxBytes, SegmentSeconds: cfg.SegmentSeconds}
}

type Transcriber struct {
	backend llm.AudioTranscriber
	runner  runner.Runner
	cfg     Config
	logger  *slog.Logger
}

type Option func(*Transcriber)

func WithRunner(r runner.Runner) Option {
	return func(t *Transcriber) {
		if r != nil {
			t.runner = r
		}
	}
}

func New(backend llm.AudioTranscriber, cfg Config, logger *slog.Logger, opts ...Option) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DirectMaxBytes <= 0 {
		cfg.DirectMaxBytes = DefaultDirectMaxBytes
	}
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = DefaultSegmentSeconds
	}
	if cfg.FFmpegTimeout <= 0 {
		cfg.FFmpegTimeout = defaultFFmpegTimeout
	}
	t := &Transcriber{backend: backend, runner: runner.New(), cfg: cfg, logger: logger}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Transcribe routes by payload size: a single backend call up to DirectMaxBytes,
// ffmpeg segmentation above it.
func (t *Transcriber) Transcribe(ctx context.Context, req Request, onProgress ProgressFunc) (Result, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	if t.backend == nil {
		return Result{}, common.NewAppError("BACKEND_MISSING", "transcription backend is not configured", common.ErrBackendMissing)
	}
	start := time.Now()

	onProgress(Progress{Stage: "prepare", Message: "Подготовка файла", Percent: 5, Mode: constants.ModePending})

	if int64(len(req.Data)) > t.cfg.DirectMaxBytes {
		res, err := t.transcribeSegmented(ctx, req, onProgress)
		if err != nil {
			t.logger.Error("transcribe.segmented.failed", "file", req.FileName, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			return Result{}, err
		}
		t.logger.Info("transcribe.segmented.ok", "file", req.FileName, "parts", res.Parts,
			"elapsed_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	onProgress(Progress{Stage: "single", Message: "Отправка файла в расшифровку", Percent: 20,
		Mode: constants.ModeSingle, PartsTotal: 1})

	text, err := t.backend.TranscribeAudio(ctx, llm.AudioRequest{
		FileName: req.FileName,
		MimeType: req.MimeType,
		Data:     req.Data,
		Prompt:   req.Prompt,
	})
	if err != nil {
		t.logger.Error("transcribe.single.failed", "file", req.FileName, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, fmt.Errorf("transcribe %s: %w", req.FileName, err)
	}

	onProgress(Progress{Stage: "done", Message: "Расшифровка завершена", Percent: 100,
		Mode: constants.ModeSingle, PartsTotal: 1, PartIndex: 1})
	t.logger.Info("transcribe.single.ok", "file", req.FileName, "bytes", len(req.Data),
		"elapsed_ms", time.Since(start).Milliseconds())
	return Result{Text: text, Mode: constants.ModeSingle, Parts: 1}, nil
}
