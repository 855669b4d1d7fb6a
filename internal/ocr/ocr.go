package ocr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
	"github.com/joseph-ayodele/legal-intake/internal/llm/openai"
)

const (
	defaultMaxPages       = 6
	defaultDPI            = 220
	defaultLanguage       = "rus+eng"
	defaultRemoteModel    = "gpt-4.1-mini"
	defaultRemoteMaxPages = 3

	warnNoImages = "Не удалось подготовить страницы PDF для OCR."
	warnEmpty    = "OCR не извлек распознаваемый текст. Проверь качество скана."
)

// Options controls one OCR attempt. Zero numeric fields take defaults;
// everything else is clamped by ResolveOptions.
type Options struct {
	MaxPages       int
	DPI            int
	Language       string
	TessdataDir    string
	AllowRemote    bool
	RemoteAPIKey   string
	RemoteModel    string
	RemoteMaxPages int
}

// Result is the outcome of RecognizePDF. Text is unsanitized.
type Result struct {
	Text    string
	Method  constants.Method
	Warning string
}

// ResolveOptions fills defaults and clamps numeric fields into safe ranges.
func ResolveOptions(in Options) Options {
	out := in
	out.MaxPages = clamp(in.MaxPages, 1, 30, defaultMaxPages)
	out.DPI = clamp(in.DPI, 120, 400, defaultDPI)
	out.RemoteMaxPages = clamp(in.RemoteMaxPages, 1, 10, defaultRemoteMaxPages)
	if out.Language = strings.TrimSpace(in.Language); out.Language == "" {
		out.Language = defaultLanguage
	}
	if out.RemoteModel = strings.TrimSpace(in.RemoteModel); out.RemoteModel == "" {
		out.RemoteModel = defaultRemoteModel
	}
	out.RemoteAPIKey = strings.TrimSpace(in.RemoteAPIKey)
	return out
}

// OptionsFromConfig builds resolved options from process configuration.
func OptionsFromConfig(cfg *common.Config) Options {
	return ResolveOptions(Options{
		MaxPages:       cfg.OCR.MaxPages,
		DPI:            cfg.OCR.DPI,
		Language:       cfg.OCR.TesseractLang,
		TessdataDir:    cfg.OCR.TessdataDir,
		AllowRemote:    cfg.OCR.OpenAIFallback,
		RemoteAPIKey:   cfg.LLM.APIKey,
		RemoteModel:    cfg.LLM.Model,
		RemoteMaxPages: cfg.OCR.OpenAIMaxPages,
	})
}

// clamp treats 0 as unset and returns def; any other value, negatives
// included, is clamped into [lo, hi].
func clamp(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	return min(hi, max(lo, v))
}

// VisionFactory builds the remote recognizer for a given key and model.
type VisionFactory func(apiKey, model string) llm.VisionRecognizer

// Pipeline renders PDF pages and recognizes them, locally first.
type Pipeline struct {
	runner runner.Runner
	vision VisionFactory
	logger *slog.Logger
}

type Option func(*Pipeline)

func WithRunner(r runner.Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

func WithVisionFactory(f VisionFactory) Option {
	return func(p *Pipeline) {
		if f != nil {
			p.vision = f
		}
	}
}

func NewPipeline(logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{runner: runner.New(), logger: logger}
	p.vision = func(apiKey, model string) llm.VisionRecognizer {
		return openai.NewClient(openai.Config{APIKey: apiKey, Model: model}, logger)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RecognizePDF OCRs a PDF on disk. It never fails; problems surface as
// an empty Result with a warning.
func (p *Pipeline) RecognizePDF(ctx context.Context, pdfPath string, opts Options) Result {
	scratch, err := runner.NewScratch("legal-intake-ocr-*", p.logger)
	if err != nil {
		p.logger.Error("ocr.scratch.failed", "error", err)
		return Result{Method: constants.MethodOCRNoImages, Warning: warnNoImages}
	}
	defer scratch.Close()
	return p.recognize(ctx, scratch, pdfPath, ResolveOptions(opts))
}

// RecognizePDFBytes writes data to a scratch directory and OCRs it.
func (p *Pipeline) RecognizePDFBytes(ctx context.Context, data []byte, opts Options) Result {
	scratch, err := runner.NewScratch("legal-intake-ocr-*", p.logger)
	if err != nil {
		p.logger.Error("ocr.scratch.failed", "error", err)
		return Result{Method: constants.MethodOCRNoImages, Warning: warnNoImages}
	}
	defer scratch.Close()

	pdfPath, err := scratch.WriteFile("input.pdf", data)
	if err != nil {
		p.logger.Error("ocr.write_input.failed", "error", err)
		return Result{Method: constants.MethodOCRNoImages, Warning: warnNoImages}
	}
	return p.recognize(ctx, scratch, pdfPath, ResolveOptions(opts))
}

func (p *Pipeline) recognize(ctx context.Context, scratch *runner.Scratch, pdfPath string, opts Options) Result {
	start := time.Now()

	images := p.renderPages(ctx, pdfPath, scratch.Path("ocr-page"), opts)
	if len(images) == 0 {
		p.logger.Warn("ocr.render.no_images", "path", pdfPath, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{Method: constants.MethodOCRNoImages, Warning: warnNoImages}
	}

	local := p.recognizeLocal(ctx, images, opts)
	if textclean.IsUseful(local, "pdf") {
		p.logger.Info("ocr.tesseract.ok",
			"pages", len(images),
			"chars", len([]rune(local)),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Text: local, Method: constants.MethodOCRTesseract}
	}

	if opts.AllowRemote && opts.RemoteAPIKey != "" {
		remote := p.recognizeRemote(ctx, images, opts)
		if textclean.IsUseful(remote, "pdf") {
			p.logger.Info("ocr.remote.ok",
				"pages", min(len(images), opts.RemoteMaxPages),
				"chars", len([]rune(remote)),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Result{Text: remote, Method: constants.MethodOCROpenAI}
		}
	}

	p.logger.Warn("ocr.empty", "pages", len(images), "elapsed_ms", time.Since(start).Milliseconds())
	return Result{Method: constants.MethodOCREmpty, Warning: warnEmpty}
}
