package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/ocr"
)

// strategy is one link of the extraction chain. ok=false passes control to the next link.
type strategy struct {
	method constants.Method
	fn     func(ctx context.Context, data []byte, ext string) (Result, bool)
}

type Extractor struct {
	runner  runner.Runner
	ocr     PDFRecognizer
	ocrSet  bool
	ocrOpts ocr.Options
	docconv func(data []byte, ext string) (string, error)
	logger  *slog.Logger
}

type Option func(*Extractor)

func WithRunner(r runner.Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithOCR replaces the OCR stage. Passing nil disables OCR.
func WithOCR(p PDFRecognizer) Option {
	return func(e *Extractor) {
		e.ocr = p
		e.ocrSet = true
	}
}

func WithOCROptions(o ocr.Options) Option {
	return func(e *Extractor) { e.ocrOpts = ocr.ResolveOptions(o) }
}

func withDocconv(fn func([]byte, string) (string, error)) Option {
	return func(e *Extractor) { e.docconv = fn }
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		runner:  runner.New(),
		ocrOpts: ocr.ResolveOptions(ocr.Options{}),
		docconv: convertWithDocconv,
		logger:  logger,
	}
	for _, o := range opts {
		o(e)
	}
	if !e.ocrSet {
		e.ocr = ocr.NewPipeline(logger, ocr.WithRunner(e.runner))
	}
	return e
}

// Extract runs the strategy chain for ext; the first useful result wins.
func (e *Extractor) Extract(ctx context.Context, data []byte, ext, fileName string) Result {
	ext = constants.NormalizeExt(ext)
	if len(data) == 0 {
		return Result{Method: constants.MethodEmpty}
	}
	start := time.Now()

	if constants.MapExtToClass(ext) == constants.ClassText {
		return Result{Text: textclean.Sanitize(decodeUTF8(data)), Method: constants.MethodPlainText}
	}

	var ocrWarning string
	for _, s := range e.chain(ext) {
		res, ok := s.fn(ctx, data, ext)
		if res.Warning != "" {
			ocrWarning = res.Warning
		}
		if !ok {
			e.logger.Debug("extract.strategy.miss", "method", s.method, "ext", ext)
			continue
		}
		res.Text = textclean.Sanitize(res.Text)
		e.logger.Info("extract.strategy.ok",
			"file", fileName,
			"method", res.Method,
			"chars", len([]rune(res.Text)),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res
	}

	if text := printableText(data); textclean.IsUseful(text, "") {
		e.logger.Info("extract.strategy.ok", "file", fileName, "method", constants.MethodPrintableFallback,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Result{Text: textclean.Sanitize(text), Method: constants.MethodPrintableFallback}
	}

	name := fileName
	if strings.TrimSpace(name) == "" {
		name = "вложения"
	}
	warning := fmt.Sprintf("Не удалось извлечь текст из %s", name)
	if ocrWarning != "" {
		warning += ". " + ocrWarning
	}
	e.logger.Warn("extract.unsupported", "file", fileName, "ext", ext, "elapsed_ms", time.Since(start).Milliseconds())
	return Result{Method: constants.UnsupportedMethod(ext), Warning: warning}
}

func (e *Extractor) chain(ext string) []strategy {
	switch constants.MapExtToClass(ext) {
	case constants.ClassOffice:
		chain := []strategy{
			{constants.MethodTextutil, e.textutil(constants.MethodTextutil)},
			{constants.MethodDocconv, e.viaDocconv},
		}
		if ext == "docx" {
			chain = append(chain, strategy{constants.MethodDocxXML, e.docxXML})
		}
		return chain
	case constants.ClassPDF:
		return []strategy{
			{constants.MethodTextutilPDF, e.textutil(constants.MethodTextutilPDF)},
			{constants.MethodPDFFallback, e.pdfTokens},
			{constants.MethodOCRTesseract, e.pdfOCR},
		}
	}
	return nil
}

func (e *Extractor) pdfTokens(_ context.Context, data []byte, ext string) (Result, bool) {
	text := ExtractPDFText(data)
	if !textclean.IsUseful(text, ext) {
		return Result{}, false
	}
	return Result{Text: text, Method: constants.MethodPDFFallback}, true
}

func (e *Extractor) pdfOCR(ctx context.Context, data []byte, _ string) (Result, bool) {
	if e.ocr == nil {
		return Result{}, false
	}
	r := e.ocr.RecognizePDFBytes(ctx, data, e.ocrOpts)
	res := Result{Text: r.Text, Method: r.Method, Warning: r.Warning}
	return res, strings.TrimSpace(r.Text) != ""
}
