package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
)

const (
	tesseractTimeout = 45 * time.Second
	fallbackLanguage = "eng"
)

// recognizeLocal OCRs every page with tesseract and prefixes each with its number.
// A missing tesseract binary stops the loop; it will not appear mid-run.
func (p *Pipeline) recognizeLocal(ctx context.Context, images []string, opts Options) string {
	var pages []string
	for i, img := range images {
		text, unavailable := p.tesseract(ctx, img, opts)
		if unavailable {
			p.logger.Warn("ocr.tesseract.unavailable")
			break
		}
		if text != "" {
			pages = append(pages, fmt.Sprintf("Страница %d\n%s", i+1, text))
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

func (p *Pipeline) tesseract(ctx context.Context, img string, opts Options) (string, bool) {
	for _, lang := range []string{opts.Language, fallbackLanguage} {
		args := []string{img, "stdout", "-l", lang, "--oem", "1", "--psm", "6"}
		if opts.TessdataDir != "" {
			args = append(args, "--tessdata-dir", opts.TessdataDir)
		}

		cctx, cancel := context.WithTimeout(ctx, tesseractTimeout)
		out, _, err := p.runner.Run(cctx, "tesseract", p.logger, args...)
		cancel()
		if err != nil {
			if runner.IsUnavailable(err) {
				return "", true
			}
			continue
		}
		if text := strings.TrimSpace(string(out)); text != "" {
			return text, false
		}
	}
	return "", false
}
