package ocr

import (
	"context"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

// recognizeRemote sends the first RemoteMaxPages page images to a vision model.
// Unreadable pages are skipped and backend errors yield "".
func (p *Pipeline) recognizeRemote(ctx context.Context, images []string, opts Options) string {
	if len(images) > opts.RemoteMaxPages {
		images = images[:opts.RemoteMaxPages]
	}

	inputs := make([]llm.ImageInput, 0, len(images))
	for _, img := range images {
		url, _, err := llm.ReadAsDataURL(img)
		if err != nil {
			p.logger.Debug("ocr.remote.skip_page", "path", img, "error", err)
			continue
		}
		inputs = append(inputs, llm.ImageInput{ImageURL: url})
	}
	if len(inputs) == 0 {
		return ""
	}

	start := time.Now()
	text, err := p.vision(opts.RemoteAPIKey, opts.RemoteModel).RecognizeImages(ctx, llm.OCRInstruction, inputs)
	if err != nil {
		p.logger.Warn("ocr.remote.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return ""
	}
	return text
}
