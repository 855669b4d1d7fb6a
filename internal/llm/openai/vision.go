package openai

import (
	"context"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

const visionMaxOutputTokens = 2200

// RecognizeImages implements llm.VisionRecognizer over the Responses API.
func (c *Client) RecognizeImages(ctx context.Context, instruction string, images []llm.ImageInput) (string, error) {
	content := make([]map[string]any, 0, 1+len(images))
	content = append(content, map[string]any{"type": "input_text", "text": instruction})
	for _, img := range images {
		u := strings.TrimSpace(img.ImageURL)
		if u == "" {
			continue
		}
		item := map[string]any{"type": "input_image", "image_url": u}
		if d := strings.TrimSpace(img.Detail); d != "" {
			item["detail"] = d
		}
		content = append(content, item)
	}
	if len(content) == 1 {
		return "", nil
	}

	start := time.Now()
	c.logger.Info("llm.vision.start", "model", c.cfg.Model, "images", len(content)-1)

	text, err := c.responses(ctx, map[string]any{
		"model": c.cfg.Model,
		"input": []map[string]any{
			{"role": "user", "content": content},
		},
		"max_output_tokens": visionMaxOutputTokens,
	})
	if err != nil {
		c.logger.Warn("llm.vision.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	c.logger.Info("llm.vision.ok", "chars", len([]rune(text)), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}
