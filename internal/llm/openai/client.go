package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

var errNoAPIKey = errors.New("OPENAI_API_KEY is not configured")

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func extractOutputText(resp responsesResponse) string {
	if s := strings.TrimSpace(resp.OutputText); s != "" {
		return s
	}
	var chunks []string
	for _, item := range resp.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				chunks = append(chunks, c.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}

// responses posts to /responses and returns the concatenated output text.
func (c *Client) responses(ctx context.Context, body map[string]any) (string, error) {
	if !c.Configured() {
		return "", errNoAPIKey
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	raw, _, err := llm.SendJSON(ctx, c.http, c.cfg.BaseURL+"/responses", body, c.authHeaders(), c.logger)
	if err != nil {
		return "", fmt.Errorf("openai responses: %w", err)
	}

	var resp responsesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("llm.responses.decode_error", "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	text := extractOutputText(resp)
	if text == "" {
		return "", errors.New("openai returned empty output")
	}
	return text, nil
}
