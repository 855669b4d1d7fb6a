package openai

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

const analysisMaxOutputTokens = 1200

// AnalyzeMatter implements llm.MatterAnalyzer. The reply is validated against
// the risk analysis schema before it is returned.
func (c *Client) AnalyzeMatter(ctx context.Context, matter llm.MatterInput, docs []llm.ContextDoc) (llm.ModelAnalysis, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(matter.RawText),
		"context_docs", len(docs),
	)

	text, err := c.responses(ctx, map[string]any{
		"model": c.cfg.Model,
		"input": []map[string]any{
			{"role": "system", "content": []map[string]any{{"type": "input_text", "text": llm.BuildAnalysisSystemPrompt()}}},
			{"role": "user", "content": []map[string]any{{"type": "input_text", "text": llm.BuildAnalysisUserPrompt(matter, docs)}}},
		},
		"max_output_tokens": analysisMaxOutputTokens,
	})
	if err != nil {
		c.logger.Error("llm.analyze.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.ModelAnalysis{}, err
	}

	out, err := llm.ParseModelAnalysis([]byte(text), c.logger)
	if err != nil {
		c.logger.Error("llm.analyze.schema_validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.ModelAnalysis{}, err
	}

	c.logger.Info("llm.analyze.ok",
		"req_id", rid,
		"urgency", out.Urgency,
		"risks", len(out.Risks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
