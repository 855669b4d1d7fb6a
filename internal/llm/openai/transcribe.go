package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

const maxPromptRunes = 500

// TranscribeAudio implements llm.AudioTranscriber via /audio/transcriptions.
func (c *Client) TranscribeAudio(ctx context.Context, req llm.AudioRequest) (string, error) {
	if !c.Configured() {
		return "", errNoAPIKey
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", err
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = "recording.bin"
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(req.Data); err != nil {
		return "", err
	}

	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		if err := w.WriteField("prompt", textclean.Truncate(prompt, maxPromptRunes)); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	if err := c.wait(ctx); err != nil {
		return "", err
	}
	start := time.Now()
	headers := c.authHeaders()
	headers["Content-Type"] = w.FormDataContentType()

	raw, _, err := llm.Send(ctx, c.http, c.cfg.BaseURL+"/audio/transcriptions", body.Bytes(), headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode transcription: %w", err)
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", errors.New("openai transcription returned empty text")
	}
	c.logger.Info("llm.transcribe.ok",
		"file", fileName,
		"bytes", len(req.Data),
		"chars", len([]rune(text)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
