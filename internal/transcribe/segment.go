package transcribe

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/core/runner"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
)

var rePartFile = regexp.MustCompile(`(?i)^part-\d{3}\.mp3$`)

func (t *Transcriber) transcribeSegmented(ctx context.Context, req Request, onProgress ProgressFunc) (Result, error) {
	scratch, err := runner.NewScratch("legal-intake-transcribe-*", t.logger)
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer scratch.Close()

	input, err := scratch.WriteFile("source."+GuessInputExtension(req.FileName, req.MimeType), req.Data)
	if err != nil {
		return Result{}, fmt.Errorf("write media: %w", err)
	}

	onProgress(Progress{Stage: "segmenting", Message: "Нарезка большого файла на части", Percent: 8,
		Mode: constants.ModeSegmented})

	if err := t.segment(ctx, input, scratch.Path("part-%03d.mp3")); err != nil {
		return Result{}, err
	}

	parts, err := listParts(scratch.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("list segments: %w", err)
	}
	if len(parts) == 0 {
		return Result{}, common.NewAppError("NO_SEGMENTS", "ffmpeg не создал сегменты для расшифровки", common.ErrToolFailed)
	}

	total := len(parts)
	onProgress(Progress{Stage: "transcribing", Message: fmt.Sprintf("Начинаю расшифровку частей (%d)", total),
		Percent: 12, Mode: constants.ModeSegmented, PartsTotal: total})

	texts := make([]string, 0, total)
	for i, name := range parts {
		data, err := os.ReadFile(scratch.Path(name))
		if err != nil {
			return Result{}, fmt.Errorf("read segment %s: %w", name, err)
		}

		onProgress(Progress{
			Stage:      "transcribing",
			Message:    fmt.Sprintf("Расшифровка части %d из %d", i+1, total),
			Percent:    partPercent(i, total),
			Mode:       constants.ModeSegmented,
			PartsTotal: total,
			PartIndex:  i + 1,
		})

		start := time.Now()
		text, err := t.backend.TranscribeAudio(ctx, llm.AudioRequest{
			FileName: name,
			MimeType: "audio/mpeg",
			Data:     data,
			Prompt:   req.Prompt,
		})
		if err != nil {
			return Result{}, fmt.Errorf("transcribe part %d of %d: %w", i+1, total, err)
		}
		t.logger.Debug("transcribe.segment.ok", "part", i+1, "parts", total, "bytes", len(data),
			"elapsed_ms", time.Since(start).Milliseconds())
		texts = append(texts, fmt.Sprintf("[Часть %d]\n%s", i+1, text))
	}

	return Result{Text: strings.Join(texts, "\n\n"), Mode: constants.ModeSegmented, Parts: total}, nil
}

// segment down-mixes to mono 16 kHz mp3 and cuts fixed-length parts.
func (t *Transcriber) segment(ctx context.Context, input, pattern string) error {
	cctx, cancel := context.WithTimeout(ctx, t.cfg.FFmpegTimeout)
	defer cancel()

	seconds := max(MinSegmentSeconds, t.cfg.SegmentSeconds)
	_, _, err := t.runner.Run(cctx, "ffmpeg", t.logger,
		"-y",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libmp3lame",
		"-b:a", "48k",
		"-f", "segment",
		"-segment_time", strconv.Itoa(seconds),
		pattern,
	)
	if err != nil {
		return fmt.Errorf("segment media: %w", err)
	}
	return nil
}

func listParts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, e := range entries {
		if !e.IsDir() && rePartFile.MatchString(e.Name()) {
			parts = append(parts, e.Name())
		}
	}
	sort.Strings(parts)
	return parts, nil
}

// partPercent interpolates 12..94 across parts, capped at 96.
func partPercent(index, total int) int {
	p := 12 + int(math.Round(float64(index)/float64(max(1, total))*82))
	return min(96, p)
}
