package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/extract"
	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
)

const DefaultFanout = 4

// Attachment is one stored case file with its bytes.
type Attachment struct {
	retrieval.Attachment
	Data []byte
}

// AttachmentResult is the extraction outcome for one attachment.
// Skipped attachments carry a reason and no text.
type AttachmentResult struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Method  constants.Method `json:"method,omitempty"`
	Warning string           `json:"warning,omitempty"`
	Text    string           `json:"-"`
	Skipped string           `json:"skipped,omitempty"`
}

type ExtractStage struct {
	Extractor extract.TextExtractor
	Fanout    int
	Logger    *slog.Logger
}

func NewExtractStage(tx extract.TextExtractor, fanout int, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &ExtractStage{Extractor: tx, Fanout: fanout, Logger: logger}
}

// Run extracts up to retrieval.MaxAttachments attachments with at most
// Fanout running at once. Results keep input order. Extraction never fails,
// so the only error is ctx cancellation.
func (s *ExtractStage) Run(ctx context.Context, atts []Attachment) ([]AttachmentResult, error) {
	start := time.Now()
	if len(atts) > retrieval.MaxAttachments {
		atts = atts[:retrieval.MaxAttachments]
	}
	out := make([]AttachmentResult, len(atts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Fanout)
	for i, a := range atts {
		out[i] = AttachmentResult{ID: a.ID, Name: a.Name}
		if a.SizeBytes == 0 {
			a.SizeBytes = int64(len(a.Data))
		}
		if !a.Eligible() {
			out[i].Skipped = "unsupported or too large"
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ext := a.Ext
			if ext == "" {
				ext = constants.ExtOf(a.Name)
			}
			res := s.Extractor.Extract(gctx, a.Data, constants.NormalizeExt(ext), a.Name)
			out[i].Method = res.Method
			out[i].Warning = res.Warning
			out[i].Text = res.Text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}

	s.Logger.Info("pipeline.extract.ok",
		"attachments", len(atts),
		"fanout", s.Fanout,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
