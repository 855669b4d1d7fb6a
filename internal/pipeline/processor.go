// Package pipeline runs a whole matter through extraction, retrieval and
// risk analysis in one call.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
	"github.com/joseph-ayodele/legal-intake/internal/risk"
)

const maxDocuments = 180

// Request is a matter with its attachments and any extra context documents
// (for example a curated practice library).
type Request struct {
	MatterID     string
	Matter       risk.Matter
	MeetingNotes string
	Attachments  []Attachment
	Context      []retrieval.Document
}

// Batch is everything ProcessAll produces for a matter.
type Batch struct {
	Attachments []AttachmentResult   `json:"attachments"`
	Documents   []retrieval.Document `json:"documents"`
	Analysis    risk.Analysis        `json:"analysis"`
}

// Processor coordinates attachment extraction then matter analysis.
type Processor struct {
	Logger  *slog.Logger
	Extract *ExtractStage
	Risk    *risk.Service
}

func NewProcessor(logger *slog.Logger, extract *ExtractStage, analyzer *risk.Service) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Extract: extract, Risk: analyzer}
}

// ProcessAll extracts every attachment, builds retrieval documents and runs
// the analysis. When the matter has no raw text, the extracted attachment
// text stands in for it.
func (p *Processor) ProcessAll(ctx context.Context, req Request) (Batch, error) {
	results, err := p.Extract.Run(ctx, req.Attachments)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "matter_id", req.MatterID, "err", err)
		return Batch{Attachments: results}, err
	}

	var attDocs []retrieval.Document
	var texts []string
	for i, r := range results {
		if r.Text == "" {
			continue
		}
		texts = append(texts, r.Text)
		attDocs = append(attDocs, retrieval.AttachmentDocuments(req.Attachments[i].Attachment, r.Text, r.Method)...)
	}

	matter := req.Matter
	if strings.TrimSpace(matter.RawText) == "" {
		matter.RawText = strings.Join(texts, "\n\n")
	}
	rm := retrieval.Matter{
		ID:           req.MatterID,
		Company:      matter.Company,
		Industry:     matter.Industry,
		Summary:      matter.Summary,
		RawText:      matter.RawText,
		MeetingNotes: req.MeetingNotes,
	}

	docs := make([]retrieval.Document, 0, len(req.Context)+len(attDocs)+12)
	docs = append(docs, req.Context...)
	docs = append(docs, attDocs...)
	analysis := p.Risk.AnalyzeMatter(ctx, matter, docs)
	p.Logger.Info("processor.analyze.ok",
		"matter_id", req.MatterID,
		"engine", analysis.Engine,
		"score", analysis.RiskScore,
		"urgency", analysis.Urgency,
	)

	rm.RiskLines = analysis.RiskLines()
	rm.TimelineLines = analysis.TimelineLines()
	rm.ObligationLines = analysis.Obligations

	all := make([]retrieval.Document, 0, len(docs)+12)
	all = append(all, req.Context...)
	all = append(all, retrieval.MatterDocuments(rm)...)
	all = append(all, attDocs...)
	if len(all) > maxDocuments {
		all = all[:maxDocuments]
	}
	return Batch{Attachments: results, Documents: all, Analysis: analysis}, nil
}
