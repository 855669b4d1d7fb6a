package risk

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/core/textclean"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
)

const (
	EngineOpenAI    = "openai"
	EngineHeuristic = "heuristic"

	defaultModelScore      = 35
	defaultModelConfidence = 0.62
)

// Matter is the case material submitted for analysis.
type Matter struct {
	Company    string
	Industry   string
	SourceType string
	Summary    string
	RawText    string
}

// Service analyses matters with an external analyzer when one is configured
// and falls back to Analyze on any failure.
type Service struct {
	analyzer llm.MatterAnalyzer
	topK     int
	logger   *slog.Logger
}

type ServiceOption func(*Service)

// WithAnalyzer sets the model-backed analyzer. nil keeps heuristics only.
func WithAnalyzer(a llm.MatterAnalyzer) ServiceOption {
	return func(s *Service) { s.analyzer = a }
}

func WithTopK(k int) ServiceOption {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

func NewService(logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{topK: retrieval.DefaultTopK, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AnalyzeMatter retrieves grounding context for the matter and analyses it.
func (s *Service) AnalyzeMatter(ctx context.Context, m Matter, docs []retrieval.Document) Analysis {
	start := time.Now()
	contextDocs := retrieval.Retrieve(m.Summary+"\n"+m.RawText, docs, s.topK)

	if s.analyzer != nil {
		out, err := s.analyzer.AnalyzeMatter(ctx, llm.MatterInput{
			Company:    m.Company,
			Industry:   m.Industry,
			SourceType: m.SourceType,
			Summary:    m.Summary,
			RawText:    m.RawText,
		}, toContextDocs(contextDocs))
		if err == nil {
			a := fromModel(out)
			a.ContextDocs = contextDocs
			a.Engine = EngineOpenAI
			s.logger.Info("risk.analyze.ok", "engine", a.Engine, "score", a.RiskScore, "context_docs", len(contextDocs),
				"elapsed_ms", time.Since(start).Milliseconds())
			return a
		}
		s.logger.Warn("risk.analyze.fallback", "error", err)
	}

	a := Analyze(m.RawText)
	refs := make([]string, 0, len(contextDocs))
	for _, d := range contextDocs {
		refs = append(refs, d.Title)
	}
	a.LegalReferences = refs
	a.ContextDocs = contextDocs
	a.Engine = EngineHeuristic
	s.logger.Info("risk.analyze.ok", "engine", a.Engine, "score", a.RiskScore, "context_docs", len(contextDocs),
		"elapsed_ms", time.Since(start).Milliseconds())
	return a
}

func toContextDocs(in []retrieval.Match) []llm.ContextDoc {
	out := make([]llm.ContextDoc, 0, len(in))
	for _, m := range in {
		out = append(out, llm.ContextDoc{Title: m.Title, Tags: m.Tags, Snippet: m.Snippet})
	}
	return out
}

// fromModel clamps and caps a model reply into an Analysis.
func fromModel(m llm.ModelAnalysis) Analysis {
	a := Analysis{
		RiskScore:       int(math.Round(clamp(m.RiskScore, 0, 100, defaultModelScore))),
		Urgency:         constants.ParseLevel(m.Urgency),
		Tags:            stringList(m.Tags, 6),
		Obligations:     stringList(m.Obligations, 12),
		Actions:         stringList(m.Actions, 8),
		Confidence:      clamp(m.Confidence, 0, 1, defaultModelConfidence),
		LegalReferences: stringList(m.LegalReferences, 8),
	}
	for i, ev := range stringList(m.Timeline, 10) {
		a.Timeline = append(a.Timeline, TimelineEvent{Order: i + 1, Event: ev})
	}
	for _, r := range m.Risks {
		excerpt := textclean.Truncate(strings.TrimSpace(r.Excerpt), 220)
		if excerpt == "" {
			continue
		}
		category := strings.TrimSpace(r.Category)
		if category == "" {
			category = string(constants.CategoryGeneral)
		}
		a.Risks = append(a.Risks, Risk{
			Severity: constants.ParseLevel(r.Severity),
			Category: constants.Category(textclean.Truncate(category, 80)),
			Excerpt:  excerpt,
		})
		if len(a.Risks) == maxRisks {
			break
		}
	}
	return a
}

func clamp(v *float64, lo, hi, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return fallback
	}
	return math.Min(hi, math.Max(lo, *v))
}

func stringList(items []string, limit int) []string {
	out := make([]string, 0, min(len(items), limit))
	for _, it := range items {
		if it = strings.TrimSpace(it); it == "" {
			continue
		}
		out = append(out, it)
		if len(out) == limit {
			break
		}
	}
	return out
}
