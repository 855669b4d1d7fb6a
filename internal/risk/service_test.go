package risk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/llm"
	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
)

type fakeAnalyzer struct {
	out  llm.ModelAnalysis
	err  error
	docs []llm.ContextDoc
}

func (f *fakeAnalyzer) AnalyzeMatter(_ context.Context, _ llm.MatterInput, docs []llm.ContextDoc) (llm.ModelAnalysis, error) {
	f.docs = docs
	return f.out, f.err
}

func ptr(f float64) *float64 { return &f }

var testDocs = []retrieval.Document{
	{ID: "r1", Title: "Практика по неустойке", Content: "снижение неустойки по статье 333 ГК РФ штраф"},
	{ID: "r2", Title: "Отпуска", Content: "график отпусков"},
}

var testMatter = Matter{
	Company: "Ромашка",
	Summary: "Поставщик требует штраф",
	RawText: "Претензия: штраф за просрочку поставки.\nСуд до 01.03.2026.",
}

func TestService_ModelResultIsClamped(t *testing.T) {
	fa := &fakeAnalyzer{out: llm.ModelAnalysis{
		RiskScore: ptr(150),
		Urgency:   "high",
		Tags:      []string{" a ", "", "b", "c", "d", "e", "f", "g"},
		Risks: []llm.ModelRisk{
			{Severity: "HIGH", Category: "", Excerpt: "  штраф  "},
			{Severity: "weird", Category: strings.Repeat("к", 100), Excerpt: strings.Repeat("е", 300)},
			{Severity: "LOW", Category: "Договор", Excerpt: "  "},
		},
		Timeline: []string{"01.03.2026 суд", " "},
	}}
	svc := NewService(nil, WithAnalyzer(fa), WithTopK(1))

	a := svc.AnalyzeMatter(context.Background(), testMatter, testDocs)

	assert.Equal(t, EngineOpenAI, a.Engine)
	assert.Equal(t, 100, a.RiskScore)
	assert.Equal(t, constants.LevelHigh, a.Urgency)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, a.Tags)
	assert.InDelta(t, 0.62, a.Confidence, 1e-9)

	require.Len(t, a.Risks, 2)
	assert.Equal(t, constants.CategoryGeneral, a.Risks[0].Category)
	assert.Equal(t, "штраф", a.Risks[0].Excerpt)
	assert.Equal(t, constants.LevelMedium, a.Risks[1].Severity)
	assert.Len(t, []rune(string(a.Risks[1].Category)), 80)
	assert.Len(t, []rune(a.Risks[1].Excerpt), 220)

	assert.Equal(t, []TimelineEvent{{Order: 1, Event: "01.03.2026 суд"}}, a.Timeline)

	require.Len(t, a.ContextDocs, 1)
	assert.Equal(t, "r1", a.ContextDocs[0].ID)
	require.Len(t, fa.docs, 1)
	assert.Equal(t, "Практика по неустойке", fa.docs[0].Title)
}

func TestService_FallsBackToHeuristics(t *testing.T) {
	fa := &fakeAnalyzer{err: errors.New("upstream 500")}
	svc := NewService(nil, WithAnalyzer(fa))

	a := svc.AnalyzeMatter(context.Background(), testMatter, testDocs)

	assert.Equal(t, EngineHeuristic, a.Engine)
	assert.Equal(t, constants.LevelHigh, a.Urgency)
	assert.Equal(t, []string{"Практика по неустойке"}, a.LegalReferences)
	assert.NotEmpty(t, a.Risks)
}

func TestService_NoAnalyzer(t *testing.T) {
	a := NewService(nil).AnalyzeMatter(context.Background(), Matter{RawText: "тихий текст"}, nil)
	assert.Equal(t, EngineHeuristic, a.Engine)
	assert.Empty(t, a.LegalReferences)
	assert.Equal(t, constants.LevelLow, a.Urgency)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 35.0, clamp(nil, 0, 100, 35))
	assert.Equal(t, 0.0, clamp(ptr(-4), 0, 100, 35))
	assert.Equal(t, 0.5, clamp(ptr(0.5), 0, 1, 0.62))
}
