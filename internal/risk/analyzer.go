// Package risk scores legal intake text for risk markers, deadlines and
// obligations. Analyze is deterministic and never calls out; Service adds an
// optional model-backed analyzer with Analyze as the fallback.
package risk

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/legal-intake/constants"
	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
)

const (
	maxLines       = 450
	maxRisks       = 10
	maxTimeline    = 10
	maxObligations = 8
	maxTopCats     = 3
	maxCatActions  = 4
	maxActions     = 5
	minScore       = 5
	maxScore       = 98
)

type Risk struct {
	Severity constants.Level    `json:"severity"`
	Category constants.Category `json:"category"`
	Marker   string             `json:"marker,omitempty"`
	Excerpt  string             `json:"excerpt"`
}

type TimelineEvent struct {
	Order int    `json:"order"`
	Event string `json:"event"`
}

// Analysis is a bounded risk summary. The last three fields are set only by
// Service.
type Analysis struct {
	RiskScore       int               `json:"riskScore"`
	Urgency         constants.Level   `json:"urgency"`
	Tags            []string          `json:"tags"`
	Risks           []Risk            `json:"risks"`
	Timeline        []TimelineEvent   `json:"timeline"`
	Obligations     []string          `json:"obligations"`
	Actions         []string          `json:"actions"`
	Confidence      float64           `json:"confidence"`
	LegalReferences []string          `json:"legalReferences,omitempty"`
	ContextDocs     []retrieval.Match `json:"contextDocs,omitempty"`
	Engine          string            `json:"engine,omitempty"`
}

// Analyze runs the marker heuristics over the first 450 non-blank lines.
func Analyze(text string) Analysis {
	lines := nonBlankLines(text, maxLines)

	var hits []Risk
	weights := make(map[constants.Category]int)
	var order []constants.Category
	raw := 0

	for _, line := range lines {
		lowered := strings.ToLower(line)
		for _, m := range markers {
			if !strings.Contains(lowered, m.term) {
				continue
			}
			hits = append(hits, Risk{Severity: m.severity, Category: m.category, Marker: m.term, Excerpt: line})
			raw += m.weight
			if _, seen := weights[m.category]; !seen {
				order = append(order, m.category)
			}
			weights[m.category] += m.weight
		}
	}

	risks := dedupeRisks(hits)
	if len(risks) > maxRisks {
		risks = risks[:maxRisks]
	}
	timeline := extractTimeline(lines)
	obligations := extractObligations(lines)

	score := int(math.Round(float64(raw)/float64(len(lines)+10)*16 + float64(len(risks))*2.4 + float64(culturalLoad(text))))
	score = min(maxScore, max(minScore, score))

	urgency := constants.LevelLow
	switch {
	case score >= 60 || hasHighSeverity(risks):
		urgency = constants.LevelHigh
	case score >= 32:
		urgency = constants.LevelMedium
	}

	sort.SliceStable(order, func(i, j int) bool { return weights[order[i]] > weights[order[j]] })
	if len(order) > maxTopCats {
		order = order[:maxTopCats]
	}
	tags := make([]string, 0, len(order))
	for _, c := range order {
		tags = append(tags, string(c))
	}

	return Analysis{
		RiskScore:   score,
		Urgency:     urgency,
		Tags:        tags,
		Risks:       risks,
		Timeline:    timeline,
		Obligations: obligations,
		Actions:     buildActions(order, urgency),
		Confidence:  math.Min(0.95, 0.48+float64(len(risks))*0.035+float64(len(timeline))*0.01),
	}
}

func nonBlankLines(text string, limit int) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out
}

func dedupeRisks(in []Risk) []Risk {
	seen := make(map[string]struct{}, len(in))
	out := make([]Risk, 0, len(in))
	for _, r := range in {
		key := string(r.Category) + "|" + r.Excerpt
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func hasHighSeverity(risks []Risk) bool {
	for _, r := range risks {
		if r.Severity == constants.LevelHigh {
			return true
		}
	}
	return false
}

func extractTimeline(lines []string) []TimelineEvent {
	var out []TimelineEvent
	for i, line := range lines {
		if !reTimeline.MatchString(line) {
			continue
		}
		out = append(out, TimelineEvent{Order: i + 1, Event: line})
		if len(out) == maxTimeline {
			break
		}
	}
	return out
}

func extractObligations(lines []string) []string {
	var out []string
	for _, line := range lines {
		lowered := strings.ToLower(line)
		for _, hint := range obligationHints {
			if strings.Contains(lowered, hint) {
				out = append(out, line)
				break
			}
		}
		if len(out) == maxObligations {
			break
		}
	}
	return out
}

func culturalLoad(text string) int {
	lowered := strings.ToLower(text)
	score := 0
	for _, s := range highPressureSignals {
		if strings.Contains(lowered, s) {
			score += highPressureWeight
		}
	}
	for _, s := range relationSignals {
		if strings.Contains(lowered, s) {
			score += relationWeight
		}
	}
	return min(maxCulturalLoad, score)
}

func buildActions(top []constants.Category, urgency constants.Level) []string {
	var actions []string
	for _, c := range top {
		if a, ok := actionByCategory[c]; ok {
			actions = append(actions, a)
		}
		if len(actions) == maxCatActions {
			break
		}
	}
	if urgency == constants.LevelHigh {
		actions = append([]string{escalationAction}, actions...)
	}
	if len(actions) == 0 {
		actions = append(actions, fallbackAction)
	}
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	return actions
}

// TimelineLines renders timeline events as plain strings.
func (a Analysis) TimelineLines() []string {
	out := make([]string, 0, len(a.Timeline))
	for _, ev := range a.Timeline {
		out = append(out, ev.Event)
	}
	return out
}

// RiskLines renders risks as "N. <category>: <excerpt>".
func (a Analysis) RiskLines() []string {
	out := make([]string, 0, len(a.Risks))
	for i, r := range a.Risks {
		out = append(out, strconv.Itoa(i+1)+". "+string(r.Category)+": "+r.Excerpt)
	}
	return out
}
