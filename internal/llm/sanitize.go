package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/legal-intake/constants"
)

var (
	reFenceStart = regexp.MustCompile("(?i)^```(?:json)?")
	reFenceEnd   = regexp.MustCompile("```$")
)

// StripCodeFences removes a surrounding markdown code fence, if any.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = reFenceStart.ReplaceAllString(s, "")
	s = reFenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// NormalizeAnalysisJSON
// - strips markdown fences
// - coerces numeric strings for riskScore/confidence
// - maps urgency and risk severities onto LOW/MEDIUM/HIGH (MEDIUM when unknown)
// - flattens timeline objects ({event: "..."}) to strings
// - drops null lists
func NormalizeAnalysisJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(string(raw))), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string

	for _, k := range []string{"riskScore", "confidence"} {
		if s, ok := m[k].(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64); err == nil {
				m[k] = f
			} else {
				delete(m, k)
			}
			changed = append(changed, k)
		}
	}

	urgency, _ := m["urgency"].(string)
	m["urgency"] = string(constants.ParseLevel(urgency))

	for _, k := range []string{"tags", "timeline", "obligations", "actions", "legalReferences", "risks"} {
		if v, ok := m[k]; ok && v == nil {
			delete(m, k)
			changed = append(changed, k+"(null)")
		}
	}

	if items, ok := m["timeline"].([]any); ok {
		for i, it := range items {
			if obj, ok := it.(map[string]any); ok {
				if ev, ok := obj["event"].(string); ok {
					items[i] = ev
				} else {
					items[i] = fmt.Sprint(obj)
				}
				changed = append(changed, "timeline["+strconv.Itoa(i)+"]")
			}
		}
	}

	if risks, ok := m["risks"].([]any); ok {
		for _, r := range risks {
			if obj, ok := r.(map[string]any); ok {
				sev, _ := obj["severity"].(string)
				obj["severity"] = string(constants.ParseLevel(sev))
				if _, ok := obj["excerpt"]; !ok {
					obj["excerpt"] = ""
				}
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, nil, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.sanitize.applied", "changed", changed)
	}
	return out, changed, nil
}

// ParseModelAnalysis normalizes, validates and decodes a model reply.
func ParseModelAnalysis(raw []byte, logger *slog.Logger) (ModelAnalysis, error) {
	cleaned, _, err := NormalizeAnalysisJSON(raw, logger)
	if err != nil {
		return ModelAnalysis{}, err
	}
	if err := ValidateJSONAgainstSchema(BuildRiskAnalysisJSONSchema(), cleaned); err != nil {
		return ModelAnalysis{}, err
	}
	var out ModelAnalysis
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return ModelAnalysis{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	return out, nil
}
