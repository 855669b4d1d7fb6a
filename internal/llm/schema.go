package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildRiskAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent to the model as the answer format and used locally to validate the reply.
func BuildRiskAnalysisJSONSchema() map[string]any {
	level := map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH"}}
	strList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	props := map[string]any{
		"riskScore": map[string]any{"type": "number"},
		"urgency":   level,
		"tags":      strList,
		"risks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"severity": map[string]any{"type": "string"},
					"category": map[string]any{"type": "string"},
					"excerpt":  map[string]any{"type": "string"},
				},
				"required": []string{"excerpt"},
			},
		},
		"timeline":        strList,
		"obligations":     strList,
		"actions":         strList,
		"confidence":      map[string]any{"type": "number"},
		"legalReferences": strList,
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"urgency"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
