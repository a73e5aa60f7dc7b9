package llm

import "invoicex/internal/mapping"

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. Every mapped field is a string property; nothing is required
// because omission is how the model reports a field it cannot find. We pass
// this to the completion API as an output constraint and also validate the
// reply against it locally.
func BuildRecordJSONSchema(m *mapping.FieldMapping) map[string]any {
	props := make(map[string]any, m.Len())
	for _, f := range m.Fields() {
		props[f.Name] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
