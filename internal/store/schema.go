package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildJobJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// job artifact as a generic map. Loads validate against it before
// unmarshaling, so truncated or hand-edited artifacts are rejected with a
// real diagnostic instead of surfacing later as odd runtime behavior.
func BuildJobJSONSchema() map[string]any {
	meta := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_id":  map[string]any{"type": "string", "minLength": 1},
			"chunk_size":   map[string]any{"type": "integer", "minimum": 1},
			"total_chunks": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"document_id", "chunk_size", "total_chunks"},
	}
	chunk := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"index":        map[string]any{"type": "integer", "minimum": 0},
			"text":         map[string]any{"type": "string"},
			"status":       map[string]any{"type": "string", "enum": []string{"pending", "done", "error"}},
			"result":       map[string]any{"type": []string{"string", "null"}},
			"error_detail": map[string]any{"type": []string{"string", "null"}},
			"attempts":     map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"index", "text", "status"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"meta":   meta,
			"chunks": map[string]any{"type": "array", "items": chunk},
		},
		"required": []string{"meta", "chunks"},
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
