package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"podrecon/internal/domain"
	"podrecon/internal/normalize"
)

// ErrUnparsed means a model response was not a structured record. The raw
// text is still available to the regex fallback.
var ErrUnparsed = errors.New("response is not a structured record")

// JSONSchema renders a field schema as a JSON Schema document. Values are
// loosely typed; the normalizer owns coercion.
func JSONSchema(schema *domain.FieldSchema) map[string]any {
	props := make(map[string]any, schema.Len())
	anyOf := make([]any, 0, schema.Len())
	for _, f := range schema.Fields() {
		var types []string
		switch f.Type {
		case domain.FieldTypeInteger:
			types = []string{"integer", "number", "string", "null"}
		case domain.FieldTypeStatus:
			types = []string{"string", "boolean", "null"}
		case domain.FieldTypeText:
			types = []string{"string", "null"}
		default:
			types = []string{"string", "number", "null"}
		}
		props[string(f.Name)] = map[string]any{"type": types}
		anyOf = append(anyOf, map[string]any{"required": []string{string(f.Name)}})
	}
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"anyOf":      anyOf,
	}
}

// Decoder turns a model response into a field map validated against the
// schema. Keys are matched with the normalizer's spelling rules, so
// docket_number and lr_no count as docketNumber.
type Decoder struct {
	schema *jsonschema.Schema
	keys   *normalize.Normalizer
}

// NewDecoder compiles the JSON Schema for a field schema.
func NewDecoder(fs *domain.FieldSchema) (*Decoder, error) {
	b, err := json.Marshal(JSONSchema(fs))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("pod.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("pod.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Decoder{schema: schema, keys: normalize.NewForSchema(fs)}, nil
}

// Decode extracts the outermost JSON object from text, tolerating code
// fences and surrounding prose, and validates it. Any failure wraps
// ErrUnparsed.
func (d *Decoder) Decode(text string) (map[string]any, error) {
	body, ok := outermostObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object found", ErrUnparsed)
	}
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsed, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not an object", ErrUnparsed)
	}
	if err := d.schema.Validate(d.canonical(obj)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsed, err)
	}
	return obj, nil
}

// canonical renames recognised keys to their schema names for validation.
// An exact spelling wins over a synonym for the same field.
func (d *Decoder) canonical(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	exactSeen := make(map[domain.Field]bool)
	for k, v := range obj {
		f, exact, ok := d.keys.Resolve(k)
		if !ok {
			out[k] = v
			continue
		}
		if exactSeen[f] && !exact {
			continue
		}
		if exact {
			exactSeen[f] = true
		}
		out[string(f)] = v
	}
	return out
}

func outermostObject(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
