package port

import (
	"encoding/json"
	"strings"
)

// Two parsing policies exist for JSON-typed fields and they stay separate:
// ParseLenientObject never fails, ParseStrictArray always reports bad input.

// ParseLenientObject parses an optional JSON object field such as context or
// labels. Blank input, "{}", invalid JSON, non-objects and empty objects all
// yield ok=false: the field is simply omitted from the request body.
func ParseLenientObject(raw string) (map[string]any, bool) {
	if strings.TrimSpace(raw) == "" || raw == "{}" {
		return nil, false
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	obj, ok := parsed.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}

// ParseStrictArray parses a required JSON array field such as tools. Invalid
// JSON and non-array values fail with a *ValidationError naming field.
func ParseStrictArray(field, raw string) ([]any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &ValidationError{
			Field:       field,
			Message:     "invalid JSON format for " + field + " field",
			Description: toolsHint,
			Err:         err,
		}
	}
	arr, ok := parsed.([]any)
	if !ok {
		return nil, &ValidationError{
			Field:       field,
			Message:     field + " must be a valid JSON array",
			Description: toolsHint,
		}
	}
	return arr, nil
}

const toolsHint = `The Tools field must contain a JSON array of tool names. Example: ["tool1", "tool2"] or ["^(list|get|search|track|describe|run_*)_.*"]`

// lenientObject reads an optional object field from the bag, accepting a
// structured map as well as JSON text.
func lenientObject(p Params, key string) (map[string]any, bool) {
	if obj, ok := p[key].(map[string]any); ok {
		return obj, len(obj) > 0
	}
	return ParseLenientObject(p.String(key))
}

// strictArray reads a required array field from the bag, accepting a
// structured slice as well as JSON text.
func strictArray(p Params, key string) ([]any, error) {
	if arr, ok := p[key].([]any); ok {
		return arr, nil
	}
	return ParseStrictArray(key, p.String(key))
}
