package port

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Params is the explicit parameter bag for one input item. Values come from
// decoded JSON or YAML, so strings, bools, numbers, maps and slices all occur.
type Params map[string]any

// Has reports whether key is present, even with an empty value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value of key as a string. Missing and nil values yield "".
// Maps and slices are rendered as JSON so that JSON-typed fields may be given
// either as text or as structured values.
func (p Params) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the value of key as a bool. Only true and the string "true"
// (case-insensitive) count as true.
func (p Params) Bool(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// First returns the string value of the first key present in the bag.
func (p Params) First(keys ...string) string {
	for _, k := range keys {
		if p.Has(k) {
			return p.String(k)
		}
	}
	return ""
}

// WithDefaults returns a copy of p with defaults filled in for absent keys.
func (p Params) WithDefaults(defaults Params) Params {
	out := make(Params, len(p)+len(defaults))
	maps.Copy(out, defaults)
	maps.Copy(out, p)
	return out
}
