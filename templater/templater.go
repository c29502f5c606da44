package templater

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/awantoch/portflow/utils"
	pongo2 "github.com/flosch/pongo2/v6"
)

// ExpressionPrefix marks a string parameter as an expression. Only the text
// after it is rendered; any other string is passed through untouched.
const ExpressionPrefix = "="

// Templater renders Jinja2-style (pongo2) parameter expressions.
type Templater struct{}

var registerOnce sync.Once

// NewTemplater creates a new Templater and registers the built-in filters.
func NewTemplater() *Templater {
	registerOnce.Do(func() {
		// Parameters are prompts and JSON, not HTML.
		pongo2.SetAutoescape(false)
		_ = pongo2.RegisterFilter("tojson", filterToJSON)
	})
	return &Templater{}
}

// Render renders a template string with the provided data using pongo2.
func (t *Templater) Render(tmpl string, data map[string]any) (string, error) {
	if data == nil {
		return "", fmt.Errorf("template data is nil")
	}
	ctx := make(pongo2.Context, len(data))
	maps.Copy(ctx, data)
	utils.Debug("Templater.Render: tmpl = %q", tmpl)
	pl, err := pongo2.FromString(tmpl)
	if err != nil {
		return "", err
	}
	return pl.Execute(ctx)
}

// RenderValue renders every expression inside val. Maps and slices are
// copied, never modified.
func (t *Templater) RenderValue(val any, data map[string]any) (any, error) {
	switch x := val.(type) {
	case string:
		expr, ok := strings.CutPrefix(x, ExpressionPrefix)
		if !ok {
			return x, nil
		}
		return t.Render(expr, data)
	case []any:
		out := make([]any, len(x))
		for i, elem := range x {
			rendered, err := t.RenderValue(elem, data)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	case map[string]any:
		return t.RenderParams(x, data)
	default:
		return val, nil
	}
}

// RenderParams renders a parameter bag against data, returning a new bag.
func (t *Templater) RenderParams(params map[string]any, data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		rendered, err := t.RenderValue(v, data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", k, err)
		}
		out[k] = rendered
	}
	return out, nil
}

func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	b, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsSafeValue(string(b)), nil
}
