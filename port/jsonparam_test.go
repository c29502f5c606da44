package port

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLenientObject(t *testing.T) {
	absent := []string{"", "   ", "{}", "not json", "[1,2]", `"text"`, "42", "null", "{ }"}
	for _, raw := range absent {
		obj, ok := ParseLenientObject(raw)
		assert.False(t, ok, "expected %q to be absent", raw)
		assert.Nil(t, obj)
	}

	obj, ok := ParseLenientObject(`{"team":"platform","n":2}`)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"team": "platform", "n": float64(2)}, obj)
}

func TestParseStrictArray(t *testing.T) {
	arr, err := ParseStrictArray("tools", `["a", "b"]`)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, arr)

	arr, err = ParseStrictArray("tools", `[]`)
	require.NoError(t, err)
	assert.Empty(t, arr)

	_, err = ParseStrictArray("tools", "not json")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tools", ve.Field)
	assert.Equal(t, "invalid JSON format for tools field", ve.Message)
	assert.NotEmpty(t, ve.Description)
	assert.Error(t, errors.Unwrap(err))

	_, err = ParseStrictArray("tools", `{"a":1}`)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tools must be a valid JSON array", ve.Message)

	_, err = ParseStrictArray("tools", "")
	require.True(t, errors.As(err, &ve))
}

func TestParamHelpers_AcceptStructuredValues(t *testing.T) {
	p := Params{
		"labels": map[string]any{"env": "prod"},
		"empty":  map[string]any{},
		"tools":  []any{"x"},
	}

	obj, ok := lenientObject(p, "labels")
	require.True(t, ok)
	assert.Equal(t, "prod", obj["env"])

	_, ok = lenientObject(p, "empty")
	assert.False(t, ok)

	arr, err := strictArray(p, "tools")
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, arr)
}

func TestParams(t *testing.T) {
	p := Params{
		"s":     "x",
		"b":     true,
		"bs":    "TRUE",
		"n":     float64(3),
		"obj":   map[string]any{"a": 1.0},
		"empty": "",
		"nil":   nil,
	}
	assert.Equal(t, "x", p.String("s"))
	assert.Equal(t, "true", p.String("b"))
	assert.Equal(t, "3", p.String("n"))
	assert.Equal(t, `{"a":1}`, p.String("obj"))
	assert.Equal(t, "", p.String("nil"))
	assert.Equal(t, "", p.String("missing"))

	assert.True(t, p.Bool("b"))
	assert.True(t, p.Bool("bs"))
	assert.False(t, p.Bool("s"))
	assert.False(t, p.Bool("missing"))

	assert.True(t, p.Has("empty"))
	assert.False(t, p.Has("missing"))
	assert.Equal(t, "", p.First("empty", "s"))
	assert.Equal(t, "x", p.First("missing", "s"))

	merged := p.WithDefaults(Params{"s": "default", "extra": "d"})
	assert.Equal(t, "x", merged["s"])
	assert.Equal(t, "d", merged["extra"])
	assert.False(t, p.Has("extra"), "WithDefaults must not mutate the receiver")
}
