package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

func inputs(payload map[string]interface{}) []flow.NodeData {
	return []flow.NodeData{{JSON: payload}}
}

func TestResolveNestedPath(t *testing.T) {
	r := NewResolver(Options{})

	out, err := r.Resolve("x{{a.b}}y", inputs(map[string]interface{}{
		"a": map[string]interface{}{"b": float64(5)},
	}))
	require.NoError(t, err)
	assert.Equal(t, "x5y", out)
}

func TestResolveArrayIndex(t *testing.T) {
	r := NewResolver(Options{})

	payload := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"name": "first"},
			map[string]interface{}{"name": "second"},
		},
	}
	out, err := r.Resolve("{{items[1].name}}", inputs(payload))
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestResolveWholePayload(t *testing.T) {
	r := NewResolver(Options{})
	payload := map[string]interface{}{"a": "b"}

	for _, name := range []string{"data", "input"} {
		out, err := r.Resolve("{{"+name+"}}", inputs(payload))
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":"b"}`, out)
	}
}

func TestResolveMissingLeavesPlaceholder(t *testing.T) {
	r := NewResolver(Options{})

	out, err := r.Resolve("value: {{missing.path}}", inputs(map[string]interface{}{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, "value: {{missing.path}}", out)
}

func TestResolveMissingWithThrowOnMissing(t *testing.T) {
	r := NewResolver(Options{ThrowOnMissing: true})

	_, err := r.Resolve("{{missing}}", inputs(map[string]interface{}{"a": 1}))
	require.Error(t, err)

	var notFound *VariableNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestResolveTraversalThroughNonObject(t *testing.T) {
	r := NewResolver(Options{})

	// "a" is a scalar, so a.b cannot resolve and the placeholder stays.
	out, err := r.Resolve("{{a.b}}", inputs(map[string]interface{}{"a": "scalar"}))
	require.NoError(t, err)
	assert.Equal(t, "{{a.b}}", out)
}

func TestResolveNoInputs(t *testing.T) {
	r := NewResolver(Options{})

	out, err := r.Resolve("{{a}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{{a}}", out)

	// data resolves to an empty object even with no input at all
	out, err = r.Resolve("{{data}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestResolveCustomDelimiters(t *testing.T) {
	r := NewResolver(Options{Prefix: "<%", Suffix: "%>"})

	out, err := r.Resolve("<%name%> and {{name}}", inputs(map[string]interface{}{"name": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x and {{name}}", out)
}

func TestResolveDisableNestedAccess(t *testing.T) {
	r := NewResolver(Options{DisableNestedAccess: true})

	payload := map[string]interface{}{
		"a.b": "flat",
		"a":   map[string]interface{}{"b": "nested"},
	}
	out, err := r.Resolve("{{a.b}}", inputs(payload))
	require.NoError(t, err)
	assert.Equal(t, "flat", out)
}

func TestResolveValueFormatting(t *testing.T) {
	r := NewResolver(Options{})

	payload := map[string]interface{}{
		"nil":    nil,
		"str":    "text",
		"bool":   true,
		"num":    float64(2.5),
		"whole":  float64(3),
		"int":    7,
		"object": map[string]interface{}{"k": "v"},
		"list":   []interface{}{1, 2},
	}

	cases := map[string]string{
		"{{nil}}":    "",
		"{{str}}":    "text",
		"{{bool}}":   "true",
		"{{num}}":    "2.5",
		"{{whole}}":  "3",
		"{{int}}":    "7",
		"{{object}}": `{"k":"v"}`,
		"{{list}}":   "[1,2]",
	}
	for tmpl, expected := range cases {
		out, err := r.Resolve(tmpl, inputs(payload))
		require.NoError(t, err, tmpl)
		assert.Equal(t, expected, out, tmpl)
	}
}

func TestResolveTrimsWhitespaceInPlaceholder(t *testing.T) {
	r := NewResolver(Options{})

	out, err := r.Resolve("{{ name }}", inputs(map[string]interface{}{"name": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestResolveConfigDeepCopy(t *testing.T) {
	r := NewResolver(Options{})

	config := map[string]interface{}{
		"url": "https://example.com/{{id}}",
		"nested": map[string]interface{}{
			"list": []interface{}{"{{id}}", 42},
		},
		"count": 3,
	}
	resolved, err := r.ResolveConfig(config, inputs(map[string]interface{}{"id": "abc"}))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/abc", resolved["url"])
	nested := resolved["nested"].(map[string]interface{})
	list := nested["list"].([]interface{})
	assert.Equal(t, "abc", list[0])
	assert.Equal(t, 42, list[1])
	assert.Equal(t, 3, resolved["count"])

	// The original config must stay untouched.
	assert.Equal(t, "https://example.com/{{id}}", config["url"])
	originalList := config["nested"].(map[string]interface{})["list"].([]interface{})
	assert.Equal(t, "{{id}}", originalList[0])
}

func TestResolveConfigPropagatesMissing(t *testing.T) {
	r := NewResolver(Options{ThrowOnMissing: true})

	_, err := r.ResolveConfig(map[string]interface{}{
		"deep": map[string]interface{}{"value": "{{nope}}"},
	}, nil)
	require.Error(t, err)

	var notFound *VariableNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestExtractVariables(t *testing.T) {
	r := NewResolver(Options{})

	names := r.ExtractVariables("{{a}} then {{ b.c }} then {{a}}")
	assert.Equal(t, []string{"a", "b.c", "a"}, names)
	assert.Nil(t, r.ExtractVariables("no placeholders"))
}

func TestHasVariables(t *testing.T) {
	r := NewResolver(Options{})

	assert.True(t, r.HasVariables("{{x}}"))
	assert.False(t, r.HasVariables("plain"))
}
