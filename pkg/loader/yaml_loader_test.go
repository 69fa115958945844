package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/flowgraph/pkg/nodes"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/scripting"
)

const sampleWorkflow = `
metadata:
  name: greeting
  description: Greets whatever comes in
  version: "1.0"
nodes:
  - id: start
    type: trigger
    canBeStart: true
    config:
      payload:
        name: world
  - id: format
    type: template
    config:
      template: "hello {{name}}"
connections:
  - from: start
    to: format
`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, nodes.Register(reg, nodes.Deps{Script: scripting.NewScriptEngine()}))
	return reg
}

func TestParseWorkflow(t *testing.T) {
	l := NewLoader(testRegistry(t))

	graph, meta, err := l.Parse([]byte(sampleWorkflow))
	require.NoError(t, err)

	assert.Equal(t, "greeting", meta.Name)
	assert.Equal(t, "1.0", meta.Version)

	require.Len(t, graph.Nodes(), 2)
	start, ok := graph.Node("start")
	require.True(t, ok)
	assert.True(t, start.CanBeStart)

	payload := start.Config["payload"].(map[string]interface{})
	assert.Equal(t, "world", payload["name"])

	conns := graph.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "start", conns[0].From)
	assert.Equal(t, "format", conns[0].To)
}

func TestParseAutoMarksStartNodes(t *testing.T) {
	l := NewLoader(testRegistry(t))

	doc := `
metadata:
  name: implicit-starts
nodes:
  - id: a
    type: trigger
  - id: b
    type: merge
connections:
  - from: a
    to: b
`
	graph, _, err := l.Parse([]byte(doc))
	require.NoError(t, err)

	starts := graph.StartNodes()
	require.Len(t, starts, 1)
	assert.Equal(t, "a", starts[0].ID)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	l := NewLoader(testRegistry(t))

	cases := map[string]string{
		"invalid yaml": "nodes: [",
		"missing name": `
nodes:
  - id: a
    type: trigger
`,
		"no nodes": `
metadata:
  name: empty
`,
		"unknown type": `
metadata:
  name: bad-type
nodes:
  - id: a
    type: does-not-exist
`,
		"cycle": `
metadata:
  name: cyclic
nodes:
  - id: a
    type: trigger
    canBeStart: true
  - id: b
    type: merge
  - id: c
    type: merge
connections:
  - from: a
    to: b
  - from: b
    to: c
  - from: c
    to: b
`,
	}
	for name, doc := range cases {
		_, _, err := l.Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestValidate(t *testing.T) {
	l := NewLoader(testRegistry(t))

	assert.NoError(t, l.Validate([]byte(sampleWorkflow)))
	assert.Error(t, l.Validate([]byte("metadata: {name: x}")))
}

func TestMarshalRoundTrip(t *testing.T) {
	l := NewLoader(testRegistry(t))

	graph, meta, err := l.Parse([]byte(sampleWorkflow))
	require.NoError(t, err)

	out, err := l.Marshal(graph, *meta)
	require.NoError(t, err)

	reparsed, meta2, err := l.Parse(out)
	require.NoError(t, err)

	assert.Equal(t, meta.Name, meta2.Name)
	assert.Len(t, reparsed.Nodes(), 2)

	start, ok := reparsed.Node("start")
	require.True(t, ok)
	payload := start.Config["payload"].(map[string]interface{})
	assert.Equal(t, "world", payload["name"])

	conns := reparsed.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "start", conns[0].From)
}
