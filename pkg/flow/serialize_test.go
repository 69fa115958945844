package flow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleGraph(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph(testTypes())
	require.NoError(t, g.AddNode(&Node{
		ID:         "start",
		Type:       "trigger",
		Name:       "Start",
		Position:   Position{X: 10, Y: 20},
		CanBeStart: true,
		Config: map[string]interface{}{
			"payload": map[string]interface{}{"greeting": "hello"},
		},
	}))
	require.NoError(t, g.AddNode(&Node{ID: "step", Type: "transform"}))
	require.NoError(t, g.AddConnection(&Connection{From: "start", To: "step", FromPort: "true"}))
	return g
}

func TestGraphDocumentRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)

	doc := g.Document()
	rebuilt, err := FromDocument(doc, testTypes())
	require.NoError(t, err)

	start, ok := rebuilt.Node("start")
	require.True(t, ok)
	assert.Equal(t, "Start", start.Name)
	assert.Equal(t, Position{X: 10, Y: 20}, start.Position)
	assert.True(t, start.CanBeStart)
	assert.Equal(t, map[string]interface{}{"greeting": "hello"}, start.Config["payload"])

	conns := rebuilt.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, "start", conns[0].From)
	assert.Equal(t, "step", conns[0].To)
	assert.Equal(t, "true", conns[0].FromPort)
}

func TestGraphDocumentJSONRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)

	data, err := json.Marshal(g.Document())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))

	rebuilt, err := FromDocument(&doc, testTypes())
	require.NoError(t, err)
	assert.Len(t, rebuilt.Nodes(), 2)
	assert.Len(t, rebuilt.Connections(), 1)
}

func TestFromDocumentRejectsBadStructure(t *testing.T) {
	_, err := FromDocument(nil, testTypes())
	assert.Error(t, err)

	_, err = FromDocument(&Document{
		Nodes: []Node{{ID: "a", Type: "trigger"}, {ID: "a", Type: "trigger"}},
	}, testTypes())
	assert.Error(t, err)

	_, err = FromDocument(&Document{
		Nodes:       []Node{{ID: "a", Type: "trigger"}},
		Connections: []Connection{{From: "a", To: "missing"}},
	}, testTypes())
	assert.Error(t, err)
}

func TestNodeDataCopy(t *testing.T) {
	original := NodeData{JSON: map[string]interface{}{"value": 1}}
	copied := original.Copy()
	copied.JSON["value"] = 2
	copied.JSON["extra"] = true

	assert.Equal(t, 1, original.JSON["value"])
	assert.NotContains(t, original.JSON, "extra")
}

func TestNodeDataCopyIsolatesNestedContainers(t *testing.T) {
	original := NodeData{JSON: map[string]interface{}{
		"nested": map[string]interface{}{"x": 0},
		"list":   []interface{}{map[string]interface{}{"y": 0}},
	}}

	copied := original.Copy()
	copied.JSON["nested"].(map[string]interface{})["x"] = 99
	copied.JSON["list"].([]interface{})[0].(map[string]interface{})["y"] = 99

	assert.Equal(t, 0, original.JSON["nested"].(map[string]interface{})["x"])
	assert.Equal(t, 0, original.JSON["list"].([]interface{})[0].(map[string]interface{})["y"])
}
