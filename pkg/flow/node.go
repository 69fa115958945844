// Package flow defines the workflow graph data model and the contracts shared
// by the registry, the executor and node implementations.
package flow

import "context"

// Position is the canvas position of a node. The engine carries it only so
// that round-tripping a graph through its persistence shape is lossless.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a configured instance of a node type within a graph.
type Node struct {
	// ID is unique within the graph
	ID string `json:"id" yaml:"id"`

	// Type is the registry key of the node's definition
	Type string `json:"type" yaml:"type"`

	// Name is a human-readable label
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Position on the editor canvas
	Position Position `json:"position" yaml:"position"`

	// Config holds the node's parameters as an untyped nested record
	Config map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`

	// CanBeStart marks the node as a valid entry point
	CanBeStart bool `json:"canBeStart,omitempty" yaml:"canBeStart,omitempty"`
}

// Connection is a directed edge between two nodes. FromPort carries an
// optional route label used to select active edges after a branching node.
type Connection struct {
	ID       string `json:"id" yaml:"id"`
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	FromPort string `json:"fromPort,omitempty" yaml:"fromPort,omitempty"`
}

// NodeData is the unit of data passed along an edge. A node may emit zero,
// one or many NodeData items.
type NodeData struct {
	JSON map[string]interface{} `json:"json" yaml:"json"`
}

// NewNodeData creates a NodeData with an empty payload.
func NewNodeData() NodeData {
	return NodeData{JSON: map[string]interface{}{}}
}

// Copy returns a deep copy of the payload wrapped in a new NodeData. Nested
// maps and slices are copied too; node invocations must never observe
// mutations made by siblings, so the executor copies before injecting
// fan-out metadata.
func (d NodeData) Copy() NodeData {
	return NodeData{JSON: copyJSONMap(d.JSON)}
}

func copyJSONMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = copyJSONValue(v)
	}
	return out
}

func copyJSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyJSONMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyJSONValue(item)
		}
		return out
	default:
		return v
	}
}

// Result is what a node execution produces: emitted items plus an optional
// route label selecting which outgoing edges become active.
type Result struct {
	// Items emitted by the node, in emission order
	Items []NodeData

	// Route selects outgoing edges by FromPort; empty means all edges
	Route string
}

// ExecFunc is the execution behavior of a node type.
type ExecFunc func(ctx context.Context, ec *ExecutionContext, inputs []NodeData, config map[string]interface{}) (*Result, error)

// ParameterSpec describes one parameter of a node type. It is UI-facing
// metadata; beyond required-presence checks the engine does not enforce it.
type ParameterSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// NodeDefinition is the registered, reusable behavior and metadata for a node
// type. Definitions are immutable once registered.
type NodeDefinition struct {
	// Type is the registry key
	Type string

	// Name is a human-readable label
	Name string

	// Category groups node types for listing
	Category string

	// Parameters describes the node's configuration schema
	Parameters []ParameterSpec

	// Combining marks node types (merge, join) that consume the entire
	// input list in a single invocation instead of fanning out per item
	Combining bool

	// ContinueOnError makes failures of this node type emit fallback data
	// by default instead of aborting the run
	ContinueOnError bool

	// Execute is the node's behavior
	Execute ExecFunc
}
