// Package loader parses YAML workflow documents into graphs.
package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// Metadata describes a workflow document.
type Metadata struct {
	// Name of the workflow
	Name string `yaml:"name" json:"name"`

	// Description of the workflow
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Version of the workflow document
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Document is the on-disk shape of a workflow: metadata plus the graph's
// persistence shape.
type Document struct {
	Metadata    Metadata          `yaml:"metadata" json:"metadata"`
	Nodes       []flow.Node       `yaml:"nodes" json:"nodes"`
	Connections []flow.Connection `yaml:"connections,omitempty" json:"connections,omitempty"`
}

// Loader parses workflow documents, validating node types against the
// registry.
type Loader struct {
	types flow.TypeChecker
}

// NewLoader creates a loader
func NewLoader(types flow.TypeChecker) *Loader {
	return &Loader{types: types}
}

// Parse converts a YAML workflow document into a validated graph. When no
// node is marked as a start, every node without incoming connections
// becomes one.
func (l *Loader) Parse(content []byte) (*flow.Graph, *Metadata, error) {
	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Metadata.Name == "" {
		return nil, nil, fmt.Errorf("workflow name is required")
	}
	if len(doc.Nodes) == 0 {
		return nil, nil, fmt.Errorf("workflow must have at least one node")
	}

	graph, err := flow.FromDocument(&flow.Document{
		Nodes:       doc.Nodes,
		Connections: doc.Connections,
	}, l.types)
	if err != nil {
		return nil, nil, err
	}

	if len(graph.StartNodes()) == 0 {
		for _, n := range graph.Nodes() {
			if len(graph.Incoming(n.ID)) == 0 {
				n.CanBeStart = true
			}
		}
	}
	if len(graph.StartNodes()) == 0 {
		return nil, nil, fmt.Errorf("workflow has no start node")
	}

	if err := graph.Validate(); err != nil {
		return nil, nil, err
	}
	return graph, &doc.Metadata, nil
}

// Validate checks a YAML workflow document without building a graph for
// execution.
func (l *Loader) Validate(content []byte) error {
	_, _, err := l.Parse(content)
	return err
}

// Marshal renders a graph and its metadata back into a YAML document.
// Round-tripping through Parse and Marshal is lossless for ids, types,
// configs, positions and connection endpoints/labels.
func (l *Loader) Marshal(graph *flow.Graph, meta Metadata) ([]byte, error) {
	doc := Document{Metadata: meta}
	persisted := graph.Document()
	doc.Nodes = persisted.Nodes
	doc.Connections = persisted.Connections

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}
	return out, nil
}
