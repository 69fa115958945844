package flow

import "fmt"

// Document is the plain nested persistence shape of a graph. Round-tripping
// a graph through a Document is lossless for node ids, types, configs,
// positions and connection endpoints/labels; how the record is stored is the
// caller's business.
type Document struct {
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Document returns the graph's persistence shape. Nodes and connections keep
// their insertion order.
func (g *Graph) Document() *Document {
	doc := &Document{
		Nodes:       make([]Node, 0, len(g.order)),
		Connections: make([]Connection, 0, len(g.connections)),
	}
	for _, id := range g.order {
		doc.Nodes = append(doc.Nodes, *g.nodes[id])
	}
	for _, c := range g.connections {
		doc.Connections = append(doc.Connections, *c)
	}
	return doc
}

// FromDocument rebuilds a graph from its persistence shape, applying the
// same structural checks as AddNode/AddConnection.
func FromDocument(doc *Document, types TypeChecker) (*Graph, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}

	g := NewGraph(types)
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if err := g.AddNode(&n); err != nil {
			return nil, err
		}
	}
	for i := range doc.Connections {
		c := doc.Connections[i]
		if err := g.AddConnection(&c); err != nil {
			return nil, err
		}
	}
	return g, nil
}
