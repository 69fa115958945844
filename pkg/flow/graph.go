package flow

import (
	"fmt"
)

// TypeChecker reports whether a node type is registered. The registry
// satisfies it; the graph depends on nothing more than this.
type TypeChecker interface {
	Has(nodeType string) bool
}

// Graph holds the node/edge structure of a workflow and validates it.
type Graph struct {
	nodes       map[string]*Node
	order       []string
	connections []*Connection
	types       TypeChecker
}

// NewGraph creates an empty graph. A nil TypeChecker disables node type
// checks on AddNode; Validate still reports unknown types when one is set.
func NewGraph(types TypeChecker) *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		types: types,
	}
}

// AddNode adds a node to the graph. It fails if the id is already taken or
// the node type is not registered.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if n.Type == "" {
		return fmt.Errorf("node %q: type is required", n.ID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %q already exists", n.ID)
	}
	if g.types != nil && !g.types.Has(n.Type) {
		return fmt.Errorf("node %q: unknown node type %q", n.ID, n.Type)
	}

	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddConnection adds an edge. It fails if either endpoint is missing or the
// (from, to, fromPort) triple already exists.
func (g *Graph) AddConnection(c *Connection) error {
	if c == nil {
		return fmt.Errorf("connection is required")
	}
	if _, ok := g.nodes[c.From]; !ok {
		return fmt.Errorf("connection references missing node %q", c.From)
	}
	if _, ok := g.nodes[c.To]; !ok {
		return fmt.Errorf("connection references missing node %q", c.To)
	}
	for _, existing := range g.connections {
		if existing.From == c.From && existing.To == c.To && existing.FromPort == c.FromPort {
			return fmt.Errorf("duplicate connection %s -> %s (port %q)", c.From, c.To, c.FromPort)
		}
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("%s->%s", c.From, c.To)
		if c.FromPort != "" {
			c.ID += ":" + c.FromPort
		}
	}

	g.connections = append(g.connections, c)
	return nil
}

// RemoveNode removes a node and cascades removal of every connection that
// references it.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	for i, nodeID := range g.order {
		if nodeID == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.From != id && c.To != id {
			kept = append(kept, c)
		}
	}
	g.connections = kept
}

// RemoveConnection removes the connection with the given id.
func (g *Graph) RemoveConnection(id string) {
	for i, c := range g.connections {
		if c.ID == id {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			return
		}
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Connections returns all connections in insertion order.
func (g *Graph) Connections() []*Connection {
	out := make([]*Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// StartNodes returns the nodes marked as entry points, in insertion order.
func (g *Graph) StartNodes() []*Node {
	var starts []*Node
	for _, id := range g.order {
		if g.nodes[id].CanBeStart {
			starts = append(starts, g.nodes[id])
		}
	}
	return starts
}

// Incoming returns the connections ending at the given node, in insertion order.
func (g *Graph) Incoming(id string) []*Connection {
	var in []*Connection
	for _, c := range g.connections {
		if c.To == id {
			in = append(in, c)
		}
	}
	return in
}

// Outgoing returns the connections starting at the given node, in insertion order.
func (g *Graph) Outgoing(id string) []*Connection {
	var out []*Connection
	for _, c := range g.connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks the graph's structure and returns a *ValidationError
// enumerating every issue found: dangling edges, unregistered node types and
// cycles. Iteration is expressed through the loop node's fan-out semantics,
// so graph cycles are always an error.
func (g *Graph) Validate() error {
	var issues []string

	for _, c := range g.connections {
		if _, ok := g.nodes[c.From]; !ok {
			issues = append(issues, fmt.Sprintf("connection %q references missing node %q", c.ID, c.From))
		}
		if _, ok := g.nodes[c.To]; !ok {
			issues = append(issues, fmt.Sprintf("connection %q references missing node %q", c.ID, c.To))
		}
	}

	if g.types != nil {
		for _, id := range g.order {
			if !g.types.Has(g.nodes[id].Type) {
				issues = append(issues, fmt.Sprintf("node %q has unknown type %q", id, g.nodes[id].Type))
			}
		}
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		issues = append(issues, fmt.Sprintf("cycle detected: %v", cycle))
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// findCycle runs a colored DFS over the whole edge set and returns the first
// cycle found as a node id path, or nil.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, c := range g.Outgoing(id) {
			if _, ok := g.nodes[c.To]; !ok {
				continue
			}
			switch color[c.To] {
			case gray:
				// unwind the stack to the cycle entry
				for i, nodeID := range stack {
					if nodeID == c.To {
						cycle = append([]string{}, stack[i:]...)
						cycle = append(cycle, c.To)
						return true
					}
				}
			case white:
				if visit(c.To) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// Reachable returns the set of node ids reachable from the given start ids,
// following every outgoing edge. The starts themselves are included.
func (g *Graph) Reachable(starts []string) map[string]bool {
	reached := make(map[string]bool)
	queue := append([]string{}, starts...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if reached[id] {
			continue
		}
		if _, ok := g.nodes[id]; !ok {
			continue
		}
		reached[id] = true
		for _, c := range g.Outgoing(id) {
			if !reached[c.To] {
				queue = append(queue, c.To)
			}
		}
	}
	return reached
}
