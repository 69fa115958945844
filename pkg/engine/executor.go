package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/template"
)

// Options configure an Executor.
type Options struct {
	// StartNodes overrides the graph's CanBeStart markers
	StartNodes []string

	// FanOutConcurrency bounds parallel per-item work when a node fans
	// out. Values <= 1 mean strictly sequential, the default.
	FanOutConcurrency int

	// ContinueOnError makes every node failure emit fallback data instead
	// of aborting the run. Per-node continueOnError config takes effect
	// regardless of this run-level setting.
	ContinueOnError bool

	// OnLog receives each log entry as it is recorded
	OnLog func(LogEntry)
}

// Executor walks a graph in dependency order, resolving each node's
// configuration against its first predecessor's output and invoking the
// node's registered behavior. One Execute call is one logical run; the
// goroutine driving it may block on node I/O while other runs proceed.
type Executor struct {
	registry *registry.Registry
	resolver *template.Resolver
	opts     Options
}

// New creates an executor. A nil resolver gets the default {{ }} resolver.
func New(reg *registry.Registry, resolver *template.Resolver, opts Options) *Executor {
	if resolver == nil {
		resolver = template.NewResolver(template.Options{})
	}
	return &Executor{
		registry: reg,
		resolver: resolver,
		opts:     opts,
	}
}

// run carries the mutable state of one execution.
type run struct {
	graph     *flow.Graph
	ec        *flow.ExecutionContext
	states    map[string]NodeState
	outputs   map[string][]flow.NodeData
	routes    map[string]string
	emitted   map[string]bool
	reachable map[string]bool
	starts    map[string]bool
	seed      []flow.NodeData
	queue     []string
	result    *RunResult
}

// Execute runs the graph to completion. The graph is validated first; a
// structural error fails fast before any node runs. Cancellation of ctx
// marks all not-yet-started nodes Skipped and ends the run Cancelled.
func (e *Executor) Execute(ctx context.Context, g *flow.Graph, ec *flow.ExecutionContext, input []flow.NodeData) (*RunResult, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	startIDs := e.opts.StartNodes
	if len(startIDs) == 0 {
		for _, n := range g.StartNodes() {
			startIDs = append(startIDs, n.ID)
		}
	}
	if len(startIDs) == 0 {
		return nil, fmt.Errorf("graph has no start nodes")
	}
	for _, id := range startIDs {
		if _, ok := g.Node(id); !ok {
			return nil, fmt.Errorf("start node %q does not exist", id)
		}
	}

	r := &run{
		graph:     g,
		ec:        ec,
		states:    make(map[string]NodeState),
		outputs:   make(map[string][]flow.NodeData),
		routes:    make(map[string]string),
		emitted:   make(map[string]bool),
		reachable: g.Reachable(startIDs),
		starts:    make(map[string]bool),
		seed:      input,
		result: &RunResult{
			RunID:   ec.RunID,
			State:   RunRunning,
			Outputs: make(map[string][]flow.NodeData),
		},
	}
	for _, n := range g.Nodes() {
		r.states[n.ID] = NodePending
	}
	for _, id := range startIDs {
		r.starts[id] = true
		r.queue = append(r.queue, id)
	}

	for len(r.queue) > 0 {
		if ctx.Err() != nil {
			e.cancel(r, ctx.Err())
			return e.finish(r), r.result.Err
		}

		id := r.queue[0]
		r.queue = r.queue[1:]
		if r.states[id] != NodePending {
			continue
		}

		if abort := e.runNode(ctx, r, id); abort {
			return e.finish(r), r.result.Err
		}
	}

	if ctx.Err() != nil {
		e.cancel(r, ctx.Err())
		return e.finish(r), r.result.Err
	}

	r.result.State = RunCompleted
	return e.finish(r), nil
}

// finish sweeps never-visited nodes to Skipped and snapshots final state.
func (e *Executor) finish(r *run) *RunResult {
	for id, state := range r.states {
		if !state.Terminal() {
			r.states[id] = NodeSkipped
		}
	}
	r.result.NodeStates = r.states
	for id, out := range r.outputs {
		r.result.Outputs[id] = out
	}
	return r.result
}

// cancel marks every pending node Skipped and the run Cancelled.
func (e *Executor) cancel(r *run, cause error) {
	for id, state := range r.states {
		if !state.Terminal() {
			r.states[id] = NodeSkipped
		}
	}
	r.result.State = RunCancelled
	r.result.Err = &CancellationError{Cause: cause}
}

// runNode executes one ready node. It returns true when the failure policy
// aborts the whole run.
func (e *Executor) runNode(ctx context.Context, r *run, id string) bool {
	node, _ := r.graph.Node(id)
	def, err := e.registry.Get(node.Type)
	if err != nil {
		// Validate should have caught this; treat as node failure.
		return e.failNode(r, id, time.Now(), time.Now(), err)
	}

	inputs := e.gatherInputs(r, id)
	started := time.Now()

	config, err := e.resolveConfig(r, node, def, inputs)
	if err != nil {
		return e.failNode(r, id, started, time.Now(), err)
	}

	r.states[id] = NodeRunning
	result, execErr := e.invoke(ctx, def, r.ec, inputs, config)
	ended := time.Now()

	if execErr != nil {
		if ctx.Err() != nil {
			// Node failure caused by cancellation is not a node error.
			r.states[id] = NodeSkipped
			return false
		}
		if e.continueOnError(def, config) {
			fallback := []flow.NodeData{{JSON: map[string]interface{}{"error": execErr.Error()}}}
			r.states[id] = NodeFailed
			r.outputs[id] = fallback
			r.emitted[id] = true
			e.record(r, LogEntry{NodeID: id, State: NodeFailed, StartedAt: started, EndedAt: ended, Output: fallback, Error: execErr.Error()})
			e.afterTerminal(r, id)
			return false
		}
		return e.failNode(r, id, started, ended, execErr)
	}

	r.states[id] = NodeSucceeded
	r.outputs[id] = result.Items
	r.routes[id] = result.Route
	r.emitted[id] = true
	e.record(r, LogEntry{NodeID: id, State: NodeSucceeded, StartedAt: started, EndedAt: ended, Output: result.Items})
	e.afterTerminal(r, id)
	return false
}

// failNode records a fatal node failure and aborts the run.
func (e *Executor) failNode(r *run, id string, started, ended time.Time, err error) bool {
	nodeErr := &NodeExecutionError{NodeID: id, Err: err}
	r.states[id] = NodeFailed
	e.record(r, LogEntry{NodeID: id, State: NodeFailed, StartedAt: started, EndedAt: ended, Error: err.Error()})

	for nodeID, state := range r.states {
		if !state.Terminal() {
			r.states[nodeID] = NodeSkipped
		}
	}
	r.result.State = RunFailed
	r.result.Err = nodeErr
	return true
}

// continueOnError resolves the error policy for one node.
func (e *Executor) continueOnError(def *flow.NodeDefinition, config map[string]interface{}) bool {
	if v, ok := config["continueOnError"].(bool); ok {
		return v
	}
	return def.ContinueOnError || e.opts.ContinueOnError
}

// resolveConfig templates the node's config against its inputs and checks
// required parameters.
func (e *Executor) resolveConfig(r *run, node *flow.Node, def *flow.NodeDefinition, inputs []flow.NodeData) (map[string]interface{}, error) {
	config := node.Config
	if config == nil {
		config = map[string]interface{}{}
	}
	resolved, err := e.resolver.ResolveConfig(config, inputs)
	if err != nil {
		return nil, err
	}
	for _, spec := range def.Parameters {
		if _, ok := resolved[spec.Name]; !ok {
			if spec.Required {
				return nil, &flow.ConfigurationError{NodeID: node.ID, Parameter: spec.Name, Reason: "is required"}
			}
			if spec.Default != nil {
				resolved[spec.Name] = spec.Default
			}
		}
	}
	return resolved, nil
}

// gatherInputs concatenates the outputs delivered over the node's active
// incoming edges, in connection order. Start nodes receive the run's seed
// input in addition to anything delivered by edges.
func (e *Executor) gatherInputs(r *run, id string) []flow.NodeData {
	var inputs []flow.NodeData
	if r.starts[id] {
		inputs = append(inputs, r.seed...)
	}
	for _, c := range r.graph.Incoming(id) {
		if r.edgeActive(c) {
			inputs = append(inputs, r.outputs[c.From]...)
		}
	}
	return inputs
}

// edgeActive reports whether an edge delivered data: its source emitted
// output and the source's route, if any, matches the edge's port.
func (r *run) edgeActive(c *flow.Connection) bool {
	if !r.emitted[c.From] {
		return false
	}
	route := r.routes[c.From]
	if route == "" {
		return true
	}
	return c.FromPort == route
}

// afterTerminal re-evaluates the successors of a newly terminal node:
// successors whose reachable predecessors are all terminal either become
// ready (some active incoming edge) or are skipped, and skips propagate.
func (e *Executor) afterTerminal(r *run, id string) {
	worklist := []string{id}
	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]

		for _, c := range r.graph.Outgoing(current) {
			succ := c.To
			if r.states[succ] != NodePending || !r.reachable[succ] {
				continue
			}

			ready := true
			active := false
			for _, in := range r.graph.Incoming(succ) {
				if !r.reachable[in.From] {
					continue
				}
				if !r.states[in.From].Terminal() {
					ready = false
					break
				}
				if r.edgeActive(in) {
					active = true
				}
			}
			if !ready {
				continue
			}

			if active {
				r.queue = append(r.queue, succ)
			} else {
				// Everything exclusively reachable through inactive
				// edges is skipped without execution.
				r.states[succ] = NodeSkipped
				worklist = append(worklist, succ)
			}
		}
	}
}

// record appends a log entry and notifies the OnLog sink.
func (e *Executor) record(r *run, entry LogEntry) {
	r.result.Log = append(r.result.Log, entry)
	if e.opts.OnLog != nil {
		e.opts.OnLog(entry)
	}
}

// invoke runs a node's behavior, fanning out per input item unless the node
// type consumes the whole input list. Output collection order always equals
// emission order, whether items run sequentially or concurrently.
func (e *Executor) invoke(ctx context.Context, def *flow.NodeDefinition, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
	if def.Combining || len(inputs) <= 1 {
		return callNode(ctx, def, ec, inputs, config)
	}

	total := len(inputs)
	results := make([]*flow.Result, total)
	errs := make([]error, total)

	limit := e.opts.FanOutConcurrency
	if limit <= 1 {
		for i := range inputs {
			res, err := callNode(ctx, def, ec, []flow.NodeData{fanOutItem(inputs[i], i, total)}, config)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		sem := make(chan struct{}, limit)
		var wg sync.WaitGroup
		for i := range inputs {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i], errs[i] = callNode(ctx, def, ec, []flow.NodeData{fanOutItem(inputs[i], i, total)}, config)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	// Collect in emission order; a route is only honored when every item
	// agreed on it.
	combined := &flow.Result{}
	route := results[0].Route
	for _, res := range results {
		combined.Items = append(combined.Items, res.Items...)
		if res.Route != route {
			route = ""
		}
	}
	combined.Route = route
	return combined, nil
}

// callNode invokes the behavior once and normalizes a nil result.
func callNode(ctx context.Context, def *flow.NodeDefinition, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
	result, err := def.Execute(ctx, ec, inputs, config)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &flow.Result{}
	}
	return result, nil
}

// fanOutItem copies an item and injects the per-item metadata every fan-out
// invocation receives.
func fanOutItem(item flow.NodeData, index, total int) flow.NodeData {
	out := item.Copy()
	out.JSON["index"] = index
	out.JSON["total"] = total
	out.JSON["isFirst"] = index == 0
	out.JSON["isLast"] = index == total-1
	return out
}
