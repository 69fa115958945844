// Package engine implements the workflow executor: dependency-ordered
// scheduling with branching, merging, loop fan-out, error policy and
// cancellation.
package engine

import (
	"time"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// NodeState is the per-node state within a run.
type NodeState string

// Node states
const (
	NodePending   NodeState = "pending"
	NodeRunning   NodeState = "running"
	NodeSucceeded NodeState = "succeeded"
	NodeFailed    NodeState = "failed"
	NodeSkipped   NodeState = "skipped"
)

// Terminal reports whether the state is final for a run.
func (s NodeState) Terminal() bool {
	switch s {
	case NodeSucceeded, NodeFailed, NodeSkipped:
		return true
	}
	return false
}

// RunState is the state of a whole run.
type RunState string

// Run states
const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// LogEntry records one node invocation. The executor appends one entry per
// invoked node; callers read them for history and UI.
type LogEntry struct {
	// NodeID is the invoked node
	NodeID string `json:"node_id"`

	// State the node ended in
	State NodeState `json:"state"`

	// StartedAt is when the invocation began
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the invocation settled
	EndedAt time.Time `json:"ended_at"`

	// Output emitted by the node, if it succeeded or continued on error
	Output []flow.NodeData `json:"output,omitempty"`

	// Error message if the node failed, already sanitized
	Error string `json:"error,omitempty"`

	// Message carries node-level log lines emitted through the execution
	// context; entries recorded by the executor leave it empty
	Message string `json:"message,omitempty"`
}

// ExecutionStatus is the externally visible state of a run, persisted by the
// execution store and served by the API.
type ExecutionStatus struct {
	// ID of the execution
	ID string `json:"id"`

	// WorkflowName labels the workflow that was run
	WorkflowName string `json:"workflow_name,omitempty"`

	// State of the run
	State RunState `json:"state"`

	// StartTime is when the run started
	StartTime time.Time `json:"start_time"`

	// EndTime is when the run finished
	EndTime time.Time `json:"end_time,omitempty"`

	// Error message if the run failed
	Error string `json:"error,omitempty"`

	// NodeStates holds the final state of every node
	NodeStates map[string]NodeState `json:"node_states,omitempty"`
}

// RunResult is what Execute returns: the run's final state, per-node states
// and outputs, and the full execution log.
type RunResult struct {
	// RunID of this execution
	RunID string

	// State the run ended in
	State RunState

	// NodeStates holds the final state of every node
	NodeStates map[string]NodeState

	// Outputs holds the data emitted by each node that produced any
	Outputs map[string][]flow.NodeData

	// Log is the ordered list of node invocations
	Log []LogEntry

	// Err is the error that failed or cancelled the run, if any
	Err error
}
