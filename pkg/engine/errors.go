package engine

import "fmt"

// NodeExecutionError wraps a failure raised by a node's own behavior. It is
// captured per node and only aborts the run when the error policy says so.
type NodeExecutionError struct {
	// NodeID is the node that failed
	NodeID string

	// Err is the underlying failure
	Err error
}

// Error implements the error interface
func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.NodeID, e.Err)
}

// Unwrap returns the underlying failure
func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// CancellationError reports a run terminated by its cancellation signal.
// Pending nodes end Skipped, never Failed.
type CancellationError struct {
	// Cause is the context error that raised the signal
	Cause error
}

// Error implements the error interface
func (e *CancellationError) Error() string {
	return fmt.Sprintf("run cancelled: %v", e.Cause)
}

// Unwrap returns the context error
func (e *CancellationError) Unwrap() error {
	return e.Cause
}
