// Package storage persists execution status and logs behind pluggable
// providers. Workflow definitions are deliberately not stored here; they are
// owned by external collaborators.
package storage

import (
	"errors"

	"github.com/tcmartin/flowgraph/pkg/engine"
)

// ErrExecutionNotFound is returned for unknown execution ids.
var ErrExecutionNotFound = errors.New("execution not found")

// Provider is a persistence backend for execution data.
type Provider interface {
	// Initialize sets up the storage backend
	Initialize() error

	// Close cleans up resources
	Close() error

	// ExecutionStore returns the store for execution data
	ExecutionStore() ExecutionStore
}

// ExecutionStore manages execution data persistence.
type ExecutionStore interface {
	// SaveExecution persists execution status, replacing any prior state
	SaveExecution(status engine.ExecutionStatus) error

	// GetExecution retrieves execution status
	GetExecution(executionID string) (engine.ExecutionStatus, error)

	// ListExecutions returns all stored executions, newest first
	ListExecutions() ([]engine.ExecutionStatus, error)

	// SaveLog appends an execution log entry
	SaveLog(executionID string, entry engine.LogEntry) error

	// GetLogs retrieves the log entries for an execution, in append order
	GetLogs(executionID string) ([]engine.LogEntry, error)
}
