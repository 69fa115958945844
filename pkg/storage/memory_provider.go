package storage

import (
	"sort"
	"sync"

	"github.com/tcmartin/flowgraph/pkg/engine"
)

// MemoryProvider implements the Provider interface using in-memory storage.
type MemoryProvider struct {
	executionStore *MemoryExecutionStore
}

// NewMemoryProvider creates a new in-memory storage provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		executionStore: NewMemoryExecutionStore(),
	}
}

// Initialize sets up the storage backend
func (p *MemoryProvider) Initialize() error {
	// Nothing to initialize for in-memory storage
	return nil
}

// Close cleans up resources
func (p *MemoryProvider) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// ExecutionStore returns the store for execution data
func (p *MemoryProvider) ExecutionStore() ExecutionStore {
	return p.executionStore
}

// MemoryExecutionStore implements ExecutionStore with maps.
type MemoryExecutionStore struct {
	executions map[string]engine.ExecutionStatus
	logs       map[string][]engine.LogEntry
	mu         sync.RWMutex
}

// NewMemoryExecutionStore creates a new in-memory execution store
func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{
		executions: make(map[string]engine.ExecutionStatus),
		logs:       make(map[string][]engine.LogEntry),
	}
}

// SaveExecution persists execution status, replacing any prior state
func (s *MemoryExecutionStore) SaveExecution(status engine.ExecutionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[status.ID] = status
	return nil
}

// GetExecution retrieves execution status
func (s *MemoryExecutionStore) GetExecution(executionID string) (engine.ExecutionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.executions[executionID]
	if !ok {
		return engine.ExecutionStatus{}, ErrExecutionNotFound
	}
	return status, nil
}

// ListExecutions returns all stored executions, newest first
func (s *MemoryExecutionStore) ListExecutions() ([]engine.ExecutionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]engine.ExecutionStatus, 0, len(s.executions))
	for _, status := range s.executions {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// SaveLog appends an execution log entry
func (s *MemoryExecutionStore) SaveLog(executionID string, entry engine.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[executionID] = append(s.logs[executionID], entry)
	return nil
}

// GetLogs retrieves the log entries for an execution, in append order
func (s *MemoryExecutionStore) GetLogs(executionID string) ([]engine.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[executionID]
	out := make([]engine.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}
