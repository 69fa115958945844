// Package runtime orchestrates workflow runs: it owns the assembled
// registry, executor configuration and execution store, launches runs
// asynchronously and tracks their lifecycle.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcmartin/flowgraph/pkg/engine"
	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/storage"
	"github.com/tcmartin/flowgraph/pkg/template"
)

// Service runs workflows and exposes their status, logs and cancellation.
type Service struct {
	registry *registry.Registry
	resolver *template.Resolver
	opts     engine.Options
	store    storage.ExecutionStore
	services flow.Services

	cancels     map[string]context.CancelFunc
	subscribers map[string][]chan engine.LogEntry
	mu          sync.Mutex
}

// NewService creates a runtime service. The engine options are the base
// configuration for every run.
func NewService(reg *registry.Registry, opts engine.Options, store storage.ExecutionStore, svcs flow.Services) *Service {
	return &Service{
		registry:    reg,
		resolver:    template.NewResolver(template.Options{}),
		opts:        opts,
		store:       store,
		services:    svcs,
		cancels:     make(map[string]context.CancelFunc),
		subscribers: make(map[string][]chan engine.LogEntry),
	}
}

// Execute validates the graph, then launches the run asynchronously and
// returns its execution id. Structural errors fail fast here, before any
// state is recorded.
func (s *Service) Execute(graph *flow.Graph, workflowName string, input map[string]interface{}) (string, error) {
	if err := graph.Validate(); err != nil {
		return "", err
	}

	executionID := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())

	status := engine.ExecutionStatus{
		ID:           executionID,
		WorkflowName: workflowName,
		State:        engine.RunRunning,
		StartTime:    time.Now(),
	}
	if err := s.store.SaveExecution(status); err != nil {
		cancel()
		return "", fmt.Errorf("failed to record execution: %w", err)
	}

	s.mu.Lock()
	s.cancels[executionID] = cancel
	s.mu.Unlock()

	go s.run(ctx, executionID, workflowName, graph, input, status.StartTime)

	return executionID, nil
}

// ExecuteSync runs a workflow to completion and returns the result. Used by
// the CLI; the API goes through Execute.
func (s *Service) ExecuteSync(ctx context.Context, graph *flow.Graph, workflowName string, input map[string]interface{}) (*engine.RunResult, error) {
	executionID := uuid.New().String()
	ec := flow.NewExecutionContext(executionID, s.services, nil)

	exec := engine.New(s.registry, s.resolver, s.opts)
	return exec.Execute(ctx, graph, ec, seedInput(input))
}

// run drives one execution to completion and records its outcome.
func (s *Service) run(ctx context.Context, executionID, workflowName string, graph *flow.Graph, input map[string]interface{}, startTime time.Time) {
	opts := s.opts
	opts.OnLog = func(entry engine.LogEntry) {
		s.record(executionID, entry)
	}

	logSink := func(nodeID, level, message string) {
		s.record(executionID, engine.LogEntry{
			NodeID:    nodeID,
			State:     engine.NodeRunning,
			StartedAt: time.Now(),
			EndedAt:   time.Now(),
			Message:   fmt.Sprintf("[%s] %s", level, message),
		})
	}

	ec := flow.NewExecutionContext(executionID, s.services, logSink)
	exec := engine.New(s.registry, s.resolver, opts)

	result, err := exec.Execute(ctx, graph, ec, seedInput(input))

	status := engine.ExecutionStatus{
		ID:           executionID,
		WorkflowName: workflowName,
		StartTime:    startTime,
		EndTime:      time.Now(),
	}
	if result != nil {
		status.State = result.State
		status.NodeStates = result.NodeStates
	} else {
		status.State = engine.RunFailed
	}
	if err != nil {
		status.Error = err.Error()
	}
	_ = s.store.SaveExecution(status)

	s.mu.Lock()
	delete(s.cancels, executionID)
	subs := s.subscribers[executionID]
	delete(s.subscribers, executionID)
	s.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// GetStatus retrieves the status of an execution.
func (s *Service) GetStatus(executionID string) (engine.ExecutionStatus, error) {
	return s.store.GetExecution(executionID)
}

// GetLogs retrieves the log entries of an execution.
func (s *Service) GetLogs(executionID string) ([]engine.LogEntry, error) {
	return s.store.GetLogs(executionID)
}

// ListExecutions returns all known executions, newest first.
func (s *Service) ListExecutions() ([]engine.ExecutionStatus, error) {
	return s.store.ListExecutions()
}

// SubscribeToLogs returns a channel that first delivers the execution's
// recorded log entries, then live entries as they arrive. Snapshot and
// registration happen under the same lock as record, so no entry is missed
// or delivered twice across the replay boundary. The channel closes when
// the run ends; for an already finished run it holds the full history and
// is closed immediately.
func (s *Service) SubscribeToLogs(executionID string) (<-chan engine.LogEntry, error) {
	if _, err := s.store.GetExecution(executionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recorded, err := s.store.GetLogs(executionID)
	if err != nil {
		return nil, err
	}

	ch := make(chan engine.LogEntry, len(recorded)+64)
	for _, entry := range recorded {
		ch <- entry
	}

	if _, running := s.cancels[executionID]; !running {
		// Run already finished; nothing further will arrive.
		close(ch)
		return ch, nil
	}
	s.subscribers[executionID] = append(s.subscribers[executionID], ch)
	return ch, nil
}

// Cancel raises the cancellation signal of a running execution.
func (s *Service) Cancel(executionID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[executionID]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("execution %q is not running", executionID)
	}
	cancel()
	return nil
}

// record persists a log entry and fans it out to subscribers without
// blocking the run. Persist and fan-out share one lock with SubscribeToLogs
// so a subscriber's snapshot and its live feed never overlap.
func (s *Service) record(executionID string, entry engine.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveLog(executionID, entry); err != nil {
		return
	}
	for _, ch := range s.subscribers[executionID] {
		select {
		case ch <- entry:
		default:
			// slow subscriber, drop rather than stall the run
		}
	}
}

// seedInput wraps a run input map as the start nodes' input data.
func seedInput(input map[string]interface{}) []flow.NodeData {
	if input == nil {
		return nil
	}
	return []flow.NodeData{{JSON: input}}
}
