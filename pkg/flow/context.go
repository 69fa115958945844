package flow

import (
	"fmt"

	"github.com/tcmartin/flowgraph/pkg/services"
)

// Services is the capability bag injected into a run. Any field may be nil;
// nodes requiring an absent capability fail with services.ErrNotAvailable.
type Services struct {
	Vault    services.Vault
	AI       services.AI
	HTTP     services.HTTP
	Settings services.Settings
}

// LogFunc receives node-level log lines during a run.
type LogFunc func(nodeID, level, message string)

// ExecutionContext is the per-run object carrying injected host services, a
// run-scoped mutable cache and a logging sink. It lives for exactly one run
// and is only touched by the single logical task driving that run, so the
// cache needs no locking.
type ExecutionContext struct {
	// RunID identifies the execution this context belongs to
	RunID string

	services Services
	log      LogFunc
	cache    map[string]interface{}
}

// NewExecutionContext creates an execution context for one run.
func NewExecutionContext(runID string, svcs Services, log LogFunc) *ExecutionContext {
	return &ExecutionContext{
		RunID:    runID,
		services: svcs,
		log:      log,
		cache:    make(map[string]interface{}),
	}
}

// Vault returns the vault capability or an error if the host did not inject one.
func (ec *ExecutionContext) Vault() (services.Vault, error) {
	if ec.services.Vault == nil {
		return nil, fmt.Errorf("vault: %w", services.ErrNotAvailable)
	}
	return ec.services.Vault, nil
}

// AI returns the AI capability or an error if the host did not inject one.
func (ec *ExecutionContext) AI() (services.AI, error) {
	if ec.services.AI == nil {
		return nil, fmt.Errorf("ai: %w", services.ErrNotAvailable)
	}
	return ec.services.AI, nil
}

// HTTP returns the HTTP capability or an error if the host did not inject one.
func (ec *ExecutionContext) HTTP() (services.HTTP, error) {
	if ec.services.HTTP == nil {
		return nil, fmt.Errorf("http: %w", services.ErrNotAvailable)
	}
	return ec.services.HTTP, nil
}

// Settings returns the settings capability or an error if the host did not inject one.
func (ec *ExecutionContext) Settings() (services.Settings, error) {
	if ec.services.Settings == nil {
		return nil, fmt.Errorf("settings: %w", services.ErrNotAvailable)
	}
	return ec.services.Settings, nil
}

// CacheGet retrieves a value from the run-scoped cache.
func (ec *ExecutionContext) CacheGet(key string) (interface{}, bool) {
	v, ok := ec.cache[key]
	return v, ok
}

// CacheSet stores a value in the run-scoped cache.
func (ec *ExecutionContext) CacheSet(key string, value interface{}) {
	ec.cache[key] = value
}

// CacheDelete removes a value from the run-scoped cache.
func (ec *ExecutionContext) CacheDelete(key string) {
	delete(ec.cache, key)
}

// Log writes a node-level log line to the run's logging sink, if any.
func (ec *ExecutionContext) Log(nodeID, level, message string) {
	if ec.log != nil {
		ec.log(nodeID, level, message)
	}
}

// Logf writes a formatted node-level log line to the run's logging sink.
func (ec *ExecutionContext) Logf(nodeID, level, format string, args ...interface{}) {
	ec.Log(nodeID, level, fmt.Sprintf(format, args...))
}
