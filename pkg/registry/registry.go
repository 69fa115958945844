// Package registry holds the node type table. Node types are variants
// dispatched by string tag; adding a node type means registering a
// definition, never touching the executor.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// Errors returned by the registry
var (
	ErrDuplicateType = errors.New("node type already registered")
	ErrUnknownType   = errors.New("unknown node type")
)

// Registry is a concurrent-safe node type table keyed by type string.
type Registry struct {
	defs  map[string]*flow.NodeDefinition
	order []string
	mu    sync.RWMutex
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		defs: make(map[string]*flow.NodeDefinition),
	}
}

// Register adds a node definition. It fails if the type is already present
// or the definition is incomplete.
func (r *Registry) Register(def *flow.NodeDefinition) error {
	if def == nil || def.Type == "" {
		return fmt.Errorf("node definition requires a type")
	}
	if def.Execute == nil {
		return fmt.Errorf("node type %q: execute behavior is required", def.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Type]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, def.Type)
	}
	r.defs[def.Type] = def
	r.order = append(r.order, def.Type)
	return nil
}

// RegisterAll registers definitions in order. Registration is atomic per
// item: a duplicate later in the list errors, but everything registered
// before it stays registered.
func (r *Registry) RegisterAll(defs []*flow.NodeDefinition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the definition for a type.
func (r *Registry) Get(nodeType string) (*flow.NodeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, nodeType)
	}
	return def, nil
}

// Has reports whether a type is registered. It satisfies flow.TypeChecker.
func (r *Registry) Has(nodeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.defs[nodeType]
	return ok
}

// All returns every definition in registration order. The order is for
// listing only, never execution.
func (r *Registry) All() []*flow.NodeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*flow.NodeDefinition, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.defs[t])
	}
	return out
}
