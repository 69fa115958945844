// Package nodes provides the built-in node type definitions. Every node type
// is registered through the registry; the executor never knows about any of
// them specifically.
package nodes

import (
	"fmt"
	"strings"

	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/registry"
	"github.com/tcmartin/flowgraph/pkg/scripting"
	"github.com/tcmartin/flowgraph/pkg/template"
)

// Deps are the services the built-in node types close over. The script
// engine is constructed by whoever assembles the runtime and passed in
// explicitly; there is no process-wide instance.
type Deps struct {
	// Script executes sandboxed user scripts
	Script scripting.ScriptEngine

	// Resolver formats templates for the template node
	Resolver *template.Resolver
}

// Definitions returns every built-in node definition.
func Definitions(deps Deps) []*flow.NodeDefinition {
	if deps.Resolver == nil {
		deps.Resolver = template.NewResolver(template.Options{})
	}
	return []*flow.NodeDefinition{
		triggerDefinition(),
		transformDefinition(deps),
		filterDefinition(deps),
		codeDefinition(deps),
		conditionDefinition(),
		switchDefinition(),
		mergeDefinition(),
		loopDefinition(),
		delayDefinition(),
		templateDefinition(deps),
		cacheSetDefinition(),
		cacheGetDefinition(),
		httpRequestDefinition(),
		llmDefinition(),
		vaultReadDefinition(),
		vaultWriteDefinition(),
		errorHandlerDefinition(),
	}
}

// Register registers every built-in node type.
func Register(reg *registry.Registry, deps Deps) error {
	return reg.RegisterAll(Definitions(deps))
}

// firstJSON returns the first input's payload, or an empty map.
func firstJSON(inputs []flow.NodeData) map[string]interface{} {
	if len(inputs) > 0 && inputs[0].JSON != nil {
		return inputs[0].JSON
	}
	return map[string]interface{}{}
}

// passthrough forwards the inputs unchanged as the node's output.
func passthrough(inputs []flow.NodeData) *flow.Result {
	items := make([]flow.NodeData, len(inputs))
	copy(items, inputs)
	return &flow.Result{Items: items}
}

// stringParam reads a string parameter.
func stringParam(config map[string]interface{}, key string) (string, bool) {
	v, ok := config[key].(string)
	return v, ok
}

// intParam reads a numeric parameter, tolerating the types JSON and YAML
// decoding produce.
func intParam(config map[string]interface{}, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// boolParam reads a boolean parameter.
func boolParam(config map[string]interface{}, key string) bool {
	v, _ := config[key].(bool)
	return v
}

// stringListParam reads a list-of-strings parameter.
func stringListParam(config map[string]interface{}, key string) []string {
	raw, ok := config[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// nestedValue walks a dotted path through a payload, yielding not found when
// traversal passes through a non-object.
func nestedValue(payload map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = payload
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// requiredString reads a required string parameter or builds the node error.
func requiredString(config map[string]interface{}, key string) (string, error) {
	v, ok := stringParam(config, key)
	if !ok || v == "" {
		return "", fmt.Errorf("parameter %q is required and must be a string", key)
	}
	return v, nil
}
