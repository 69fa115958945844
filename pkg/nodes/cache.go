package nodes

import (
	"context"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// cacheSetDefinition writes a value into the run-scoped cache. The cache
// lives and dies with the run; nothing here persists.
func cacheSetDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "cache.set",
		Name:     "Cache Set",
		Category: "data",
		Parameters: []flow.ParameterSpec{
			{Name: "key", Type: "string", Required: true, Description: "Cache key"},
			{Name: "value", Type: "any", Description: "Value to store; defaults to the first input payload"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			key, err := requiredString(config, "key")
			if err != nil {
				return nil, err
			}
			value, ok := config["value"]
			if !ok {
				value = firstJSON(inputs)
			}
			ec.CacheSet(key, value)
			return passthrough(inputs), nil
		},
	}
}

// cacheGetDefinition reads a value from the run-scoped cache.
func cacheGetDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "cache.get",
		Name:     "Cache Get",
		Category: "data",
		Parameters: []flow.ParameterSpec{
			{Name: "key", Type: "string", Required: true, Description: "Cache key"},
			{Name: "default", Type: "any", Description: "Value emitted when the key is absent"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			key, err := requiredString(config, "key")
			if err != nil {
				return nil, err
			}
			value, found := ec.CacheGet(key)
			if !found {
				value = config["default"]
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{
				"key":   key,
				"value": value,
				"found": found,
			}}}}, nil
		},
	}
}
