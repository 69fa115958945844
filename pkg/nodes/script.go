package nodes

import (
	"context"
	"time"

	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/scripting"
)

// scriptOptions reads the per-node script bounds from config.
func scriptOptions(config map[string]interface{}) scripting.ScriptOptions {
	opts := scripting.ScriptOptions{}
	if ms, ok := intParam(config, "timeoutMs"); ok && ms > 0 {
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}
	opts.AllowAsync = boolParam(config, "allowAsync")
	opts.AllowedCapabilities = stringListParam(config, "capabilities")
	return opts
}

// scriptVariables is the binding set every script-bearing node exposes.
func scriptVariables(inputs []flow.NodeData) map[string]interface{} {
	items := make([]interface{}, 0, len(inputs))
	for _, item := range inputs {
		items = append(items, item.JSON)
	}
	return map[string]interface{}{
		"input": firstJSON(inputs),
		"items": items,
	}
}

// resultToItems converts a script result into emitted NodeData.
func resultToItems(result interface{}) []flow.NodeData {
	switch v := result.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return []flow.NodeData{{JSON: v}}
	case []interface{}:
		items := make([]flow.NodeData, 0, len(v))
		for _, elem := range v {
			if obj, ok := elem.(map[string]interface{}); ok {
				items = append(items, flow.NodeData{JSON: obj})
			} else {
				items = append(items, flow.NodeData{JSON: map[string]interface{}{"item": elem}})
			}
		}
		return items
	default:
		return []flow.NodeData{{JSON: map[string]interface{}{"result": v}}}
	}
}

// transformDefinition runs a script over the first input and emits whatever
// it returns.
func transformDefinition(deps Deps) *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "transform",
		Name:     "Transform",
		Category: "data",
		Parameters: []flow.ParameterSpec{
			{Name: "script", Type: "string", Required: true, Description: "Script body; its return value becomes the output"},
			{Name: "timeoutMs", Type: "number", Description: "Script timeout in milliseconds"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			script, err := requiredString(config, "script")
			if err != nil {
				return nil, err
			}
			result, err := deps.Script.ExecuteCode(ctx, script, scriptVariables(inputs), nil, scriptOptions(config))
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: resultToItems(result)}, nil
		},
	}
}

// filterDefinition keeps the inputs for which the script returns a truthy
// value. Each item is evaluated independently.
func filterDefinition(deps Deps) *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:      "filter",
		Name:      "Filter",
		Category:  "data",
		Combining: true,
		Parameters: []flow.ParameterSpec{
			{Name: "script", Type: "string", Required: true, Description: "Script returning a truthy value to keep the item"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			script, err := requiredString(config, "script")
			if err != nil {
				return nil, err
			}
			opts := scriptOptions(config)
			var kept []flow.NodeData
			for _, item := range inputs {
				result, err := deps.Script.ExecuteCode(ctx, script, map[string]interface{}{"input": item.JSON}, nil, opts)
				if err != nil {
					return nil, err
				}
				if scripting.Truthy(result) {
					kept = append(kept, item)
				}
			}
			return &flow.Result{Items: kept}, nil
		},
	}
}

// codeDefinition is the generic script node. Unlike transform it can be
// granted narrow host capabilities by name; absent a whitelist the script
// runs fully isolated.
func codeDefinition(deps Deps) *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "code",
		Name:     "Code",
		Category: "data",
		Parameters: []flow.ParameterSpec{
			{Name: "script", Type: "string", Required: true, Description: "Script body"},
			{Name: "timeoutMs", Type: "number", Description: "Script timeout in milliseconds"},
			{Name: "allowAsync", Type: "boolean", Description: "Permit the script to return a settled promise"},
			{Name: "capabilities", Type: "array", Description: "Host capability names visible to the script"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			script, err := requiredString(config, "script")
			if err != nil {
				return nil, err
			}

			// The capability surface handed to scripts is deliberately
			// narrow: run cache access and a log line, nothing else.
			host := map[string]interface{}{
				"cache": map[string]interface{}{
					"get": func(key string) interface{} {
						v, _ := ec.CacheGet(key)
						return v
					},
					"set": func(key string, value interface{}) {
						ec.CacheSet(key, value)
					},
				},
				"log": func(message string) {
					ec.Log("", "info", message)
				},
			}

			result, err := deps.Script.ExecuteCode(ctx, script, scriptVariables(inputs), host, scriptOptions(config))
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: resultToItems(result)}, nil
		},
	}
}
