package nodes

import (
	"context"
	"fmt"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// loopDefinition fans out: it emits one NodeData per item of its configured
// collection, each tagged with index/total/isFirst/isLast. Downstream nodes
// then run once per emitted item. Items come either from a literal list in
// config or from a dotted path into the first input.
func loopDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "loop",
		Name:     "Loop",
		Category: "logic",
		Parameters: []flow.ParameterSpec{
			{Name: "items", Type: "array", Description: "Literal list of items to iterate"},
			{Name: "itemsPath", Type: "string", Description: "Dotted path to a list in the input"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			var items []interface{}
			if literal, ok := config["items"].([]interface{}); ok {
				items = literal
			} else if path, ok := stringParam(config, "itemsPath"); ok && path != "" {
				value, found := nestedValue(firstJSON(inputs), path)
				if !found {
					return nil, fmt.Errorf("itemsPath %q not found in input", path)
				}
				list, ok := value.([]interface{})
				if !ok {
					return nil, fmt.Errorf("itemsPath %q does not reference a list", path)
				}
				items = list
			} else {
				return nil, fmt.Errorf("either %q or %q is required", "items", "itemsPath")
			}

			total := len(items)
			emitted := make([]flow.NodeData, 0, total)
			for i, item := range items {
				payload := map[string]interface{}{}
				if obj, ok := item.(map[string]interface{}); ok {
					for k, v := range obj {
						payload[k] = v
					}
				} else {
					payload["item"] = item
				}
				payload["index"] = i
				payload["total"] = total
				payload["isFirst"] = i == 0
				payload["isLast"] = i == total-1
				emitted = append(emitted, flow.NodeData{JSON: payload})
			}
			return &flow.Result{Items: emitted}, nil
		},
	}
}
