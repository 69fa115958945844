package nodes

import (
	"context"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// errorHandlerDefinition forwards its input and continues the run on
// failure by default. Placed after a fallible branch it turns upstream
// fallback data into a normal payload, optionally attaching a message.
func errorHandlerDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:            "error",
		Name:            "Error Handler",
		Category:        "logic",
		ContinueOnError: true,
		Parameters: []flow.ParameterSpec{
			{Name: "message", Type: "string", Description: "Message attached when the input carries an error"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			message, _ := stringParam(config, "message")

			items := make([]flow.NodeData, 0, len(inputs))
			for _, item := range inputs {
				if _, failed := item.JSON["error"]; failed && message != "" {
					out := item.Copy()
					out.JSON["message"] = message
					items = append(items, out)
				} else {
					items = append(items, item)
				}
			}
			if len(items) == 0 {
				items = append(items, flow.NewNodeData())
			}
			return &flow.Result{Items: items}, nil
		},
	}
}
