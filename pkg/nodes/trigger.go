package nodes

import (
	"context"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// triggerDefinition is the manual entry point of a workflow. It emits its
// configured payload, or forwards the run's seed input, or a single empty
// item so downstream nodes always receive something.
func triggerDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "trigger",
		Name:     "Trigger",
		Category: "core",
		Parameters: []flow.ParameterSpec{
			{Name: "payload", Type: "object", Description: "Data emitted when the workflow starts"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			if payload, ok := config["payload"].(map[string]interface{}); ok {
				return &flow.Result{Items: []flow.NodeData{{JSON: payload}}}, nil
			}
			if len(inputs) > 0 {
				return passthrough(inputs), nil
			}
			return &flow.Result{Items: []flow.NodeData{flow.NewNodeData()}}, nil
		},
	}
}
