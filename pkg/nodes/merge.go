package nodes

import (
	"context"
	"fmt"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// mergeDefinition joins multiple branches. The executor's merge barrier
// guarantees every active predecessor has settled before this runs; the mode
// parameter governs what is emitted. Zero inputs emit a single empty item so
// downstream nodes always receive data.
func mergeDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:      "merge",
		Name:      "Merge",
		Category:  "logic",
		Combining: true,
		Parameters: []flow.ParameterSpec{
			{Name: "mode", Type: "string", Default: "combine", Description: "combine, first or last"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			if len(inputs) == 0 {
				return &flow.Result{Items: []flow.NodeData{flow.NewNodeData()}}, nil
			}

			mode, _ := stringParam(config, "mode")
			switch mode {
			case "", "combine":
				return passthrough(inputs), nil
			case "first":
				return &flow.Result{Items: []flow.NodeData{inputs[0]}}, nil
			case "last":
				return &flow.Result{Items: []flow.NodeData{inputs[len(inputs)-1]}}, nil
			default:
				return nil, fmt.Errorf("unknown merge mode %q", mode)
			}
		},
	}
}
