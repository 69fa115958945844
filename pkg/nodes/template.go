package nodes

import (
	"context"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// templateDefinition formats a string through the variable resolver against
// the first input and emits it as {text: ...}.
func templateDefinition(deps Deps) *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "template",
		Name:     "Template",
		Category: "data",
		Parameters: []flow.ParameterSpec{
			{Name: "template", Type: "string", Required: true, Description: "Text with {{path}} placeholders"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			text, err := requiredString(config, "template")
			if err != nil {
				return nil, err
			}
			resolved, err := deps.Resolver.Resolve(text, inputs)
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{"text": resolved}}}}, nil
		},
	}
}
