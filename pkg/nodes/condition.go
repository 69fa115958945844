package nodes

import (
	"context"
	"fmt"

	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/scripting"
)

// conditionDefinition evaluates an expression against the first input and
// routes its output on "true" or "false". The input passes through
// unchanged. Evaluation is bounded by timeoutMs and the run's context, so a
// runaway expression fails the node instead of hanging the run.
func conditionDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "condition",
		Name:     "Condition",
		Category: "logic",
		Parameters: []flow.ParameterSpec{
			{Name: "expression", Type: "string", Required: true, Description: "Expression like ${input.count > 3}"},
			{Name: "timeoutMs", Type: "number", Description: "Expression timeout in milliseconds"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			expression, err := requiredString(config, "expression")
			if err != nil {
				return nil, err
			}
			// The ${...} delimiters are optional sugar; a bare expression
			// like "input.count > 3" is evaluated, never taken as a literal.
			if !scripting.IsExpression(expression) {
				expression = "${" + expression + "}"
			}

			evaluator := scripting.NewExpressionEvaluator()
			if opts := scriptOptions(config); opts.Timeout > 0 {
				evaluator.Timeout = opts.Timeout
			}
			ok, err := evaluator.EvaluateBool(ctx, expression, map[string]interface{}{"input": firstJSON(inputs)})
			if err != nil {
				return nil, err
			}

			result := passthrough(inputs)
			if ok {
				result.Route = "true"
			} else {
				result.Route = "false"
			}
			return result, nil
		},
	}
}

// switchDefinition routes on the value of a field in the first input. The
// cases parameter maps field values to route labels; an unmatched value
// falls back to the configured default route, else to the literal "default"
// port. Branches with no matching edge simply dead-end and are skipped.
func switchDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "switch",
		Name:     "Switch",
		Category: "logic",
		Parameters: []flow.ParameterSpec{
			{Name: "field", Type: "string", Required: true, Description: "Dotted path of the field to switch on"},
			{Name: "cases", Type: "object", Required: true, Description: "Map of field value to route label"},
			{Name: "default", Type: "string", Description: "Route label for unmatched values"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			field, err := requiredString(config, "field")
			if err != nil {
				return nil, err
			}
			cases, ok := config["cases"].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("parameter %q is required and must be an object", "cases")
			}

			value, _ := nestedValue(firstJSON(inputs), field)
			key := fmt.Sprintf("%v", value)

			route := ""
			if label, ok := cases[key].(string); ok {
				route = label
			} else if fallback, ok := stringParam(config, "default"); ok && fallback != "" {
				route = fallback
			} else {
				route = "default"
			}

			result := passthrough(inputs)
			result.Route = route
			return result, nil
		},
	}
}
