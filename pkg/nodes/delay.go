package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/tcmartin/flowgraph/pkg/flow"
)

// delayDefinition pauses the run for a configured duration, honoring
// cancellation. The input passes through unchanged.
func delayDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "delay",
		Name:     "Delay",
		Category: "core",
		Parameters: []flow.ParameterSpec{
			{Name: "duration", Type: "string", Description: "Duration like 500ms or 2s"},
			{Name: "ms", Type: "number", Description: "Delay in milliseconds, alternative to duration"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			var wait time.Duration
			if durationStr, ok := stringParam(config, "duration"); ok && durationStr != "" {
				parsed, err := time.ParseDuration(durationStr)
				if err != nil {
					return nil, fmt.Errorf("invalid duration: %w", err)
				}
				wait = parsed
			} else if ms, ok := intParam(config, "ms"); ok {
				wait = time.Duration(ms) * time.Millisecond
			} else {
				return nil, fmt.Errorf("either %q or %q is required", "duration", "ms")
			}

			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return passthrough(inputs), nil
		},
	}
}
