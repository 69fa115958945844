package nodes

import (
	"context"

	"github.com/tcmartin/flowgraph/pkg/flow"
	"github.com/tcmartin/flowgraph/pkg/services"
)

// The node types below are thin shims over the injected capability services.
// They carry no integration logic of their own; a missing capability fails
// with a clear "service not available" error instead of crashing the run.

func httpRequestDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "http.request",
		Name:     "HTTP Request",
		Category: "integration",
		Parameters: []flow.ParameterSpec{
			{Name: "url", Type: "string", Required: true, Description: "Request URL"},
			{Name: "method", Type: "string", Default: "GET", Description: "HTTP method"},
			{Name: "headers", Type: "object", Description: "Request headers"},
			{Name: "body", Type: "string", Description: "Request body"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			httpService, err := ec.HTTP()
			if err != nil {
				return nil, err
			}
			url, err := requiredString(config, "url")
			if err != nil {
				return nil, err
			}
			method, _ := stringParam(config, "method")
			if method == "" {
				method = "GET"
			}

			headers := make(map[string]string)
			if raw, ok := config["headers"].(map[string]interface{}); ok {
				for key, value := range raw {
					if s, ok := value.(string); ok {
						headers[key] = s
					}
				}
			}

			var body []byte
			if s, ok := stringParam(config, "body"); ok {
				body = []byte(s)
			}

			resp, err := httpService.Request(ctx, method, url, headers, body)
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{
				"status": resp.Status,
				"text":   resp.Text,
			}}}}, nil
		},
	}
}

func llmDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "llm",
		Name:     "LLM",
		Category: "integration",
		Parameters: []flow.ParameterSpec{
			{Name: "prompt", Type: "string", Required: true, Description: "User prompt; supports {{path}} placeholders"},
			{Name: "system", Type: "string", Description: "System prompt"},
			{Name: "model", Type: "string", Description: "Model identifier"},
			{Name: "temperature", Type: "number", Description: "Sampling temperature"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			ai, err := ec.AI()
			if err != nil {
				return nil, err
			}
			prompt, err := requiredString(config, "prompt")
			if err != nil {
				return nil, err
			}

			var messages []services.Message
			if system, ok := stringParam(config, "system"); ok && system != "" {
				messages = append(messages, services.Message{Role: "system", Content: system})
			}
			messages = append(messages, services.Message{Role: "user", Content: prompt})

			opts := services.ChatOptions{}
			if model, ok := stringParam(config, "model"); ok {
				opts.Model = model
			}
			if temp, ok := config["temperature"].(float64); ok {
				opts.Temperature = temp
			}

			text, err := ai.Chat(ctx, messages, opts)
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{
				"response": text,
			}}}}, nil
		},
	}
}

func vaultReadDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "vault.read",
		Name:     "Vault Read",
		Category: "integration",
		Parameters: []flow.ParameterSpec{
			{Name: "path", Type: "string", Required: true, Description: "Resource path"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			vault, err := ec.Vault()
			if err != nil {
				return nil, err
			}
			path, err := requiredString(config, "path")
			if err != nil {
				return nil, err
			}
			content, err := vault.Read(path)
			if err != nil {
				return nil, err
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{
				"path":    path,
				"content": content,
			}}}}, nil
		},
	}
}

func vaultWriteDefinition() *flow.NodeDefinition {
	return &flow.NodeDefinition{
		Type:     "vault.write",
		Name:     "Vault Write",
		Category: "integration",
		Parameters: []flow.ParameterSpec{
			{Name: "path", Type: "string", Required: true, Description: "Resource path"},
			{Name: "content", Type: "string", Required: true, Description: "Content to write"},
		},
		Execute: func(ctx context.Context, ec *flow.ExecutionContext, inputs []flow.NodeData, config map[string]interface{}) (*flow.Result, error) {
			vault, err := ec.Vault()
			if err != nil {
				return nil, err
			}
			path, err := requiredString(config, "path")
			if err != nil {
				return nil, err
			}
			content, _ := stringParam(config, "content")
			if err := vault.Write(path, content); err != nil {
				return nil, err
			}
			return &flow.Result{Items: []flow.NodeData{{JSON: map[string]interface{}{
				"path":    path,
				"written": true,
			}}}}, nil
		},
	}
}
