// Package services defines the host capability boundary consumed by node
// behaviors through the execution context. The engine never talks to storage,
// AI providers or the network directly; it only sees these interfaces.
package services

import (
	"context"
	"errors"
)

// ErrNotAvailable is returned when a node requires a capability the host did
// not inject into the execution context.
var ErrNotAvailable = errors.New("service not available")

// Vault provides access to named resources managed by the host.
type Vault interface {
	// Read returns the content of the resource at path
	Read(path string) (string, error)

	// Write creates or replaces the resource at path
	Write(path string, content string) error

	// Rename moves a resource to a new path
	Rename(oldPath, newPath string) error

	// Delete removes the resource at path
	Delete(path string) error

	// List returns the paths of all resources under prefix
	List(prefix string) ([]string, error)
}

// Message is a single chat message exchanged with an AI provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions control an AI chat request.
type ChatOptions struct {
	// Model identifier, provider-specific
	Model string `json:"model,omitempty"`

	// Temperature for sampling
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`
}

// AI provides chat and embedding capabilities.
type AI interface {
	// Chat sends a conversation to the provider and returns the response text
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)

	// Embed returns an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Response is the result of an HTTP capability request.
type Response struct {
	// Status is the HTTP status code
	Status int `json:"status"`

	// Text is the response body
	Text string `json:"text"`

	// Headers are the response headers, single-valued
	Headers map[string]string `json:"headers,omitempty"`
}

// HTTP provides outbound HTTP requests.
type HTTP interface {
	// Request performs an HTTP request and returns the response
	Request(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error)
}

// Settings exposes host configuration values to node behaviors.
type Settings interface {
	// Get returns the setting for key, if present
	Get(key string) (interface{}, bool)
}

// MapSettings is a Settings implementation backed by a plain map.
type MapSettings map[string]interface{}

// Get returns the setting for key, if present
func (m MapSettings) Get(key string) (interface{}, bool) {
	v, ok := m[key]
	return v, ok
}
