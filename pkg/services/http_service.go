package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHTTPTimeout is applied when no timeout is configured.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPService is an HTTP capability backed by the standard net/http client.
type HTTPService struct {
	client *http.Client
}

// NewHTTPService creates a new HTTP service with the given request timeout.
// A zero timeout uses DefaultHTTPTimeout.
func NewHTTPService(timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPService{
		client: &http.Client{Timeout: timeout},
	}
}

// Request performs an HTTP request and returns the response
func (s *HTTPService) Request(ctx context.Context, method, url string, headers map[string]string, body []byte) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		respHeaders[key] = resp.Header.Get(key)
	}

	return &Response{
		Status:  resp.StatusCode,
		Text:    string(data),
		Headers: respHeaders,
	}, nil
}
