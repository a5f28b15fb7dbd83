package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTransportConfig configures a request/response JSON-RPC transport over a
// single HTTP endpoint.
type HTTPTransportConfig struct {
	Endpoint string
	Headers  map[string]string
	Client   *http.Client
}

// HTTPTransport posts one JSON-RPC message per call and decodes the response
// body as the matching JSON-RPC reply. The gateway answers each request on
// the same round trip, so there is no message stream to multiplex.
type HTTPTransport struct {
	cfg HTTPTransportConfig
}

// NewHTTPTransport creates an endpoint-backed JSON-RPC transport.
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("mcp: http endpoint is required")
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &HTTPTransport{cfg: cfg}, nil
}

// Call sends one JSON-RPC request and returns the decoded response message.
func (t *HTTPTransport) Call(ctx context.Context, message Message) (Message, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return Message{}, fmt.Errorf("mcp: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("mcp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range t.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := t.cfg.Client.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("mcp: send request: %w", err)
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, fmt.Errorf("mcp: read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Message{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(responseBytes)),
		}
	}

	var response Message
	if err := json.Unmarshal(responseBytes, &response); err != nil {
		return Message{}, &ProtocolError{Reason: "undecodable response body", Err: err}
	}
	return response, nil
}

// Close releases transport resources. The HTTP transport holds none beyond
// the shared client.
func (t *HTTPTransport) Close(ctx context.Context) error {
	return nil
}
