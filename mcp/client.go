package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Transport performs one JSON-RPC request/response exchange.
type Transport interface {
	Call(ctx context.Context, message Message) (Message, error)
	Close(ctx context.Context) error
}

// Client is a JSON-RPC based MCP client for synchronous gateways.
type Client struct {
	transport Transport

	mu     sync.Mutex
	nextID int64
}

// NewClient returns a new MCP client for a given transport.
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		nextID:    1,
	}
}

// ListTools returns gateway tools from tools/list.
func (c *Client) ListTools(ctx context.Context) (ToolsListResult, error) {
	var result ToolsListResult
	if _, err := c.call(ctx, "tools/list", map[string]any{}, &result); err != nil {
		return ToolsListResult{}, err
	}
	return result, nil
}

// CallTool executes an MCP tool by name with arguments.
func (c *Client) CallTool(ctx context.Context, params ToolsCallParams) (ToolsCallResult, error) {
	var result ToolsCallResult
	raw, err := c.call(ctx, "tools/call", params, &result)
	if err != nil {
		return ToolsCallResult{}, err
	}
	result.Raw = raw
	return result, nil
}

// Close closes the underlying transport.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.transport == nil {
		return nil
	}
	return c.transport.Close(ctx)
}

// call issues one request and decodes the matching result. The raw result
// payload is returned alongside so callers can forward it untouched.
func (c *Client) call(ctx context.Context, method string, params any, out any) (json.RawMessage, error) {
	if c == nil || c.transport == nil {
		return nil, &RequestError{Method: method, Err: errors.New("transport is nil")}
	}

	paramsRaw, err := marshalParams(params)
	if err != nil {
		return nil, &RequestError{Method: method, Err: err}
	}

	id := c.nextRequestID()
	request := Message{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Method:  method,
		Params:  paramsRaw,
	}

	response, err := c.transport.Call(ctx, request)
	if err != nil {
		return nil, err
	}

	if response.JSONRPC != "" && response.JSONRPC != jsonRPCVersion {
		return nil, &ProtocolError{Reason: fmt.Sprintf("unsupported jsonrpc version %q", response.JSONRPC)}
	}
	if response.ID != 0 && response.ID != id {
		return nil, &ProtocolError{Reason: fmt.Sprintf("response id %d does not match request id %d", response.ID, id)}
	}
	if response.Error != nil {
		return nil, response.Error
	}
	if len(response.Result) == 0 {
		return nil, &ProtocolError{Reason: "response carries neither result nor error"}
	}
	if out != nil {
		if err := json.Unmarshal(response.Result, out); err != nil {
			return nil, &ProtocolError{Reason: "undecodable result", Err: err}
		}
	}
	return response.Result, nil
}

func (c *Client) nextRequestID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	return id
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return data, nil
}
