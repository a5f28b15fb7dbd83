package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ajitnk-lab/agentcore-bridge/mcp"
)

// Invoker performs one downstream call with canonical arguments and a bearer
// credential, classifying the outcome.
type Invoker interface {
	Invoke(ctx context.Context, args CanonicalArguments, cred Credential) GatewayOutcome
}

// GatewayClientConfig configures the MCP gateway client.
type GatewayClientConfig struct {
	// Endpoint is the gateway's MCP URL.
	Endpoint string
	// HTTPClient is shared across invocations; its timeout is a transport
	// backstop, the per-call bound comes from the invocation context.
	HTTPClient *http.Client
	// Retry bounds transient connection retries. The default is a single
	// attempt: downstream-reported errors are never retried, and connection
	// retry is an opt-in policy.
	Retry BackoffPolicy
}

// GatewayClient invokes tools on an MCP gateway over authenticated JSON-RPC.
type GatewayClient struct {
	endpoint   string
	httpClient *http.Client
	retry      BackoffPolicy
}

// NewGatewayClient validates the configuration and builds a gateway client.
func NewGatewayClient(cfg GatewayClientConfig) (*GatewayClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("bridge: gateway endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &GatewayClient{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		retry:      retry,
	}, nil
}

// Invoke serializes the canonical arguments into a tools/call request, sends
// it with the bearer credential, and classifies the result.
//
// A JSON-RPC error object or an isError result is a downstream business
// outcome: surfaced verbatim, never retried. Only connection-level transient
// failures are eligible for the configured retry bound.
func (g *GatewayClient) Invoke(ctx context.Context, args CanonicalArguments, cred Credential) GatewayOutcome {
	var result mcp.ToolsCallResult

	_, err := RetryTransient(ctx, g.retry, func(attempt int, attemptErr error) {
		EmitRetryObservation(RetryObservation{
			Scope:     "gateway",
			Operation: args.ToolID,
			Attempt:   attempt,
			ErrorKind: KindTransient,
		})
	}, func(ctx context.Context, attempt int) error {
		client, err := g.newSession(cred)
		if err != nil {
			return err
		}
		result, err = client.CallTool(ctx, mcp.ToolsCallParams{
			Name:      args.ToolID,
			Arguments: args.Arguments,
		})
		if err != nil {
			return classifyGatewayError(err)
		}
		return nil
	})
	if err != nil {
		return FailureOutcome(asGatewayError(err))
	}

	if result.IsError {
		message := result.ErrorText()
		if message == "" {
			message = fmt.Sprintf("tool %q reported an error", args.ToolID)
		}
		return FailureOutcome(NewError(StageGateway, KindDownstream, message, nil))
	}
	return SuccessOutcome(result.Raw)
}

// Ping lists the gateway's tools with the given credential. It exercises the
// full transport and auth path without invoking any tool.
func (g *GatewayClient) Ping(ctx context.Context, cred Credential) error {
	client, err := g.newSession(cred)
	if err != nil {
		return err
	}
	if _, err := client.ListTools(ctx); err != nil {
		return classifyGatewayError(err)
	}
	return nil
}

// newSession builds a per-invocation client so the bearer header never leaks
// across invocations with different credentials.
func (g *GatewayClient) newSession(cred Credential) (*mcp.Client, error) {
	transport, err := mcp.NewHTTPTransport(mcp.HTTPTransportConfig{
		Endpoint: g.endpoint,
		Headers: map[string]string{
			"Authorization": "Bearer " + cred.Token,
		},
		Client: g.httpClient,
	})
	if err != nil {
		return nil, NewError(StageGateway, KindTransient, "", err)
	}
	return mcp.NewClient(transport), nil
}

// classifyGatewayError maps an mcp-layer failure onto the bridge taxonomy.
func classifyGatewayError(err error) *Error {
	var rpcErr *mcp.RPCError
	if errors.As(err, &rpcErr) {
		return NewError(StageGateway, KindDownstream, rpcErr.Message, rpcErr)
	}

	var protoErr *mcp.ProtocolError
	if errors.As(err, &protoErr) {
		return NewError(StageGateway, KindProtocolViolation, "", protoErr)
	}

	var statusErr *mcp.StatusError
	if errors.As(err, &statusErr) {
		// 4xx means the gateway evaluated and rejected the request; only
		// server-side trouble is worth another connection attempt.
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return NewError(StageGateway, KindDownstream, "", statusErr)
		}
		return NewError(StageGateway, KindTransient, "", statusErr)
	}

	return NewError(StageGateway, KindTransient, "", err)
}

// asGatewayError coerces retry-loop errors (context expiry included) into a
// stage-tagged bridge error.
func asGatewayError(err error) *Error {
	if bridgeErr, ok := AsBridgeError(err); ok {
		return bridgeErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(StageGateway, KindTransient, "gateway call deadline exceeded", err)
	}
	return NewError(StageGateway, KindTransient, "", err)
}
