package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type staticCredentials struct {
	cred Credential
	err  error
}

func (s staticCredentials) Acquire(ctx context.Context) (Credential, error) {
	if s.err != nil {
		return Credential{}, s.err
	}
	return s.cred, nil
}

type fakeGateway struct {
	outcome  GatewayOutcome
	lastArgs CanonicalArguments
	lastCred Credential
	panics   bool
}

func (f *fakeGateway) Invoke(ctx context.Context, args CanonicalArguments, cred Credential) GatewayOutcome {
	if f.panics {
		panic("gateway exploded")
	}
	f.lastArgs = args
	f.lastCred = cred
	return f.outcome
}

func newTestBridge(t *testing.T, creds CredentialSource, gateway Invoker) *Bridge {
	t.Helper()
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	b, err := New(Config{
		Registry:    registry,
		Credentials: creds,
		Gateway:     gateway,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}

func TestBridgeInvokeSuccess(t *testing.T) {
	gateway := &fakeGateway{
		outcome: SuccessOutcome(json.RawMessage(`{"status":"all enabled"}`)),
	}
	b := newTestBridge(t, staticCredentials{cred: Credential{Token: "tok"}}, gateway)

	envelope := b.Invoke(context.Background(), InvocationRequest{
		OperationID: "checkSecurityStatus",
		Parameters: []RawParameter{
			{Name: "region", Value: "ap-south-1"},
		},
	})

	if err := envelope.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if envelope.Response.Status != StatusOK {
		t.Fatalf("status = %q, body = %q", envelope.Response.Status, envelope.Response.Body)
	}
	if envelope.Response.Operation != "checkSecurityStatus" {
		t.Fatalf("operation = %q", envelope.Response.Operation)
	}
	if gateway.lastArgs.ToolID != "SecurityMCPTools___CheckSecurityServices" {
		t.Fatalf("gateway got tool %q", gateway.lastArgs.ToolID)
	}
	if gateway.lastCred.Token != "tok" {
		t.Fatalf("gateway got credential %q", gateway.lastCred.Token)
	}
}

func TestBridgeInvokeMappingFailureProducesEnvelope(t *testing.T) {
	b := newTestBridge(t, staticCredentials{cred: Credential{Token: "tok"}}, &fakeGateway{})

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "noSuchOperation"})

	if err := envelope.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if envelope.Response.Status != StatusFailure {
		t.Fatalf("status = %q, want FAILURE", envelope.Response.Status)
	}
	if !strings.HasPrefix(envelope.Response.Body, string(KindUnknownOperation)) {
		t.Fatalf("body = %q, want %s prefix", envelope.Response.Body, KindUnknownOperation)
	}
}

func TestBridgeInvokeAuthFailureIsTerminal(t *testing.T) {
	b := newTestBridge(t,
		staticCredentials{err: NewError(StageAuth, KindAuthentication, "invalid client", nil)},
		&fakeGateway{})

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "getStoredContext"})

	if envelope.Response.Status != StatusFailure {
		t.Fatalf("status = %q, want FAILURE", envelope.Response.Status)
	}
	if !strings.HasPrefix(envelope.Response.Body, string(KindAuthentication)) {
		t.Fatalf("body = %q, want %s prefix", envelope.Response.Body, KindAuthentication)
	}
}

func TestBridgeInvokeUnclassifiedAuthErrorBecomesAuthentication(t *testing.T) {
	b := newTestBridge(t,
		staticCredentials{err: errors.New("connection reset")},
		&fakeGateway{})

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "getStoredContext"})

	if !strings.HasPrefix(envelope.Response.Body, string(KindAuthentication)) {
		t.Fatalf("body = %q, want %s prefix", envelope.Response.Body, KindAuthentication)
	}
}

func TestBridgeInvokeGatewayFailureFlowsThrough(t *testing.T) {
	gateway := &fakeGateway{
		outcome: FailureOutcome(NewError(StageGateway, KindDownstream, "forbidden", nil)),
	}
	b := newTestBridge(t, staticCredentials{cred: Credential{Token: "tok"}}, gateway)

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "getStoredContext"})

	if envelope.Response.Status != StatusFailure {
		t.Fatalf("status = %q, want FAILURE", envelope.Response.Status)
	}
	if envelope.Response.Body != "forbidden" {
		t.Fatalf("body = %q, want verbatim downstream error", envelope.Response.Body)
	}
}

func TestBridgeInvokeRecoversFromPanic(t *testing.T) {
	b := newTestBridge(t, staticCredentials{cred: Credential{Token: "tok"}}, &fakeGateway{panics: true})

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "getStoredContext"})

	if err := envelope.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if envelope.Response.Status != StatusFailure {
		t.Fatalf("status = %q, want FAILURE", envelope.Response.Status)
	}
	if !strings.HasPrefix(envelope.Response.Body, string(KindProtocolViolation)) {
		t.Fatalf("body = %q, want %s prefix", envelope.Response.Body, KindProtocolViolation)
	}
}

func TestBridgeInvokeTokenBudgetIsEnforced(t *testing.T) {
	slow := credentialFunc(func(ctx context.Context) (Credential, error) {
		select {
		case <-ctx.Done():
			return Credential{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return Credential{Token: "late"}, nil
		}
	})

	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	b, err := New(Config{
		Registry:    registry,
		Credentials: slow,
		Gateway:     &fakeGateway{},
		TokenBudget: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	envelope := b.Invoke(context.Background(), InvocationRequest{OperationID: "getStoredContext"})

	if envelope.Response.Status != StatusFailure {
		t.Fatalf("status = %q, want FAILURE", envelope.Response.Status)
	}
	if !strings.HasPrefix(envelope.Response.Body, string(KindTransient)) {
		t.Fatalf("body = %q, want %s prefix", envelope.Response.Body, KindTransient)
	}
}

type credentialFunc func(ctx context.Context) (Credential, error)

func (f credentialFunc) Acquire(ctx context.Context) (Credential, error) { return f(ctx) }

func TestNewRequiresCollaborators(t *testing.T) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}

	if _, err := New(Config{Credentials: staticCredentials{}, Gateway: &fakeGateway{}}); err == nil {
		t.Fatal("New() without registry: error = nil")
	}
	if _, err := New(Config{Registry: registry, Gateway: &fakeGateway{}}); err == nil {
		t.Fatal("New() without credentials: error = nil")
	}
	if _, err := New(Config{Registry: registry, Credentials: staticCredentials{}}); err == nil {
		t.Fatal("New() without gateway: error = nil")
	}
}
