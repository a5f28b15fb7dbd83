package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransportRequiresEndpoint(t *testing.T) {
	if _, err := NewHTTPTransport(HTTPTransportConfig{}); err == nil {
		t.Fatal("NewHTTPTransport() error = nil, want non-nil")
	}
}

func TestHTTPTransportSendsHeadersAndDecodes(t *testing.T) {
	var gotContentType, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")

		var request Message
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Message{
			JSONRPC: "2.0",
			ID:      request.ID,
			Result:  json.RawMessage(`{"ok":true}`),
		})
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{
		Endpoint: server.URL,
		Headers:  map[string]string{"Authorization": "Bearer token"},
	})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	response, err := transport.Call(context.Background(), Message{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if response.ID != 1 || len(response.Result) == 0 {
		t.Fatalf("response = %+v", response)
	}
}

func TestHTTPTransportNonOKStatusIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	_, err = transport.Call(context.Background(), Message{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
	if statusErr.Body != "bad gateway" {
		t.Fatalf("body = %q", statusErr.Body)
	}
}

func TestHTTPTransportUnparseableBodyIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewHTTPTransport() error = %v", err)
	}

	_, err = transport.Call(context.Background(), Message{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want *ProtocolError", err)
	}
}
