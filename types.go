// Package bridge implements the action-invocation bridge: it maps an
// orchestrator's flat, string-typed parameter list onto a downstream tool's
// typed argument set, acquires a bearer credential, performs the gateway call,
// and wraps every outcome in the fixed response envelope the orchestrator
// requires.
package bridge

import "time"

// RawParameter is one untyped name/value pair from the orchestrator. Values
// are always transmitted as text regardless of logical type.
type RawParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InvocationRequest is the orchestrator's inbound request: which operation to
// perform and its raw parameters. Created per call, discarded after mapping.
type InvocationRequest struct {
	OperationID string         `json:"operation"`
	Parameters  []RawParameter `json:"parameters,omitempty"`
}

// CanonicalArguments is the typed, renamed, defaulted argument set ready for
// downstream dispatch. One-to-one with a single gateway call.
type CanonicalArguments struct {
	ToolID    string         `json:"tool_id"`
	Arguments map[string]any `json:"arguments"`
}

// Credential is a short-lived bearer token for the downstream gateway.
type Credential struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the credential may still be used at `now`, keeping the
// given safety margin before expiry.
func (c Credential) Valid(now time.Time, margin time.Duration) bool {
	if c.Token == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(c.ExpiresAt.Add(-margin))
}
