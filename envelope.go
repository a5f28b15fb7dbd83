package bridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProtocolVersion is the fixed envelope version the orchestrator validates.
const ProtocolVersion = "1.0"

// Envelope status values. FAILURE is an explicit in-band state distinct from
// any transport-level success code, so the orchestrator can tell "the tool ran
// and reported a result" apart from "the bridge could not complete the call".
const (
	StatusOK      = "OK"
	StatusFailure = "FAILURE"
)

// ResponseEnvelope is the fixed structure returned to the orchestrator. Every
// field is mandatory regardless of outcome.
type ResponseEnvelope struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Response        ResponseBody `json:"response"`
}

// ResponseBody carries the operation echo, the status marker, and the
// serialized result or error text.
type ResponseBody struct {
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Body      string `json:"body"`
}

// Validate checks the envelope invariants the orchestrator enforces. A
// violation here is a formatter defect, not a runtime condition.
func (e ResponseEnvelope) Validate() error {
	if e.ProtocolVersion != ProtocolVersion {
		return fmt.Errorf("bridge: envelope protocolVersion %q, want %q", e.ProtocolVersion, ProtocolVersion)
	}
	if strings.TrimSpace(e.Response.Operation) == "" {
		return fmt.Errorf("bridge: envelope has empty operation")
	}
	if e.Response.Status != StatusOK && e.Response.Status != StatusFailure {
		return fmt.Errorf("bridge: envelope has invalid status %q", e.Response.Status)
	}
	if e.Response.Body == "" {
		return fmt.Errorf("bridge: envelope has empty body")
	}
	return nil
}

// GatewayOutcome is the tagged result of one downstream call: either a raw
// JSON result or a classified bridge error. Exactly one side is set.
type GatewayOutcome struct {
	Result json.RawMessage
	Err    *Error
}

// SuccessOutcome wraps a downstream result payload.
func SuccessOutcome(result json.RawMessage) GatewayOutcome {
	return GatewayOutcome{Result: result}
}

// FailureOutcome wraps a classified failure.
func FailureOutcome(err *Error) GatewayOutcome {
	return GatewayOutcome{Err: err}
}

// FormatOutcome maps every possible outcome to exactly one well-formed
// envelope. It is total: there is no input for which a mandatory field is
// left unset.
func FormatOutcome(operationID string, outcome GatewayOutcome) ResponseEnvelope {
	operation := operationID
	if strings.TrimSpace(operation) == "" {
		operation = "unknown"
	}

	if outcome.Err != nil {
		return ResponseEnvelope{
			ProtocolVersion: ProtocolVersion,
			Response: ResponseBody{
				Operation: operation,
				Status:    StatusFailure,
				Body:      failureBody(outcome.Err),
			},
		}
	}

	body := string(outcome.Result)
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	return ResponseEnvelope{
		ProtocolVersion: ProtocolVersion,
		Response: ResponseBody{
			Operation: operation,
			Status:    StatusOK,
			Body:      body,
		},
	}
}

// failureBody renders the human-readable error text. Downstream business
// errors are surfaced verbatim; other kinds keep their classification prefix
// so caller/config mismatches stay attributable.
func failureBody(err *Error) string {
	if err == nil {
		return string(KindProtocolViolation)
	}
	if err.Kind == KindDownstream && strings.TrimSpace(err.Message) != "" {
		return err.Message
	}
	return err.Error()
}
