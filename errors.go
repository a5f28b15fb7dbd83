package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Stage identifies where in the invocation pipeline a failure occurred.
type Stage string

const (
	StageMapping Stage = "mapping"
	StageAuth    Stage = "auth"
	StageGateway Stage = "gateway"
)

// Kind is the machine-readable failure classification. Retry policy is driven
// entirely by kind: only transient failures are ever retried, and only inside
// the credential manager and the gateway connection stage.
type Kind string

const (
	// KindUnknownOperation is returned when no signature exists for an
	// operation identifier.
	KindUnknownOperation Kind = "UNKNOWN_OPERATION"
	// KindUnknownParameter is returned when an inbound parameter name matches
	// no canonical name or alias. Unmapped input is never silently dropped.
	KindUnknownParameter Kind = "UNKNOWN_PARAMETER"
	// KindTypeCoercionFailed is returned when a raw value cannot be coerced to
	// its declared type.
	KindTypeCoercionFailed Kind = "TYPE_COERCION_FAILED"
	// KindMissingRequired is returned when a required parameter without a
	// default has no value after mapping.
	KindMissingRequired Kind = "MISSING_REQUIRED"
	// KindAuthentication is a terminal rejection from the identity provider.
	KindAuthentication Kind = "AUTHENTICATION_FAILED"
	// KindTransient covers transport failures and timeouts eligible for
	// bounded retry.
	KindTransient Kind = "TRANSIENT_FAILURE"
	// KindDownstream is a business error reported by the tool host. It is
	// surfaced verbatim and never retried.
	KindDownstream Kind = "DOWNSTREAM_ERROR"
	// KindProtocolViolation marks an unparseable or malformed downstream
	// response. Treated as a defect signal and logged with payload context.
	KindProtocolViolation Kind = "PROTOCOL_VIOLATION"
)

// Error is the structured bridge failure that flows from any stage to the
// response formatter without losing its stage, kind, or retryability.
type Error struct {
	Stage     Stage
	Kind      Kind
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds a stage-tagged bridge error. Retryability follows the kind.
func NewError(stage Stage, kind Kind, message string, cause error) *Error {
	msg := strings.TrimSpace(message)
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Stage:     stage,
		Kind:      kind,
		Message:   msg,
		Retryable: kind == KindTransient,
		Cause:     cause,
	}
}

// Errorf builds a stage-tagged bridge error with a formatted message.
func Errorf(stage Stage, kind Kind, format string, args ...any) *Error {
	return NewError(stage, kind, fmt.Sprintf(format, args...), nil)
}

// AsBridgeError extracts a *Error from an error chain.
func AsBridgeError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var bridgeErr *Error
	if errors.As(err, &bridgeErr) {
		return bridgeErr, true
	}
	return nil, false
}

// KindOf returns the failure kind of an error chain, or empty.
func KindOf(err error) Kind {
	if bridgeErr, ok := AsBridgeError(err); ok {
		return bridgeErr.Kind
	}
	return ""
}

// IsRetryable reports whether an error is eligible for transient retry.
// Context deadline expiry and network timeouts count as transient; everything
// else follows the explicit classification.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if bridgeErr, ok := AsBridgeError(err); ok {
		return bridgeErr.Retryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
