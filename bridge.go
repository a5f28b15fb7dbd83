package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State names the orchestrator's linear invocation states. Each stage either
// advances exactly one state or moves directly to StateFailed; no stage is
// retried by the orchestrator itself.
type State string

const (
	StateStart         State = "start"
	StateMapped        State = "mapped"
	StateAuthenticated State = "authenticated"
	StateInvoked       State = "invoked"
	StateFormatted     State = "formatted"
	StateFailed        State = "failed"
)

// CredentialSource acquires a bearer credential for one invocation.
type CredentialSource interface {
	Acquire(ctx context.Context) (Credential, error)
}

// Config assembles a Bridge. TokenBudget and CallBudget are enforced
// independently so a hang in one stage cannot consume the other stage's time.
type Config struct {
	Registry    *Registry
	Credentials CredentialSource
	Gateway     Invoker
	TokenBudget time.Duration
	CallBudget  time.Duration
	Logger      *slog.Logger
}

// Bridge composes mapping, credential acquisition, the gateway call, and
// response formatting into one bounded invocation.
type Bridge struct {
	registry    *Registry
	credentials CredentialSource
	gateway     Invoker
	tokenBudget time.Duration
	callBudget  time.Duration
	logger      *slog.Logger
}

const (
	defaultTokenBudget = 10 * time.Second
	defaultCallBudget  = 30 * time.Second
)

// New validates the configuration and builds a Bridge.
func New(cfg Config) (*Bridge, error) {
	if cfg.Registry == nil {
		return nil, errors.New("bridge: registry is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("bridge: credential source is required")
	}
	if cfg.Gateway == nil {
		return nil, errors.New("bridge: gateway invoker is required")
	}
	tokenBudget := cfg.TokenBudget
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}
	callBudget := cfg.CallBudget
	if callBudget <= 0 {
		callBudget = defaultCallBudget
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		registry:    cfg.Registry,
		credentials: cfg.Credentials,
		gateway:     cfg.Gateway,
		tokenBudget: tokenBudget,
		callBudget:  callBudget,
		logger:      logger,
	}, nil
}

// Invoke runs one invocation through the Start → Mapped → Authenticated →
// Invoked → Formatted pipeline. It is total: every path, including panics in
// a collaborator, ends in a well-formed envelope. Invoke never returns an
// error and holds no state across calls.
func (b *Bridge) Invoke(ctx context.Context, req InvocationRequest) (envelope ResponseEnvelope) {
	start := time.Now()
	state := StateStart
	toolID := ""

	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.Error("invocation panicked",
				"operation", req.OperationID,
				"state", string(state),
				"panic", fmt.Sprint(recovered))
			failure := Errorf(stageOf(state), KindProtocolViolation, "internal failure during %s", state)
			envelope = b.fail(req.OperationID, toolID, start, failure)
		}
	}()

	args, err := MapParameters(b.registry, req)
	if err != nil {
		return b.fail(req.OperationID, toolID, start, coerceError(StageMapping, err))
	}
	state = StateMapped
	toolID = args.ToolID

	tokenCtx, cancelToken := context.WithTimeout(ctx, b.tokenBudget)
	cred, err := b.credentials.Acquire(tokenCtx)
	cancelToken()
	if err != nil {
		return b.fail(req.OperationID, toolID, start, coerceError(StageAuth, err))
	}
	state = StateAuthenticated

	callCtx, cancelCall := context.WithTimeout(ctx, b.callBudget)
	outcome := b.gateway.Invoke(callCtx, args, cred)
	cancelCall()
	if outcome.Err != nil {
		return b.fail(req.OperationID, toolID, start, outcome.Err)
	}
	state = StateInvoked

	envelope = FormatOutcome(req.OperationID, outcome)
	state = StateFormatted

	EmitInvocationObservation(InvocationObservation{
		Operation:  req.OperationID,
		ToolID:     toolID,
		Stage:      StageGateway,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    true,
	})
	return envelope
}

// fail routes every terminal error through the formatter so the envelope
// contract holds for mapping and auth failures, not just downstream ones.
func (b *Bridge) fail(operationID, toolID string, start time.Time, failure *Error) ResponseEnvelope {
	b.logger.Warn("invocation failed",
		"operation", operationID,
		"stage", string(failure.Stage),
		"kind", string(failure.Kind),
		"error", failure.Error())

	EmitInvocationObservation(InvocationObservation{
		Operation:  operationID,
		ToolID:     toolID,
		Stage:      failure.Stage,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    false,
		ErrorKind:  failure.Kind,
	})
	return FormatOutcome(operationID, FailureOutcome(failure))
}

// coerceError tags errors escaping a stage that are not already classified.
// Deadline expiry counts as transient; anything unclassified from the auth
// stage is treated as an authentication failure rather than silently retried.
func coerceError(stage Stage, err error) *Error {
	if bridgeErr, ok := AsBridgeError(err); ok {
		return bridgeErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(stage, KindTransient, "stage deadline exceeded", err)
	}
	if stage == StageAuth {
		return NewError(stage, KindAuthentication, "", err)
	}
	return NewError(stage, KindProtocolViolation, "", err)
}

// stageOf maps an invocation state to the stage whose failure it reports.
func stageOf(state State) Stage {
	switch state {
	case StateStart:
		return StageMapping
	case StateMapped:
		return StageAuth
	default:
		return StageGateway
	}
}
