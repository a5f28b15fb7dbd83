package bridge

import "sync"

// InvocationObservation captures one complete bridge invocation outcome.
type InvocationObservation struct {
	Operation  string
	ToolID     string
	Stage      Stage
	DurationMS int64
	Success    bool
	ErrorKind  Kind
}

// RetryObservation captures one transient retry attempt.
type RetryObservation struct {
	Scope     string // "token" or "gateway"
	Operation string
	Attempt   int
	ErrorKind Kind
}

// TokenObservation captures one credential acquisition.
type TokenObservation struct {
	ClientID   string
	Cached     bool
	DurationMS int64
	Success    bool
	ErrorKind  Kind
}

// HealthObservation captures one gateway health probe.
type HealthObservation struct {
	Healthy    bool
	DurationMS int64
	ErrorKind  Kind
}

// Observer receives bridge-level observability events.
type Observer interface {
	ObserveInvocation(observation InvocationObservation)
	ObserveRetry(observation RetryObservation)
	ObserveToken(observation TokenObservation)
	ObserveHealth(observation HealthObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvocation(InvocationObservation) {}
func (noopObserver) ObserveRetry(RetryObservation)           {}
func (noopObserver) ObserveToken(TokenObservation)           {}
func (noopObserver) ObserveHealth(HealthObservation)         {}

var (
	observerMu     sync.RWMutex
	activeObserver Observer = noopObserver{}
)

// SetObserver installs the process-wide observability observer. Passing nil
// restores the no-op observer.
func SetObserver(observer Observer) {
	observerMu.Lock()
	defer observerMu.Unlock()
	if observer == nil {
		activeObserver = noopObserver{}
		return
	}
	activeObserver = observer
}

func currentObserver() Observer {
	observerMu.RLock()
	observer := activeObserver
	observerMu.RUnlock()
	return observer
}

// EmitInvocationObservation reports one finished invocation.
func EmitInvocationObservation(observation InvocationObservation) {
	currentObserver().ObserveInvocation(observation)
}

// EmitRetryObservation reports one retry attempt.
func EmitRetryObservation(observation RetryObservation) {
	currentObserver().ObserveRetry(observation)
}

// EmitTokenObservation reports one credential acquisition.
func EmitTokenObservation(observation TokenObservation) {
	currentObserver().ObserveToken(observation)
}

// EmitHealthObservation reports one gateway health probe.
func EmitHealthObservation(observation HealthObservation) {
	currentObserver().ObserveHealth(observation)
}
