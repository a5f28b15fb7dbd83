package bridge

import (
	"context"
	"time"
)

// BackoffPolicy bounds transient retries: a fixed attempt budget with an
// exponential delay that doubles per attempt up to a cap.
type BackoffPolicy struct {
	MaxAttempts int           `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	BaseDelay   time.Duration `json:"base_delay,omitempty" yaml:"base_delay,omitempty"`
	MaxDelay    time.Duration `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
}

// DefaultBackoff is the credential-manager retry bound: three attempts with
// a doubling delay starting at 200ms and capped at 2s.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

func normalizeBackoff(policy BackoffPolicy) BackoffPolicy {
	out := policy
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 1
	}
	if out.BaseDelay < 0 {
		out.BaseDelay = 0
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = out.BaseDelay
	}
	return out
}

// backoffDelay returns the wait before the attempt following `attempt`
// (1-based): base doubling per completed attempt, capped at MaxDelay.
func backoffDelay(policy BackoffPolicy, attempt int) time.Duration {
	if policy.BaseDelay <= 0 || attempt <= 0 {
		return 0
	}
	delay := policy.BaseDelay << (attempt - 1)
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}

// AttemptFunc is one retriable unit of work.
type AttemptFunc func(ctx context.Context, attempt int) error

// RetryTransient runs fn up to the policy's attempt bound, sleeping the
// exponential backoff between attempts. Non-retryable errors stop the loop
// immediately. onRetry, when non-nil, is invoked before each backoff sleep.
// Returns the number of attempts made and the final error.
func RetryTransient(ctx context.Context, policy BackoffPolicy, onRetry func(attempt int, err error), fn AttemptFunc) (int, error) {
	normalized := normalizeBackoff(policy)

	var lastErr error
	for attempt := 1; attempt <= normalized.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == normalized.MaxAttempts || !IsRetryable(lastErr) {
			return attempt, lastErr
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}

		wait := backoffDelay(normalized, attempt)
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return normalized.MaxAttempts, lastErr
}
