package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

// Pinger reaches the downstream gateway without invoking a tool. The gateway
// client satisfies it by listing tools.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is a snapshot of the most recent gateway probe.
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	CheckedAt  time.Time `json:"checkedAt,omitempty"`
	NextProbe  time.Time `json:"nextProbe,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
	DurationMS int64     `json:"durationMs"`
}

// HealthChecker probes the gateway on a UTC cron schedule and keeps the
// latest result for the health endpoint.
type HealthChecker struct {
	pinger   Pinger
	schedule string
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	status HealthStatus
}

// NewHealthChecker validates the schedule up front. An empty schedule is an
// error; callers that want no probe simply don't construct a checker.
func NewHealthChecker(pinger Pinger, schedule string, timeout time.Duration, logger *slog.Logger) (*HealthChecker, error) {
	if pinger == nil {
		return nil, errors.New("server: health pinger is required")
	}
	if _, err := parseCronExpressionUTC(schedule); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		pinger:   pinger,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		status:   HealthStatus{Healthy: true},
	}, nil
}

// Status returns the latest probe snapshot.
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// CheckNow probes the gateway once and records the result.
func (h *HealthChecker) CheckNow(ctx context.Context) HealthStatus {
	probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.pinger.Ping(probeCtx)
	elapsed := time.Since(start)

	status := HealthStatus{
		Healthy:    err == nil,
		CheckedAt:  start.UTC(),
		DurationMS: elapsed.Milliseconds(),
	}
	obs := bridge.HealthObservation{
		Healthy:    err == nil,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		status.LastError = err.Error()
		obs.ErrorKind = bridge.KindOf(err)
		h.logger.Warn("gateway health probe failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed))
	} else {
		h.logger.Debug("gateway health probe succeeded",
			slog.Duration("elapsed", elapsed))
	}
	bridge.EmitHealthObservation(obs)

	if next, err := nextCronRunUTC(h.schedule, time.Now()); err == nil {
		status.NextProbe = next
	}

	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
	return status
}

// Run probes on the configured schedule until ctx is cancelled.
func (h *HealthChecker) Run(ctx context.Context) error {
	for {
		next, err := nextCronRunUTC(h.schedule, time.Now())
		if err != nil {
			return err
		}

		h.mu.Lock()
		h.status.NextProbe = next
		h.mu.Unlock()

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		h.CheckNow(ctx)
	}
}
