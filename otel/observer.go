// Package otel records bridge observability signals into OpenTelemetry.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	bridge "github.com/ajitnk-lab/agentcore-bridge"
)

// BridgeObserver translates bridge observations into metrics and spans.
type BridgeObserver struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	retries     metric.Int64Counter
	tokens      metric.Int64Counter
	health      metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewBridgeObserver creates an observer bound to the provided meter/tracer.
func NewBridgeObserver(meter metric.Meter, tracer trace.Tracer) (*BridgeObserver, error) {
	invocations, err := meter.Int64Counter(
		"agentbridge.invocations",
		metric.WithDescription("Number of bridge invocations"),
	)
	if err != nil {
		return nil, err
	}
	retries, err := meter.Int64Counter(
		"agentbridge.retries",
		metric.WithDescription("Number of transient retry attempts"),
	)
	if err != nil {
		return nil, err
	}
	tokens, err := meter.Int64Counter(
		"agentbridge.token.acquisitions",
		metric.WithDescription("Number of credential acquisitions"),
	)
	if err != nil {
		return nil, err
	}
	health, err := meter.Int64Counter(
		"agentbridge.gateway.health.checks",
		metric.WithDescription("Number of gateway health probes"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"agentbridge.invocation.latency",
		metric.WithDescription("Bridge invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &BridgeObserver{
		tracer:      tracer,
		invocations: invocations,
		retries:     retries,
		tokens:      tokens,
		health:      health,
		latency:     latency,
	}, nil
}

// ObserveInvocation records one invocation result.
func (o *BridgeObserver) ObserveInvocation(observation bridge.InvocationObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", observation.Operation),
		attribute.String("stage", string(observation.Stage)),
		attribute.Bool("success", observation.Success),
	}
	if observation.ToolID != "" {
		attrs = append(attrs, attribute.String("tool_id", observation.ToolID))
	}
	if observation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(observation.ErrorKind)))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "bridge.invoke", trace.WithAttributes(attrs...))
	if !observation.Success {
		span.SetStatus(codes.Error, string(observation.ErrorKind))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ObserveRetry records one retry attempt.
func (o *BridgeObserver) ObserveRetry(observation bridge.RetryObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("scope", observation.Scope),
		attribute.Int("attempt", observation.Attempt),
	}
	if observation.Operation != "" {
		attrs = append(attrs, attribute.String("operation", observation.Operation))
	}
	if observation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(observation.ErrorKind)))
	}
	o.retries.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// ObserveToken records one credential acquisition.
func (o *BridgeObserver) ObserveToken(observation bridge.TokenObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("client_id", observation.ClientID),
		attribute.Bool("cached", observation.Cached),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(observation.ErrorKind)))
	}
	o.tokens.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// ObserveHealth records one gateway health probe.
func (o *BridgeObserver) ObserveHealth(observation bridge.HealthObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("healthy", observation.Healthy),
	}
	if observation.ErrorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", string(observation.ErrorKind)))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.health.Add(ctx, 1, options)
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)
}
