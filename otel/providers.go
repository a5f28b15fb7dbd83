package otel

import (
	"context"
	"fmt"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderConfig configures the process's telemetry providers.
type ProviderConfig struct {
	// ServiceName becomes the OTel service.name resource attribute.
	ServiceName string
	// TraceEndpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// disables the exporter and yields a no-export tracer provider.
	TraceEndpoint string
	// Insecure disables TLS toward the collector.
	Insecure bool
}

// Providers bundles the SDK providers so the host can shut them down.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// NewProviders builds tracer and meter providers and installs them as the
// process globals. When a collector endpoint is configured, spans are
// exported over OTLP/HTTP.
func NewProviders(ctx context.Context, cfg ProviderConfig) (*Providers, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "agentbridge"
	}

	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TraceEndpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.TraceEndpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("otel: create trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
	}

	p := &Providers{
		Tracer: sdktrace.NewTracerProvider(traceOpts...),
		Meter:  sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)),
	}
	otelapi.SetTracerProvider(p.Tracer)
	otelapi.SetMeterProvider(p.Meter)
	return p, nil
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var firstErr error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
