package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TraceConfig holds tracing configuration.
type TraceConfig struct {
	// ServiceName identifies the service in exported spans.
	ServiceName string
	// Enabled controls whether spans are exported at all.
	Enabled bool
	// ExporterType selects the exporter: "otlp", "stdout" or "none".
	ExporterType string
	// OTLPEndpoint is the collector endpoint for the otlp exporter.
	OTLPEndpoint string
}

var (
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer = noop.NewTracerProvider().Tracer("assistant")
)

// InitTracing configures the global tracer provider. When disabled, a no-op
// tracer is installed so callers never need nil checks.
func InitTracing(cfg TraceConfig) error {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "assistant"
	}
	if !cfg.Enabled || cfg.ExporterType == "none" || cfg.ExporterType == "" {
		tracer = noop.NewTracerProvider().Tracer(cfg.ServiceName)
		return nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.ExporterType {
	case "otlp":
		opts := []otlptracehttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
		}
		exporter, err = otlptracehttp.New(context.Background(), opts...)
		if err != nil {
			return fmt.Errorf("create otlp exporter: %w", err)
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("create stdout exporter: %w", err)
		}
	default:
		return fmt.Errorf("unknown trace exporter: %s", cfg.ExporterType)
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = tracerProvider.Tracer(cfg.ServiceName)

	return nil
}

// Tracer returns the configured tracer (no-op until InitTracing succeeds).
func Tracer() trace.Tracer {
	return tracer
}

// SetTracer replaces the active tracer; nil restores the no-op tracer.
// Tests use it to install a recording tracer.
func SetTracer(tr trace.Tracer) {
	if tr == nil {
		tr = noop.NewTracerProvider().Tracer("assistant")
	}
	tracer = tr
}

// StartSpan opens a span on the configured tracer. Safe to call before
// InitTracing: the default tracer is a no-op.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, opts...)
}

// ShutdownTracing flushes and stops the tracer provider.
func ShutdownTracing(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}
