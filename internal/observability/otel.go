// Package observability wires OpenTelemetry tracing.
package observability

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/abhisek/skillforge/internal/logger"
)

// TracerName is the instrumentation scope used across the module.
const TracerName = "github.com/abhisek/skillforge"

type Config struct {
	ServiceName string
	Version     string
	// Stdout pretty-prints spans to standard output.
	Stdout bool
	// OTLPEndpoint, when set, exports over OTLP/HTTP instead.
	OTLPEndpoint string
}

// Init installs a global tracer provider and returns its shutdown func.
// With no exporter configured the global provider stays a no-op.
func Init(ctx context.Context, log *logger.Logger, cfg Config) (func(context.Context) error, error) {
	if !cfg.Stdout && cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	if log == nil {
		log = logger.Nop()
	}

	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "skillforge"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", name),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	exporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Debug("otel tracing initialized", "service", name, "endpoint", cfg.OTLPEndpoint)
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	if cfg.OTLPEndpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if v := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); v == "1" || v == "true" {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

// Tracer returns the module tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NoopTracer returns a tracer that records nothing.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(TracerName)
}
