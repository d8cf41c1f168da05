// Package observability installs the OpenTelemetry tracer provider for a
// run. When tracing is disabled the global provider stays the default no-op
// and spans cost nothing.
package observability

import (
	"context"
	"io"
	"strings"
	"time"

	"catalogetl/internal/logger"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Enabled bool
	// Exporter is "stdout" or "otlp".
	Exporter string
	// Endpoint is the OTLP/HTTP collector host:port; empty uses the
	// exporter's default (or OTEL_EXPORTER_OTLP_ENDPOINT).
	Endpoint string
	// Service names the resource. Empty means "catalogetl".
	Service string
	// Out receives stdout-exporter spans. Nil discards them.
	Out io.Writer
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider per cfg and returns its shutdown.
func Setup(ctx context.Context, cfg TracingConfig, log *logger.Logger) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noopShutdown, nil
	}
	if log == nil {
		log = logger.Nop()
	}
	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = "catalogetl"
	}

	exp, err := exporter(ctx, cfg)
	if err != nil {
		return noopShutdown, errors.Wrapf(err, "tracing: %s exporter", cfg.Exporter)
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
		attribute.String("service.component", "pipeline"),
	))
	if err != nil {
		log.Warn("tracing: resource init failed (continuing)", "error", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("tracing initialized", "service", service, "exporter", cfg.Exporter)
	return tp.Shutdown, nil
}

func exporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		var opts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	case "", "stdout":
		out := cfg.Out
		if out == nil {
			out = io.Discard
		}
		return stdouttrace.New(stdouttrace.WithWriter(out))
	}
	return nil, errors.Errorf("unknown exporter %q", cfg.Exporter)
}
