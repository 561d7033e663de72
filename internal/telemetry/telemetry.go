// Package telemetry provides OpenTelemetry integration for ripi.
//
// Telemetry is disabled by default (zero runtime overhead when off).
//
// # Configuration
//
//	RIPI_OTEL_ENABLED=true                   enable telemetry (default: off)
//	OTEL_SERVICE_NAME=ripi                   override service name
//	OTEL_EXPORTER_OTLP_METRICS_ENDPOINT=h:p  push metrics over OTLP/HTTP
//	OTEL_EXPORTER_OTLP_ENDPOINT=h:p          fallback for the above
//
// Spans are pretty-printed to stderr. Metrics are too, unless an OTLP
// endpoint is configured.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/ripi-dev/ripi"

const shutdownTimeout = 5 * time.Second

var shutdownFns []func(context.Context) error

// Output is where the stdout exporters write. Tests may redirect it.
var Output io.Writer = os.Stderr

// Enabled reports whether telemetry is active (RIPI_OTEL_ENABLED=true).
func Enabled() bool {
	return os.Getenv("RIPI_OTEL_ENABLED") == "true"
}

// Init configures OTel providers. When RIPI_OTEL_ENABLED is not "true" this
// installs no-op providers and returns immediately (zero overhead path).
func Init(ctx context.Context, serviceName, version string) error {
	if !Enabled() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		serviceName = name
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(Output), stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("telemetry: trace exporter: %w", err)
	}
	// A CLI invocation is short-lived: export synchronously instead of batching.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(traceExp),
	)
	otel.SetTracerProvider(tp)
	shutdownFns = append(shutdownFns, tp.Shutdown)

	metricExp, err := buildMetricExporter(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(time.Minute))),
	)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)

	return nil
}

func buildMetricExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	if endpoint := firstNonEmpty(
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	); endpoint != "" {
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	}
	return stdoutmetric.New(stdoutmetric.WithWriter(Output), stdoutmetric.WithPrettyPrint())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Tracer returns a tracer with the given instrumentation name (or the global scope).
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter with the given instrumentation name (or the global scope).
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes all spans/metrics and shuts down OTel providers.
// A push to an unreachable collector gives up after shutdownTimeout.
func Shutdown(ctx context.Context) {
	if len(shutdownFns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	for _, fn := range shutdownFns {
		_ = fn(ctx)
	}
	shutdownFns = nil
}
