// Package observability wires tracing and domain metrics for the donation
// pipeline. SetupOTel installs the global tracer provider; StartStep opens a
// span per orchestration step and records its duration.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-donation-backend/internal/config"
)

// TracerName is the instrumentation scope for spans created by this service.
const TracerName = "github.com/tbourn/go-donation-backend"

// Constructors replaced in tests to avoid dialing a collector.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// When tracing is disabled the global no-op provider stays in place and the
// returned shutdown does nothing.
//
// Behavior when enabled:
//   - OTLP/gRPC exporter to cfg.Endpoint, TLS unless cfg.Insecure
//   - Batching span processor
//   - Parent-based sampling with cfg.SampleRatio for root spans
//   - W3C trace context and baggage propagation
//
// Callers must invoke the shutdown function on exit to flush pending spans.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// Tracer returns the service tracer from the current global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Step is an open pipeline step: a child span plus a start time for the
// donation_step_duration_seconds histogram.
type Step struct {
	name  string
	span  trace.Span
	start time.Time
}

// StartStep opens a span named "donation.<name>" under ctx.
func StartStep(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Step) {
	ctx, span := Tracer().Start(ctx, "donation."+name, trace.WithAttributes(attrs...))
	return ctx, &Step{name: name, span: span, start: time.Now()}
}

// End closes the step. A non-nil err marks the span as failed.
func (s *Step) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	StepDuration.WithLabelValues(s.name).Observe(time.Since(s.start).Seconds())
	s.span.End()
}

// Span exposes the underlying span for extra attributes.
func (s *Step) Span() trace.Span { return s.span }
