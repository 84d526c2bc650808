package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// PipelineTracer provides spans for capture pipeline invocations and steps
type PipelineTracer struct {
	tracer trace.Tracer
}

// NewTracerProvider creates a new OpenTelemetry tracer provider and installs it globally
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("mirador"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown flushes pending spans and shuts the provider down
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// NewPipelineTracer uses the global provider, which is a no-op until
// NewTracerProvider is called.
func NewPipelineTracer(serviceName string) *PipelineTracer {
	return &PipelineTracer{tracer: otel.Tracer(serviceName)}
}

// NewPipelineTracerFrom binds to an explicit provider (tests).
func NewPipelineTracerFrom(tp trace.TracerProvider, serviceName string) *PipelineTracer {
	return &PipelineTracer{tracer: tp.Tracer(serviceName)}
}

// StartInvocationSpan starts the root span of one alert invocation
func (pt *PipelineTracer) StartInvocationSpan(ctx context.Context, invocationID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "packet_capture",
		trace.WithAttributes(
			attribute.String("invocation.id", invocationID),
			attribute.String("component", "capture-pipeline"),
		),
	)
}

// StartStepSpan starts a child span for a single pipeline step
func (pt *PipelineTracer) StartStepSpan(ctx context.Context, step string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("pipeline.step", step))
	return pt.tracer.Start(ctx, "pipeline."+step, trace.WithAttributes(attrs...))
}

// RecordError records an error on a span
func (pt *PipelineTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}
