// Package telemetry wires OpenTelemetry traces and metrics around channel
// dispatch. Disabled by default; the zero configuration yields no-op
// instruments so callers never nil-check.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "utanotify"

// Config controls the telemetry provider.
type Config struct {
	Enabled        bool    `yaml:"enabled"`
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"service_version"`
	Environment    string  `yaml:"environment"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	SampleRate     float64 `yaml:"sample_rate"`
}

// DefaultConfig returns the disabled default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "utanotify",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "localhost:4318",
		SampleRate:     1.0,
	}
}

// Provider carries the tracer, meter and the delivery instruments.
type Provider struct {
	tracer        trace.Tracer
	traceProvider *sdktrace.TracerProvider

	deliveriesSent    metric.Int64Counter
	deliveriesFailed  metric.Int64Counter
	deliveriesRetried metric.Int64Counter
	sendDuration      metric.Float64Histogram
}

// NewProvider creates a telemetry provider. With Enabled false the provider
// uses the global (by default no-op) tracer and meter and records nothing
// externally.
func NewProvider(cfg Config) (*Provider, error) {
	p := &Provider{}

	if cfg.Enabled {
		if err := p.initTracing(cfg); err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(instrumentationName)
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Provider) initTracing(cfg Config) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	p.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)

	otel.SetTracerProvider(p.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	p.tracer = otel.Tracer(instrumentationName)
	return nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(instrumentationName)

	var err error
	p.deliveriesSent, err = meter.Int64Counter(
		"utanotify_deliveries_sent_total",
		metric.WithDescription("Total deliveries completed successfully"),
	)
	if err != nil {
		return err
	}

	p.deliveriesFailed, err = meter.Int64Counter(
		"utanotify_deliveries_failed_total",
		metric.WithDescription("Total delivery attempts that failed"),
	)
	if err != nil {
		return err
	}

	p.deliveriesRetried, err = meter.Int64Counter(
		"utanotify_deliveries_retried_total",
		metric.WithDescription("Total deliveries re-queued for retry"),
	)
	if err != nil {
		return err
	}

	p.sendDuration, err = meter.Float64Histogram(
		"utanotify_send_duration_seconds",
		metric.WithDescription("Duration of channel send operations"),
		metric.WithUnit("s"),
	)
	return err
}

// TraceSend opens a span around one channel send attempt.
func (p *Provider) TraceSend(ctx context.Context, messageID, channelType string, recipients int) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "utanotify.send",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("utanotify.message.id", messageID),
			attribute.String("utanotify.channel", channelType),
			attribute.Int("utanotify.recipients", recipients),
		),
	)
}

// RecordDelivered records a completed delivery and its attempt duration.
func (p *Provider) RecordDelivered(ctx context.Context, channelType string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("channel", channelType), attribute.String("status", "success"))
	p.deliveriesSent.Add(ctx, 1, attrs)
	p.sendDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordFailed records a failed attempt and its duration.
func (p *Provider) RecordFailed(ctx context.Context, channelType, errorCode string, duration time.Duration) {
	p.deliveriesFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", channelType),
		attribute.String("error_code", errorCode),
	))
	p.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("channel", channelType),
		attribute.String("status", "error"),
	))
}

// RecordRetry records a delivery re-queued for another attempt.
func (p *Provider) RecordRetry(ctx context.Context, channelType string) {
	p.deliveriesRetried.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channelType)))
}

// EndSpan closes a span with an error or ok status.
func (p *Provider) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes and stops the trace provider when one was started.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.traceProvider != nil {
		return p.traceProvider.Shutdown(ctx)
	}
	return nil
}
