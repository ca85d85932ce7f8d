package observability

import (
	"context"
	"log"
	"time"

	"matchpet-workers/internal/common/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	spanExporter   sdktrace.SpanExporter
	meter          otelmetric.Meter
	tracer         trace.Tracer
	recoCounter    otelmetric.Int64Counter
	recoDuration   otelmetric.Float64Histogram
}

func New(ctx context.Context, serviceName string, tc config.TracingConfig) *Observability {
	spanExporter := newSpanExporter(ctx, tc)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	if spanExporter != nil {
		opts = append(opts, sdktrace.WithBatcher(spanExporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{tracerProvider: tp, spanExporter: spanExporter, tracer: tp.Tracer(serviceName)}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	recoCounter, _ := meter.Int64Counter(
		"recommendations.processed",
		otelmetric.WithDescription("Number of recommendation requests processed"),
	)

	recoDuration, _ := meter.Float64Histogram(
		"recommendations.duration",
		otelmetric.WithDescription("Recommendation request duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tp,
		spanExporter:   spanExporter,
		meter:          meter,
		tracer:         tp.Tracer(serviceName),
		recoCounter:    recoCounter,
		recoDuration:   recoDuration,
	}
}

// newSpanExporter returns nil when no OTLP endpoint is configured; spans are
// then sampled but dropped.
func newSpanExporter(ctx context.Context, tc config.TracingConfig) sdktrace.SpanExporter {
	if tc.Endpoint == "" {
		return nil
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tc.Endpoint)}
	if tc.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Printf("Failed to create OTLP trace exporter: %v", err)
		return nil
	}
	return exp
}

// Exporting reports whether finished spans leave the process.
func (o *Observability) Exporting() bool {
	return o.spanExporter != nil
}

func (o *Observability) Tracer() trace.Tracer {
	if o.tracer == nil {
		return otel.Tracer("matchpet")
	}
	return o.tracer
}

func (o *Observability) RecordRecommendation(ctx context.Context, operation, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	if o.recoCounter != nil {
		o.recoCounter.Add(ctx, 1, attrs)
	}
	if o.recoDuration != nil {
		o.recoDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
