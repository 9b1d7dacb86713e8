// Package telemetry — трейсинг OpenTelemetry с экспортом по OTLP/HTTP.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Options — параметры трейсинга.
type Options struct {
	ServiceName string
	Endpoint    string  // host:port коллектора, без схемы
	SampleRatio float64 // доля корневых трейсов [0..1]
}

func (o Options) normalized() Options {
	if o.ServiceName == "" {
		o.ServiceName = "ordersync"
	}
	o.Endpoint = strings.TrimPrefix(strings.TrimPrefix(o.Endpoint, "http://"), "https://")
	if o.Endpoint == "" {
		o.Endpoint = "localhost:4318"
	}
	if o.SampleRatio < 0 {
		o.SampleRatio = 0
	}
	if o.SampleRatio > 1 {
		o.SampleRatio = 1
	}
	return o
}

// NewProvider — провайдер с батч-экспортом в exporter.
// Решение о семплинге наследуется от входящего трейса, корневые трейсы семплируются по SampleRatio.
func NewProvider(exporter sdktrace.SpanExporter, opts Options) *sdktrace.TracerProvider {
	opts = opts.normalized()
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
		)),
	)
}

// SetupTracing — OTLP/HTTP экспорт без TLS, глобальные провайдер и пропагаторы (TraceContext + Baggage).
// Возвращает Shutdown провайдера.
func SetupTracing(ctx context.Context, opts Options) (func(context.Context) error, error) {
	opts = opts.normalized()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := NewProvider(exporter, opts)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		),
	)
	return tp.Shutdown, nil
}
