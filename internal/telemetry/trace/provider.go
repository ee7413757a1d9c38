// Package trace wires the OpenTelemetry tracer provider used for pipeline
// phase spans.
package trace

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// CloseFunc flushes and shuts a provider down.
type CloseFunc func(ctx context.Context) error

type ProviderBuilder struct {
	serviceName string
	exporter    sdktrace.SpanExporter
}

func NewTraceProviderBuilder(serviceName string) *ProviderBuilder {
	return &ProviderBuilder{serviceName: serviceName}
}

func (b *ProviderBuilder) SetExporter(exp sdktrace.SpanExporter) *ProviderBuilder {
	b.exporter = exp
	return b
}

func (b *ProviderBuilder) Build() (*sdktrace.TracerProvider, CloseFunc, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(b.serviceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if b.exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(b.exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	return tp, tp.Shutdown, nil
}
