package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	ttrace "audio_extract_bot/internal/telemetry/trace"
	traceExporter "audio_extract_bot/internal/telemetry/trace/exporter"
)

func (b *Bot) InitGlobalProvider(name, endpoint string) {
	if endpoint == "" {
		return
	}

	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)
	// Collector endpoints with a scheme go to Jaeger, bare host:port to OTLP.
	if strings.HasPrefix(endpoint, "http") {
		spanExporter, err = traceExporter.NewJaeger(endpoint)
	} else {
		spanExporter, err = traceExporter.NewOTLP(context.Background(), endpoint)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("failed initializing the tracer exporter")
	}

	tracerProvider, tracerProviderCloseFn, err := ttrace.NewTraceProviderBuilder(name).
		SetExporter(spanExporter).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msgf("failed initializing the tracer provider")
	}
	b.traceProviderCloseFn = append(b.traceProviderCloseFn, tracerProviderCloseFn)

	// set global propagator to tracecontext (the default is no-op).
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tracerProvider)
}
