package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"hospital-portal/internal/config"
)

// initTracing exports request spans to Jaeger when JAEGER_ENDPOINT is set.
// Otherwise the global no-op provider stays in place.
func initTracing(cfg *config.Config, log *logrus.Logger) (func(context.Context) error, error) {
	if cfg.JaegerEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("jaeger exporter: %w", err)
	}
	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewSchemaless(semconv.ServiceNameKey.String("hospital-portal")),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	log.WithField("endpoint", cfg.JaegerEndpoint).Info("tracing enabled")
	return tp.Shutdown, nil
}
