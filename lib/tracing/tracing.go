// Copyright 2026 The Module-CodingCrew Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracing installs the process-wide OpenTelemetry tracer
// provider. With an OTLP endpoint configured, spans from the RPC
// bridge and the crew are batched and exported over OTLP/HTTP.
// Without one, the global no-op provider stays in place and tracing
// costs nothing.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Config holds the parameters for Setup.
type Config struct {
	// Endpoint is host:port or a full http(s) URL of the OTLP/HTTP
	// receiver. Empty disables export.
	Endpoint string

	// ServiceName is recorded on every span. Default: "codingcrew".
	ServiceName string

	// ServiceVersion is recorded when non-empty.
	ServiceVersion string

	// Insecure sends to a host:port endpoint over plain HTTP.
	Insecure bool

	Logger *slog.Logger
}

// Shutdown flushes buffered spans and stops the exporter.
type Shutdown func(ctx context.Context) error

// Setup installs a global tracer provider according to config and
// returns its shutdown function. The returned function is never nil.
func Setup(ctx context.Context, config Config) (Shutdown, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Endpoint == "" {
		logger.Debug("trace export disabled")
		return func(context.Context) error { return nil }, nil
	}
	if config.ServiceName == "" {
		config.ServiceName = "codingcrew"
	}

	var options []otlptracehttp.Option
	if strings.Contains(config.Endpoint, "://") {
		options = append(options, otlptracehttp.WithEndpointURL(config.Endpoint))
	} else {
		options = append(options, otlptracehttp.WithEndpoint(config.Endpoint))
		if config.Insecure {
			options = append(options, otlptracehttp.WithInsecure())
		}
	}
	exporter, err := otlptracehttp.New(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("tracing: creating OTLP exporter: %w", err)
	}

	attributes := []attribute.KeyValue{semconv.ServiceNameKey.String(config.ServiceName)}
	if config.ServiceVersion != "" {
		attributes = append(attributes, semconv.ServiceVersionKey.String(config.ServiceVersion))
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attributes...)),
	)
	otel.SetTracerProvider(provider)
	logger.Info("exporting traces", "endpoint", config.Endpoint, "service", config.ServiceName)

	return provider.Shutdown, nil
}
