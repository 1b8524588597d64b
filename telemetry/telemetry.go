// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package telemetry sets up OpenTelemetry tracing for traceroute runs.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/DataDog/datadog-geotrace/log"
)

// Exporter selects where spans go.
type Exporter string

const (
	NOOP   Exporter = ""
	STDOUT Exporter = "stdout"
)

func (e Exporter) Validate() error {
	switch e {
	case NOOP, STDOUT:
		return nil
	}
	return fmt.Errorf("unsupported tracing exporter %q", string(e))
}

// Config holds the tracing configuration.
type Config struct {
	Exporter Exporter `yaml:"exporter" mapstructure:"exporter"`
	// Output receives the stdout exporter spans. Defaults to os.Stderr.
	Output io.Writer `yaml:"-" mapstructure:"-"`
}

// Provider owns the installed tracer provider.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Init installs a global tracer provider. With the NOOP exporter, spans are
// created but never exported.
func Init(ctx context.Context, cfg Config, serviceName, version string) (*Provider, error) {
	if err := cfg.Exporter.Validate(); err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	}
	if cfg.Exporter == STDOUT {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		const batchTimeout = 5 * time.Second
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	log.Debugf("tracing initialized with exporter %q", string(cfg.Exporter))
	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
