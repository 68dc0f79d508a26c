package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/oteladapters"
)

const instrumentationName = "github.com/AntonStoeckl/library-lending-go/cmd/lendingctl"

// observability holds the adapters handed to the repository, the engine and the catalog.
type observability struct {
	logger   *oteladapters.SlogBridgeLogger
	metrics  lending.MetricsCollector
	tracing  lending.TracingCollector
	shutdown func()
}

func newObservability(ctx context.Context, cfg Config, stderr io.Writer) (*observability, error) {
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	obs := &observability{
		logger:   oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		shutdown: func() {},
	}

	if !cfg.OTel {
		return obs, nil
	}

	providers, err := config.NewObservabilityProviders(ctx, "lendingctl", version, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	obs.metrics = oteladapters.NewMetricsCollector(providers.MeterProvider.Meter(instrumentationName))
	obs.tracing = oteladapters.NewTracingCollector(providers.TracerProvider.Tracer(instrumentationName))
	obs.shutdown = func() {
		if err := providers.Shutdown(); err != nil {
			obs.logger.WarnContext(context.Background(), "failed to flush telemetry", "error", err.Error())
		}
	}

	return obs, nil
}
