// Package telemetry wires OpenTelemetry tracing, metrics, logs and Pyroscope
// profiling for the finance service.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const (
	// DefaultServiceVersion is reported when no build version is configured.
	DefaultServiceVersion = "1.0.0"

	flushTimeout = 10 * time.Second
)

// Collector is the OTLP/gRPC destination shared by every signal.
type Collector struct {
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

func (c Collector) resource() (*resource.Resource, error) {
	version := c.ServiceVersion
	if version == "" {
		version = DefaultServiceVersion
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(c.ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// flush drains one provider, bounded by flushTimeout.
func flush(ctx context.Context, signal string, logger *zap.Logger, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Telemetry flush failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("flush %s: %w", signal, err)
	}
	logger.Debug("Telemetry flushed", zap.String("signal", signal))
	return nil
}
