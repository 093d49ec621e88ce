// Package telemetry exports the spans of service calls over OTLP/HTTP.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/colorfulnotion/pvmhost/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const DefaultServiceName = "pvmhost"

// TelemetryClient manages the tracer provider feeding the collector.
type TelemetryClient struct {
	endpoint    string
	serviceName string
	exporter    sdktrace.SpanExporter

	mu       sync.Mutex
	provider *sdktrace.TracerProvider
	disabled bool // if true, telemetry is disabled (no-op)
}

// NewNoOpTelemetryClient creates a disabled telemetry client that does nothing
func NewNoOpTelemetryClient() *TelemetryClient {
	return &TelemetryClient{disabled: true}
}

// NewTelemetryClient targets an OTLP/HTTP collector at host:port. An empty
// endpoint yields a disabled client.
func NewTelemetryClient(endpoint, serviceName string) *TelemetryClient {
	if endpoint == "" {
		return NewNoOpTelemetryClient()
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	return &TelemetryClient{endpoint: endpoint, serviceName: serviceName}
}

// NewExporterClient sends spans to exp instead of a collector.
func NewExporterClient(exp sdktrace.SpanExporter, serviceName string) *TelemetryClient {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	return &TelemetryClient{serviceName: serviceName, exporter: exp}
}

func (c *TelemetryClient) Enabled() bool {
	return !c.disabled
}

// Connect builds the exporter and the tracer provider. The HTTP exporter
// only dials the collector when spans are flushed.
func (c *TelemetryClient) Connect(ctx context.Context) error {
	if c.disabled {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		return fmt.Errorf("telemetry client already connected to %s", c.endpoint)
	}

	exp := c.exporter
	if exp == nil {
		var err error
		exp, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(c.endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create exporter for %s: %w", c.endpoint, err)
		}
	}
	res := resource.NewSchemaless(attribute.String("service.name", c.serviceName))
	c.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	log.Info(log.NodeMonitoring, "telemetry connected", "endpoint", c.endpoint, "service", c.serviceName)
	return nil
}

// TracerProvider returns the connected provider, or a no-op provider.
func (c *TelemetryClient) TracerProvider() trace.TracerProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disabled || c.provider == nil {
		return noop.NewTracerProvider()
	}
	return c.provider
}

// Flush exports the spans recorded so far.
func (c *TelemetryClient) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider == nil {
		return nil
	}
	return c.provider.ForceFlush(ctx)
}

// Close flushes and shuts the provider down.
func (c *TelemetryClient) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider == nil {
		return nil
	}
	err := c.provider.Shutdown(ctx)
	c.provider = nil
	return err
}
