package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoOpClient(t *testing.T) {
	c := NewTelemetryClient("", "")
	require.False(t, c.Enabled())
	require.NoError(t, c.Connect(context.Background()))

	_, span := c.TracerProvider().Tracer("test").Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, c.Close(context.Background()))
}

func TestExporterClient(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	c := NewExporterClient(exp, "")
	require.True(t, c.Enabled())
	require.NoError(t, c.Connect(context.Background()))
	require.Error(t, c.Connect(context.Background()))

	_, span := c.TracerProvider().Tracer("test").Start(context.Background(), "riscv.exec")
	span.End()
	require.NoError(t, c.Flush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "riscv.exec", spans[0].Name)
	require.NoError(t, c.Close(context.Background()))
}

func TestCollectorClientConnects(t *testing.T) {
	c := NewTelemetryClient("localhost:4318", "node-test")
	require.True(t, c.Enabled())
	require.NoError(t, c.Connect(context.Background()))
	require.NotNil(t, c.TracerProvider())
}
