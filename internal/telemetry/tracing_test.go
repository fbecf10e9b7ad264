package telemetry

import (
	"context"
	"testing"

	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{name: "sample rate above one", cfg: config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}},
		{name: "negative sample rate", cfg: config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: -0.1}},
		{name: "unknown exporter", cfg: config.TracingConfig{Enabled: true, Exporter: "zipkin", SampleRate: 1}},
		{name: "otlp without endpoint", cfg: config.TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitTracing(context.Background(), tt.cfg, "test")
			require.Error(t, err)
		})
	}
}

func TestInitTracing_NoneExporter(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled:     true,
		Exporter:    "none",
		ServiceName: "eventdesk-test",
		SampleRate:  0.5,
	}, "test")
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "probe")
	span.End()

	require.NoError(t, shutdown(context.Background()))
}
