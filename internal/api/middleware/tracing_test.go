package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})
	return exporter
}

func TestTracingUsesRoutePattern(t *testing.T) {
	exporter := installRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res := httptest.NewRecorder()
	Tracing(mux).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/events/launch-party", nil))
	require.Equal(t, http.StatusOK, res.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "GET /api/events/{slug}", span.Name)
	require.Equal(t, codes.Ok, span.Status.Code)

	attrs := map[string]any{}
	for _, attr := range span.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	require.Equal(t, "GET", attrs["http.method"])
	require.Equal(t, int64(200), attrs["http.status_code"])
	require.Equal(t, "GET /api/events/{slug}", attrs["http.route"])
}

func TestTracingMarksServerErrors(t *testing.T) {
	exporter := installRecorder(t)

	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "GET /api/events", spans[0].Name)
}

func TestTracingClientErrorIsNotSpanError(t *testing.T) {
	exporter := installRecorder(t)

	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Ok, spans[0].Status.Code)
	for _, attr := range spans[0].Attributes {
		if attr.Key == "http.status_code" {
			require.Equal(t, int64(404), attr.Value.AsInt64())
		}
	}
}

func TestTracingSeesPatternThroughMiddleware(t *testing.T) {
	exporter := installRecorder(t)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/events/{id}", okHandler)

	h := Tracing(CorrelationID(zerolog.Nop())(RecordRoute(mux)))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/admin/events/01ABC", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "PUT /api/admin/events/{id}", spans[0].Name)
}
