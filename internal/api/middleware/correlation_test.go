package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_GeneratesID(t *testing.T) {
	var seen string
	h := CorrelationID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/health", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	require.Equal(t, seen, res.Header().Get(RequestIDHeader))
}

func TestCorrelationID_KeepsInboundID(t *testing.T) {
	h := CorrelationID(zerolog.Nop())(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, "req-123", res.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.NotEqual(t, strings.Repeat("x", 500), res.Header().Get(RequestIDHeader))
}

func TestRequestLogging_UsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := CorrelationID(logger)(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/events", nil)
	req.Header.Set(RequestIDHeader, "req-log")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	require.Contains(t, out, `"request_id":"req-log"`)
	require.Contains(t, out, `"status":201`)
	require.Contains(t, out, `"bytes":7`)
	require.Contains(t, out, `"path":"/api/admin/events"`)
}

func TestLoggerFromContext_NoLogger(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NotNil(t, LoggerFromContext(req.Context()))
}
