package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(true)(http.HandlerFunc(okHandler))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "strict-origin-when-cross-origin", res.Header().Get("Referrer-Policy"))
	require.Contains(t, res.Header().Get("Content-Security-Policy"), "default-src 'none'")
	require.Empty(t, res.Header().Get("Strict-Transport-Security"), "HSTS only over TLS")

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.TLS = &tls.ConnectionState{}
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Contains(t, res.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestSecurityHeaders_NoHSTSWhenDisabled(t *testing.T) {
	h := SecurityHeaders(false)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.TLS = &tls.ConnectionState{}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)

	require.Empty(t, res.Header().Get("Strict-Transport-Security"))
}
