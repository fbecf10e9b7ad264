package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.CORSConfig
		origin      string
		wantAllowed bool
	}{
		{
			name:        "development allows any origin",
			cfg:         config.CORSConfig{AllowAllOrigins: true},
			origin:      "http://localhost:3000",
			wantAllowed: true,
		},
		{
			name:        "whitelisted origin",
			cfg:         config.CORSConfig{AllowedOrigins: []string{"https://admin.example.com"}},
			origin:      "https://Admin.Example.com",
			wantAllowed: true,
		},
		{
			name:        "trailing slash in configuration",
			cfg:         config.CORSConfig{AllowedOrigins: []string{"https://admin.example.com/"}},
			origin:      "https://admin.example.com",
			wantAllowed: true,
		},
		{
			name:   "unknown origin",
			cfg:    config.CORSConfig{AllowedOrigins: []string{"https://admin.example.com"}},
			origin: "https://evil.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.cfg, zerolog.Nop())(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			req.Header.Set("Origin", tt.origin)
			res := httptest.NewRecorder()

			h.ServeHTTP(res, req)

			require.Equal(t, http.StatusOK, res.Code)
			if tt.wantAllowed {
				require.Equal(t, tt.origin, res.Header().Get("Access-Control-Allow-Origin"))
				require.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				require.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(config.CORSConfig{AllowAllOrigins: true}, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	res := httptest.NewRecorder()

	h.ServeHTTP(res, req)

	require.Equal(t, http.StatusNoContent, res.Code)
	require.False(t, called)
	require.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	require.Contains(t, res.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORS_NoOriginPassesThrough(t *testing.T) {
	h := CORS(config.CORSConfig{}, zerolog.Nop())(http.HandlerFunc(okHandler))
	res := httptest.NewRecorder()

	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, res.Code)
	require.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}
