package middleware

import (
	"net/http"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/rs/zerolog"
)

// CORS answers cross-origin requests from the admin console and other
// browser clients.
//
// With AllowAllOrigins set (development and test) any Origin is echoed back.
// Otherwise the Origin must match an entry of AllowedOrigins
// case-insensitively; rejected origins are logged and receive no CORS
// headers. Credentials are always allowed for accepted origins.
//
// Preflight (OPTIONS) requests are answered with 204 No Content.
func CORS(cfg config.CORSConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := cfg.AllowAllOrigins || isOriginAllowed(origin, cfg.AllowedOrigins)
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
			} else {
				logger.Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("CORS request rejected: origin not in whitelist")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks if the given origin is in the allowed list.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	origin = strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/")
	for _, allowed := range allowedOrigins {
		if strings.TrimRight(strings.ToLower(strings.TrimSpace(allowed)), "/") == origin {
			return true
		}
	}
	return false
}
