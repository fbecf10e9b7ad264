package middleware

import (
	"context"
	"net/http"
)

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// TrackRoute prepares r so that the mux pattern matched further down the
// chain can be read back with RoutePattern after the handler returns, even
// when intermediate middleware replaces the request.
func TrackRoute(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, &routeHolder{}))
}

// RecordRoute must wrap the ServeMux directly.
func RecordRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			holder.pattern = r.Pattern
		}
	})
}

// RoutePattern returns the matched pattern, or "" when nothing matched.
func RoutePattern(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
		return holder.pattern
	}
	return ""
}
