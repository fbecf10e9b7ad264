package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
)

// Recover converts a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			LoggerFromContext(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			envelope.Error(w, r, http.StatusInternalServerError, "", fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}
