// Package envelope writes the {success, data | error} JSON body shared by
// every API response.
package envelope

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json; charset=utf-8"

const internalErrorMessage = "Internal server error"

type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type Option func(*Response)

// WithDetails attaches per-field messages to an error response.
func WithDetails(details map[string]string) Option {
	return func(resp *Response) {
		resp.Details = details
	}
}

// Success writes data with the given status.
func Success(w http.ResponseWriter, status int, data any) {
	write(w, status, Response{Success: true, Data: data})
}

// Error writes a failure envelope. err is logged with the request logger and
// never sent to the client; 5xx responses always carry a generic message.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error, opts ...Option) {
	if status >= http.StatusInternalServerError {
		message = internalErrorMessage
	}
	resp := Response{Success: false, Error: message}
	for _, opt := range opts {
		opt(&resp)
	}

	if r != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case err != nil:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}
		event.Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	write(w, status, resp)
}

func write(w http.ResponseWriter, status int, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"` + internalErrorMessage + `"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
