// Package audit records administrator mutations as structured log entries.
package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry represents a single audit log entry with structured fields
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	AdminID      string            `json:"admin_id"`
	AdminEmail   string            `json:"admin_email,omitempty"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
	ForwardedFor string            `json:"forwarded_for,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Status       string            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes entries under the "audit" key of a zerolog event.
type Logger struct {
	output zerolog.Logger
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		output: logger.With().Str("channel", "audit").Logger(),
		now:    time.Now,
	}
}

// Log writes entry, stamping Timestamp when unset.
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	l.output.Log().Interface("audit", entry).Msg(entry.Action)
}

// LogFromRequest fills the actor, client address and request ID from r. The
// actor comes from the admin attached by middleware.AdminAuth; unauthenticated
// requests are attributed to "anonymous".
func (l *Logger) LogFromRequest(r *http.Request, action, resourceType, resourceID, status string, details map[string]string) {
	if l == nil {
		return
	}
	entry := Entry{
		Action:       action,
		AdminID:      "anonymous",
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    remoteIP(r),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RequestID:    middleware.GetRequestID(r.Context()),
		Status:       status,
		Details:      details,
	}
	if admin := middleware.AdminFromContext(r.Context()); admin != nil {
		entry.AdminID = admin.ID
		entry.AdminEmail = admin.Email
	}
	l.Log(entry)
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
