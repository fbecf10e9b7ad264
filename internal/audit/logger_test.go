package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/admins"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type loggedLine struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
	Audit   Entry  `json:"audit"`
}

func decodeLine(t *testing.T, buf *bytes.Buffer) loggedLine {
	t.Helper()
	var line loggedLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	return line
}

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	logger.Log(Entry{
		Action:       "event.update",
		AdminID:      "01HX12ABC123",
		ResourceType: "event",
		ResourceID:   "01HX12EVT001",
		Status:       StatusSuccess,
	})

	line := decodeLine(t, &buf)
	require.Equal(t, "audit", line.Channel)
	require.Equal(t, "event.update", line.Message)
	require.Equal(t, "01HX12EVT001", line.Audit.ResourceID)
	require.Equal(t, StatusSuccess, line.Audit.Status)
	require.True(t, fixed.Equal(line.Audit.Timestamp))
}

func TestLogger_LogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	admin := &admins.Admin{ID: "admin-7", Email: "ops@example.com", Role: auth.RoleAdmin, IsActive: true}
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/events/evt-1", nil)
	req.RemoteAddr = "203.0.113.4:4444"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req = req.WithContext(middleware.ContextWithAdmin(req.Context(), admin))

	logger.LogFromRequest(req, "event.delete", "event", "evt-1", StatusSuccess, map[string]string{"slug": "launch"})

	line := decodeLine(t, &buf)
	require.Equal(t, "admin-7", line.Audit.AdminID)
	require.Equal(t, "ops@example.com", line.Audit.AdminEmail)
	require.Equal(t, "203.0.113.4", line.Audit.IPAddress)
	require.Equal(t, "198.51.100.1", line.Audit.ForwardedFor)
	require.Equal(t, "launch", line.Audit.Details["slug"])
}

func TestLogger_Anonymous(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	logger.LogFromRequest(req, "auth.login", "admin", "", StatusFailure, nil)

	line := decodeLine(t, &buf)
	require.Equal(t, "anonymous", line.Audit.AdminID)
	require.Equal(t, StatusFailure, line.Audit.Status)
}

func TestLogger_NilIsSafe(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Log(Entry{Action: "noop"})
		logger.LogFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), "noop", "", "", StatusSuccess, nil)
	})
}
