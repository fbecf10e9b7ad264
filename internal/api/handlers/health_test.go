package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	version int64
	dirty   bool
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int64) = r.version
	*dest[1].(*bool) = r.dirty
	return nil
}

type fakeProbe struct {
	pingErr error
	row     fakeRow
}

func (p fakeProbe) Ping(context.Context) error { return p.pingErr }

func (p fakeProbe) QueryRow(context.Context, string, ...any) pgx.Row { return p.row }

func readiness(t *testing.T, probe DatabaseProbe) (int, Readiness) {
	t.Helper()
	checker := NewHealthChecker(probe, "1.2.3")
	res := httptest.NewRecorder()
	checker.Ready(res, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body Readiness
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "no-store", res.Header().Get("Cache-Control"))
	return res.Code, body
}

func TestReady(t *testing.T) {
	tests := []struct {
		name        string
		probe       DatabaseProbe
		wantCode    int
		wantStatus  string
		failedCheck string
		wantMessage string
	}{
		{
			name:       "in-memory store",
			probe:      nil,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "database and schema healthy",
			probe:      fakeProbe{row: fakeRow{version: 1}},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:        "connection refused",
			probe:       fakeProbe{pingErr: errors.New("dial tcp: connection refused"), row: fakeRow{version: 1}},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  "unavailable",
			failedCheck: "database",
			wantMessage: "Database connection refused",
		},
		{
			name:        "never migrated",
			probe:       fakeProbe{row: fakeRow{err: errors.New(`relation "schema_migrations" does not exist`)}},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  "unavailable",
			failedCheck: "migrations",
			wantMessage: "Migrations have not been applied",
		},
		{
			name:        "empty migrations table",
			probe:       fakeProbe{row: fakeRow{err: pgx.ErrNoRows}},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  "unavailable",
			failedCheck: "migrations",
			wantMessage: "Migrations have not been applied",
		},
		{
			name:        "dirty migration",
			probe:       fakeProbe{row: fakeRow{version: 1, dirty: true}},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  "unavailable",
			failedCheck: "migrations",
			wantMessage: "Database in dirty migration state - manual intervention required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := readiness(t, tt.probe)
			require.Equal(t, tt.wantCode, code)
			require.Equal(t, tt.wantStatus, body.Status)
			require.Equal(t, "1.2.3", body.Version)
			if tt.failedCheck != "" {
				require.Equal(t, checkFail, body.Checks[tt.failedCheck].Status)
				require.Equal(t, tt.wantMessage, body.Checks[tt.failedCheck].Message)
			}
		})
	}
}

func TestHealthNeverTouchesDatabase(t *testing.T) {
	checker := NewHealthChecker(fakeProbe{pingErr: errors.New("down")}, "dev")
	res := httptest.NewRecorder()
	checker.Health(res, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, res.Code)
	var body Liveness
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
}
