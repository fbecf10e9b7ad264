package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	checkPass = "pass"
	checkFail = "fail"
)

// Liveness is the /health body.
type Liveness struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Readiness is the /ready body.
type Readiness struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single readiness check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// DatabaseProbe is satisfied by *pgxpool.Pool.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HealthChecker serves liveness and readiness. A nil DatabaseProbe means the
// server runs on the in-memory store.
type HealthChecker struct {
	db      DatabaseProbe
	version string
	now     func() time.Time
}

func NewHealthChecker(db DatabaseProbe, version string) *HealthChecker {
	return &HealthChecker{db: db, version: version, now: time.Now}
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	writeRaw(w, http.StatusOK, Liveness{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready handles GET /ready, returning 503 when any check fails.
func (h *HealthChecker) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckResult{}
	if h.db == nil {
		checks["storage"] = CheckResult{Status: checkPass, Message: "in-memory store"}
	} else {
		checks["database"] = h.checkDatabase(ctx)
		checks["migrations"] = h.checkMigrations(ctx)
	}

	status, code := "ready", http.StatusOK
	for _, check := range checks {
		if check.Status == checkFail {
			status, code = "unavailable", http.StatusServiceUnavailable
			break
		}
	}

	writeRaw(w, code, Readiness{
		Status:    status,
		Version:   h.version,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.db.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Database ping failed"
		switch {
		case dbCtx.Err() == context.DeadlineExceeded:
			message = "Database ping timed out after 2 seconds"
		case strings.Contains(err.Error(), "connection refused"):
			message = "Database connection refused"
		case strings.Contains(err.Error(), "authentication failed"):
			message = "Database authentication failed"
		}
		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency}
	}

	return CheckResult{Status: checkPass, Message: "PostgreSQL connection successful", LatencyMs: latency}
}

// checkMigrations fails when the schema has never been migrated or a
// migration was left dirty.
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.db.QueryRow(migCtx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		message := "Failed to query migration version"
		if strings.Contains(err.Error(), "does not exist") || errors.Is(err, pgx.ErrNoRows) {
			message = "Migrations have not been applied"
		}
		return CheckResult{Status: checkFail, Message: message}
	}
	if dirty {
		return CheckResult{
			Status:  checkFail,
			Message: "Database in dirty migration state - manual intervention required",
			Details: map[string]any{"version": version},
		}
	}
	return CheckResult{Status: checkPass, Details: map[string]any{"version": version}}
}

func writeRaw(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
