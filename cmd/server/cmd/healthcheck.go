package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckTimeout int
	healthcheckURL     string
	healthcheckReady   bool
	healthcheckJSON    bool
)

func newHealthcheckCommand() *cobra.Command {
	healthcheck := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint, or /ready with --ready.

This command is used by container health checks. It exits with code 0 if the
server is healthy and non-zero otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := performHealthCheck(healthcheckTarget())
			if healthcheckJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			}
			if !result.IsHealthy {
				if result.Error != "" {
					return errors.New(result.Error)
				}
				return fmt.Errorf("unhealthy: status=%s", result.Status)
			}
			if !healthcheckJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%dms)\n", result.Status, result.LatencyMs)
			}
			return nil
		},
	}

	healthcheck.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	healthcheck.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	healthcheck.Flags().BoolVar(&healthcheckReady, "ready", false, "check /ready instead of /health")
	healthcheck.Flags().BoolVar(&healthcheckJSON, "json", false, "print the result as JSON")
	return healthcheck
}

// HealthResponse is the subset of the /health and /ready bodies the check reads.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheckResult is the outcome of one probe.
type HealthCheckResult struct {
	URL        string                 `json:"url"`
	IsHealthy  bool                   `json:"healthy"`
	HTTPStatus int                    `json:"http_status,omitempty"`
	Status     string                 `json:"status,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	LatencyMs  int64                  `json:"latency_ms"`
	Error      string                 `json:"error,omitempty"`
}

func healthcheckTarget() string {
	if healthcheckURL != "" {
		return healthcheckURL
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "3001"
	}
	path := "/health"
	if healthcheckReady {
		path = "/ready"
	}
	return fmt.Sprintf("http://localhost:%s%s", port, path)
}

// performHealthCheck reports healthy for a 200 response whose status field is
// "ok" (liveness) or "ready" (readiness).
func performHealthCheck(url string) HealthCheckResult {
	result := HealthCheckResult{URL: url}

	timeout := time.Duration(healthcheckTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = fmt.Sprintf("health check failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()
	result.HTTPStatus = resp.StatusCode

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			result.Status = http.StatusText(resp.StatusCode)
			return result
		}
		result.Error = fmt.Sprintf("parse response: %v", err)
		return result
	}
	result.Status = body.Status
	result.Checks = body.Checks

	result.IsHealthy = resp.StatusCode == http.StatusOK && (body.Status == "ok" || body.Status == "ready")
	return result
}
