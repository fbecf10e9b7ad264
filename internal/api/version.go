package api

import (
	"net/http"
	"runtime"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
)

// BuildInfo is set from ldflags by cmd/server.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// withDefaults fills unset fields with "dev" or "unknown".
func (b BuildInfo) withDefaults() BuildInfo {
	if b.Version == "" {
		b.Version = "dev"
	}
	if b.GitCommit == "" {
		b.GitCommit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	b.GoVersion = runtime.Version()
	return b
}

// VersionHandler serves GET /version with build metadata and the public API
// base URL clients should call.
func VersionHandler(info BuildInfo, publicAPIURL string) http.Handler {
	payload := struct {
		BuildInfo
		PublicAPIURL string `json:"publicApiUrl"`
	}{BuildInfo: info.withDefaults(), PublicAPIURL: publicAPIURL}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope.Success(w, http.StatusOK, payload)
	})
}
