package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name        string
		info        BuildInfo
		wantVersion string
		wantCommit  string
		wantDate    string
	}{
		{
			name:        "with all values",
			info:        BuildInfo{Version: "0.1.0", GitCommit: "abc123def456", BuildDate: "2026-01-28T12:00:00Z"},
			wantVersion: "0.1.0",
			wantCommit:  "abc123def456",
			wantDate:    "2026-01-28T12:00:00Z",
		},
		{
			name:        "with defaults",
			wantVersion: "dev",
			wantCommit:  "unknown",
			wantDate:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			VersionHandler(tt.info, "http://localhost:3001/api").ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/version", nil))
			require.Equal(t, http.StatusOK, res.Code)

			var body struct {
				Success bool `json:"success"`
				Data    struct {
					Version      string `json:"version"`
					GitCommit    string `json:"gitCommit"`
					BuildDate    string `json:"buildDate"`
					GoVersion    string `json:"goVersion"`
					PublicAPIURL string `json:"publicApiUrl"`
				} `json:"data"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
			require.True(t, body.Success)
			require.Equal(t, tt.wantVersion, body.Data.Version)
			require.Equal(t, tt.wantCommit, body.Data.GitCommit)
			require.Equal(t, tt.wantDate, body.Data.BuildDate)
			require.Equal(t, runtime.Version(), body.Data.GoVersion)
			require.Equal(t, "http://localhost:3001/api", body.Data.PublicAPIURL)
		})
	}
}
