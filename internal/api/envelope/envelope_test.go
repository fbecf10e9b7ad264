package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSuccessWritesData(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusCreated, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"success":true,"data":{"id":"abc"}}`, rec.Body.String())
}

func TestSuccessKeepsEmptySlices(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusOK, []string{})

	require.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}

func TestErrorWritesMessageAndDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/events", nil)
	rec := httptest.NewRecorder()

	Error(rec, req, http.StatusBadRequest, "Invalid URL", errors.New("bad"), WithDetails(map[string]string{"coverImage": "Invalid URL"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"Invalid URL","details":{"coverImage":"Invalid URL"}}`, rec.Body.String())
}

func TestErrorHidesServerFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()

	Error(rec, req, http.StatusInternalServerError, "pq: connection refused", errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "Internal server error", body.Error)

	require.Contains(t, logs.String(), `"level":"error"`)
	require.Contains(t, logs.String(), "pq: connection refused")
}
