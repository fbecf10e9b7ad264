package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	res := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	})
	require.Equal(t, http.StatusInternalServerError, res.Code)
	require.Equal(t, "Internal server error", decodeError(t, res))
}

func TestRecover_AbortHandler(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
