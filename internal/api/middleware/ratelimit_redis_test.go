package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisAttemptCounter_Allow(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewRedisAttemptCounter(client, 5)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counter.now = func() time.Time { return now }

	keys := []string{"eventdesk:login:203.0.113.7"}
	args := []interface{}{5, int64(180000), now.UnixMilli()}

	mock.ExpectEvalSha(loginBucketScript.Hash(), keys, args...).SetVal(int64(1))
	allowed, err := counter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.True(t, allowed)

	mock.ExpectEvalSha(loginBucketScript.Hash(), keys, args...).SetVal(int64(0))
	allowed, err = counter.Allow(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAttemptCounter_Error(t *testing.T) {
	client, mock := redismock.NewClientMock()
	counter := NewRedisAttemptCounter(client, 5)
	now := time.Unix(1_700_000_000, 0)
	counter.now = func() time.Time { return now }

	mock.ExpectEvalSha(loginBucketScript.Hash(), []string{"eventdesk:login:10.0.0.1"}, 5, int64(180000), now.UnixMilli()).
		SetErr(errors.New("connection reset"))

	_, err := counter.Allow(context.Background(), "10.0.0.1")
	require.ErrorContains(t, err, "redis login bucket")
	require.NoError(t, mock.ExpectationsWereMet())
}

type stubCounter struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubCounter) Allow(context.Context, string) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

func TestLoginRateLimit_SharedCounterDecides(t *testing.T) {
	shared := &stubCounter{allowed: false}
	limiter := NewLoginRateLimiter(config.RateLimitConfig{LoginPer15Minutes: 5}, WithSharedCounter(shared))
	t.Cleanup(limiter.Stop)
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	res := httptest.NewRecorder()
	h.ServeHTTP(res, loginRequest("192.0.2.1:1000"))
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, 1, shared.calls)
}

func TestLoginRateLimit_SharedCounterFailureFallsBack(t *testing.T) {
	shared := &stubCounter{err: errors.New("redis down")}
	limiter := NewLoginRateLimiter(config.RateLimitConfig{LoginPer15Minutes: 2}, WithSharedCounter(shared))
	t.Cleanup(limiter.Stop)
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		h.ServeHTTP(res, loginRequest("192.0.2.2:1000"))
		codes = append(codes, res.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	require.Equal(t, 3, shared.calls)
}
