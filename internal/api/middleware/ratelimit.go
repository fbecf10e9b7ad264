package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/envelope"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"golang.org/x/time/rate"
)

const (
	// loginRefillInterval spreads the configured attempts over 15 minutes
	// for the default of 5: one token every 3 minutes.
	loginRefillInterval = 3 * time.Minute
	loginRetryAfter     = "180"

	limiterIdleTTL         = 15 * time.Minute
	limiterCleanupInterval = 5 * time.Minute

	msgTooManyLogins = "Too many login attempts, please try again later"
)

// LoginRateLimiter throttles login attempts per client IP with a token
// bucket: a burst of LoginPer15Minutes attempts, refilled one token every
// three minutes.
type LoginRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	burst       int
	trusted     []*net.IPNet
	shared      AttemptCounter
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type LoginLimiterOption func(*LoginRateLimiter)

// WithSharedCounter consults counter before the in-process buckets. The
// in-process buckets still answer while counter returns errors.
func WithSharedCounter(counter AttemptCounter) LoginLimiterOption {
	return func(l *LoginRateLimiter) { l.shared = counter }
}

// NewLoginRateLimiter starts the limiter and its cleanup goroutine. A zero
// or negative LoginPer15Minutes disables limiting. Call Stop on shutdown.
func NewLoginRateLimiter(cfg config.RateLimitConfig, opts ...LoginLimiterOption) *LoginRateLimiter {
	l := &LoginRateLimiter{
		limiters:    make(map[string]*limiterEntry),
		burst:       cfg.LoginPer15Minutes,
		trusted:     parseCIDRs(cfg.TrustedProxyCIDRs),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.cleanupLoop()
	return l
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		key := clientKey(r, l.trusted)
		if !l.allow(r.Context(), key) {
			w.Header().Set("Retry-After", loginRetryAfter)
			envelope.Error(w, r, http.StatusTooManyRequests, msgTooManyLogins, nil)
			LoggerFromContext(r.Context()).Warn().Str("client", key).Msg("login rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *LoginRateLimiter) allow(ctx context.Context, key string) bool {
	if l.shared != nil {
		allowed, err := l.shared.Allow(ctx, key)
		if err == nil {
			return allowed
		}
		LoggerFromContext(ctx).Error().Err(err).Msg("shared login limiter failed; using local limiter")
	}
	return l.limiter(key).AllowN(l.now(), 1)
}

func (l *LoginRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(loginRefillInterval), l.burst)
	l.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (l *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup drops entries idle for longer than limiterIdleTTL. An idle entry
// has fully refilled, so dropping it does not change any client's budget.
func (l *LoginRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *LoginRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// clientKey returns the client IP. X-Forwarded-For and X-Real-IP are honoured
// only when the direct peer is inside a trusted proxy CIDR.
func clientKey(r *http.Request, trusted []*net.IPNet) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trusted) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}

	return remoteIP
}

func isTrustedProxy(ip string, trusted []*net.IPNet) bool {
	if len(trusted) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

// parseCIDRs skips entries that do not parse.
func parseCIDRs(values []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, value := range values {
		_, cidr, err := net.ParseCIDR(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		nets = append(nets, cidr)
	}
	return nets
}
