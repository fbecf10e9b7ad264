package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLoginKeyPrefix = "eventdesk:login:"

// loginBucketScript is a token bucket kept in a Redis hash. ARGV holds the
// burst, the refill interval in milliseconds and the caller's clock in
// milliseconds. It returns 1 when the attempt is allowed.
var loginBucketScript = redis.NewScript(`
local key = KEYS[1]
local burst = tonumber(ARGV[1])
local refill_ms = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1]) or burst
local ts = tonumber(data[2]) or now

if now > ts then
  tokens = math.min(burst, tokens + (now - ts) / refill_ms)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", ts)
redis.call("PEXPIRE", key, burst * refill_ms)
return allowed
`)

// AttemptCounter decides whether one more login attempt from key fits the
// budget. Implementations shared between instances let a fleet enforce one
// limit per client.
type AttemptCounter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisAttemptCounter runs the login token bucket in Redis.
type RedisAttemptCounter struct {
	client redis.Scripter
	burst  int
	refill time.Duration
	now    func() time.Time
}

func NewRedisAttemptCounter(client redis.Scripter, burst int) *RedisAttemptCounter {
	return &RedisAttemptCounter{
		client: client,
		burst:  burst,
		refill: loginRefillInterval,
		now:    time.Now,
	}
}

func (c *RedisAttemptCounter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, err := loginBucketScript.Run(ctx, c.client,
		[]string{redisLoginKeyPrefix + key},
		c.burst, c.refill.Milliseconds(), c.now().UnixMilli(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis login bucket: %w", err)
	}
	return allowed == 1, nil
}
