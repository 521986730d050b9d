// Package ratelimiter implements a Redis-backed token bucket shared by all
// server instances.
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether client may spend one token from bucket.
type Limiter interface {
	Allow(ctx context.Context, bucket, client string) (allowed bool, retryAfter time.Duration, err error)
}

// BucketConfig is a token bucket: Capacity tokens, refilled at RefillRate per second.
type BucketConfig struct {
	Capacity   int64
	RefillRate float64
}

// PerWindow builds a bucket allowing n requests per window.
func PerWindow(n int, window time.Duration) BucketConfig {
	if n <= 0 || window <= 0 {
		return BucketConfig{}
	}
	return BucketConfig{
		Capacity:   int64(n),
		RefillRate: float64(n) / window.Seconds(),
	}
}

// TTL is how long an idle bucket takes to refill completely.
func (c BucketConfig) TTL() time.Duration {
	if c.RefillRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Capacity) / c.RefillRate * float64(time.Second))
}

// RedisLuaLimiter evaluates the bucket atomically in a Lua script.
type RedisLuaLimiter struct {
	redis   redis.Scripter
	buckets map[string]BucketConfig
	script  *redis.Script
	mu      sync.RWMutex
	now     func() time.Time
}

var _ Limiter = (*RedisLuaLimiter)(nil)

func NewRedisLuaLimiter(rdb redis.Scripter, buckets map[string]BucketConfig) *RedisLuaLimiter {
	if rdb == nil {
		return nil
	}
	if buckets == nil {
		buckets = map[string]BucketConfig{}
	}
	return &RedisLuaLimiter{
		redis:   rdb,
		buckets: buckets,
		script:  redis.NewScript(luaTokenBucketScript),
		now:     time.Now,
	}
}

// Redis truncates Lua numbers to integers on return, so the script returns
// retry_after in whole milliseconds (rounded up) and remaining tokens floored.
const luaTokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl_ms = tonumber(ARGV[5])

local tokens = capacity
local last_refill = now

local data = redis.call("HMGET", key, "tokens", "last_refill")
if data[1] then
  tokens = tonumber(data[1])
end
if data[2] then
  last_refill = tonumber(data[2])
end

local delta = now - last_refill
if delta < 0 then
  delta = 0
end

tokens = math.min(capacity, tokens + delta * refill_rate)

local allowed = 0
local retry_after_ms = 0

if tokens >= cost then
  tokens = tokens - cost
  allowed = 1
elseif refill_rate > 0 then
  retry_after_ms = math.ceil((cost - tokens) / refill_rate * 1000)
end

redis.call("HSET", key, "tokens", tostring(tokens), "last_refill", tostring(now))
if ttl_ms > 0 then
  redis.call("PEXPIRE", key, ttl_ms)
end

return { allowed, retry_after_ms, math.floor(tokens) }
`

// Allow spends one token of bucket for client. Unknown buckets and Redis
// failures allow the request; the error is returned for logging.
func (l *RedisLuaLimiter) Allow(ctx context.Context, bucket, client string) (bool, time.Duration, error) {
	if l == nil || l.redis == nil {
		return true, 0, nil
	}
	cfg, ok := l.Bucket(bucket)
	if !ok || cfg.Capacity <= 0 || cfg.RefillRate <= 0 {
		return true, 0, nil
	}

	nowSec := float64(l.now().UnixNano()) / 1e9
	key := "rate:" + bucket + ":" + client
	res, err := l.script.Run(ctx, l.redis, []string{key},
		cfg.Capacity, cfg.RefillRate, nowSec, 1, cfg.TTL().Milliseconds()).Int64Slice()
	if err != nil {
		slog.Error("redis rate limiter script error", slog.String("bucket", bucket), slog.Any("error", err))
		return true, 0, err
	}
	if len(res) < 2 {
		slog.Error("redis rate limiter unexpected script result", slog.String("bucket", bucket), slog.Any("result", res))
		return true, 0, nil
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

// Bucket returns the configuration registered under name.
func (l *RedisLuaLimiter) Bucket(name string) (BucketConfig, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg, ok := l.buckets[name]
	return cfg, ok
}

// SetBucketConfig updates or creates the bucket configuration for name.
// It is safe for concurrent use.
func (l *RedisLuaLimiter) SetBucketConfig(name string, cfg BucketConfig) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[name] = cfg
}
