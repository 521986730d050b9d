package ratelimiter

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, buckets map[string]BucketConfig) (*RedisLuaLimiter, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLuaLimiter(rdb, buckets)
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l.now = clk.now
	return l, mr, clk
}

func TestPerWindow(t *testing.T) {
	cfg := PerWindow(3, 15*time.Minute)
	assert.Equal(t, int64(3), cfg.Capacity)
	assert.InDelta(t, 3.0/900.0, cfg.RefillRate, 1e-12)
	assert.Equal(t, 15*time.Minute, cfg.TTL().Round(time.Second))

	assert.Equal(t, BucketConfig{}, PerWindow(0, time.Minute))
	assert.Equal(t, BucketConfig{}, PerWindow(5, 0))
	assert.Zero(t, BucketConfig{}.TTL())
}

func TestAllow_NilLimiterFailsOpen(t *testing.T) {
	var l *RedisLuaLimiter
	ok, retry, err := l.Allow(context.Background(), "any", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retry)
	assert.Nil(t, NewRedisLuaLimiter(nil, nil))
}

func TestAllow_UnknownBucketFailsOpen(t *testing.T) {
	l, _, _ := newTestLimiter(t, nil)
	ok, _, err := l.Allow(context.Background(), "unknown", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_ExhaustsAndRefills(t *testing.T) {
	ctx := context.Background()
	l, mr, clk := newTestLimiter(t, map[string]BucketConfig{"submit": PerWindow(3, 15*time.Minute)})

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "submit", "10.0.0.1")
		require.NoError(t, err)
		require.True(t, ok, "request %d", i+1)
	}

	ok, retry, err := l.Allow(ctx, "submit", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Minute, retry)

	// other clients have their own bucket
	ok, _, err = l.Allow(ctx, "submit", "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists("rate:submit:10.0.0.1"))
	assert.Positive(t, mr.TTL("rate:submit:10.0.0.1"))

	clk.advance(5 * time.Minute)
	ok, _, err = l.Allow(ctx, "submit", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_RedisDownFailsOpen(t *testing.T) {
	l, mr, _ := newTestLimiter(t, map[string]BucketConfig{"generate": PerWindow(5, time.Minute)})
	mr.Close()

	ok, _, err := l.Allow(context.Background(), "generate", "10.0.0.1")
	require.Error(t, err)
	assert.True(t, ok)
}

func TestSetBucketConfig(t *testing.T) {
	l, _, _ := newTestLimiter(t, nil)
	l.SetBucketConfig("generate", PerWindow(1, time.Hour))
	cfg, ok := l.Bucket("generate")
	require.True(t, ok)
	assert.Equal(t, int64(1), cfg.Capacity)

	ctx := context.Background()
	allowed, _, err := l.Allow(ctx, "generate", "c")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, retry, err := l.Allow(ctx, "generate", "c")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Hour, retry)

	var nilLimiter *RedisLuaLimiter
	nilLimiter.SetBucketConfig("x", BucketConfig{})
}
