package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-assistant/internal/app"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestBuildReadinessChecks_SkipsUnconfigured(t *testing.T) {
	assert.Empty(t, app.BuildReadinessChecks(app.ReadinessDeps{}))
}

func TestBuildReadinessChecks(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	down := errors.New("connection refused")
	checks := app.BuildReadinessChecks(app.ReadinessDeps{
		DB:     pingerFunc(func(context.Context) error { return nil }),
		Redis:  rdb,
		Tika:   pingerFunc(func(context.Context) error { return down }),
		Events: pingerFunc(func(context.Context) error { return nil }),
	})
	require.Len(t, checks, 4)

	got := map[string]error{}
	for _, c := range checks {
		got[c.Name] = c.Check(context.Background())
	}
	assert.NoError(t, got["db"])
	assert.NoError(t, got["redis"])
	assert.ErrorIs(t, got["tika"], down)
	assert.NoError(t, got["kafka"])

	mr.Close()
	for _, c := range checks {
		if c.Name == "redis" {
			assert.Error(t, c.Check(context.Background()))
		}
	}
}
