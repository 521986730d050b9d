package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/httpserver"
)

// Pinger is the minimal interface for a dependency capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// ReadinessDeps lists the configured dependencies. Nil fields are skipped.
type ReadinessDeps struct {
	DB     Pinger
	Redis  RedisPinger
	Tika   Pinger
	Events Pinger
}

// BuildReadinessChecks returns one check per configured dependency.
func BuildReadinessChecks(d ReadinessDeps) []httpserver.ReadinessCheck {
	checks := make([]httpserver.ReadinessCheck, 0, 4)
	if d.DB != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "db", Check: d.DB.Ping})
	}
	if d.Redis != nil {
		rdb := d.Redis
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if d.Tika != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "tika", Check: d.Tika.Ping})
	}
	if d.Events != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "kafka", Check: d.Events.Ping})
	}
	return checks
}
