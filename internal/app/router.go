// Package app assembles the HTTP surface from the adapters built in main.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	httpserver "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/config"
	"github.com/fairyhunter13/ai-interview-assistant/internal/service/ratelimiter"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// RouterDeps are the optional collaborators of the router.
type RouterDeps struct {
	// Limiter nil selects the in-process sliding window limiter.
	Limiter ratelimiter.Limiter
	Checks  []httpserver.ReadinessCheck
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server, deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	handlerTimeout := cfg.HTTPWriteTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 6 * time.Minute
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpserver.TimeoutMiddleware(handlerTimeout))
		api.With(limitFor(cfg, deps.Limiter, httpserver.BucketGenerate, cfg.RateLimitGeneratePerWindow, httpserver.MsgGenerateRateLimited)).
			Post("/generate-questions", srv.GenerateQuestionsHandler())
		api.With(limitFor(cfg, deps.Limiter, httpserver.BucketSubmit, cfg.RateLimitSubmitPerWindow, httpserver.MsgSubmitRateLimited)).
			Post("/submit-answer", srv.SubmitAnswerHandler())
	})

	r.Route("/candidates", func(cr chi.Router) {
		cr.Post("/", srv.CreateCandidateHandler())
		cr.Get("/{id}", srv.GetCandidateHandler())
		cr.Group(func(ir chi.Router) {
			if cfg.InterviewerAuthEnabled() {
				ir.Use(httpserver.InterviewerAuth(cfg.InterviewerUsername, cfg.InterviewerPasswordHash))
			}
			ir.Get("/", srv.ListCandidatesHandler())
			ir.Put("/{id}", srv.UpdateCandidateHandler())
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", httpserver.ReadyzHandler(deps.Checks))
	r.Handle("/metrics", promhttp.Handler())

	return httpserver.SecurityHeaders(r)
}

// limitFor picks the Redis token bucket when available, else httprate.
func limitFor(cfg config.Config, limiter ratelimiter.Limiter, bucket string, perWindow int, msg string) func(http.Handler) http.Handler {
	if limiter != nil {
		return httpserver.RateLimit(limiter, bucket, msg)
	}
	window := cfg.RateLimitWindow
	return httprate.Limit(perWindow, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			retry := window
			if w.Header().Get("Retry-After") != "" {
				retry = 0
			}
			httpserver.RateLimited(w, msg, retry)
		}),
	)
}

// NewLimiter returns the Redis-backed limiter for both interview buckets, or
// nil when rdb is nil.
func NewLimiter(cfg config.Config, rdb redis.Scripter) ratelimiter.Limiter {
	if rdb == nil {
		return nil
	}
	return ratelimiter.NewRedisLuaLimiter(rdb, map[string]ratelimiter.BucketConfig{
		httpserver.BucketGenerate: ratelimiter.PerWindow(cfg.RateLimitGeneratePerWindow, cfg.RateLimitWindow),
		httpserver.BucketSubmit:   ratelimiter.PerWindow(cfg.RateLimitSubmitPerWindow, cfg.RateLimitWindow),
	})
}
