package httpserver

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fairyhunter13/ai-interview-assistant/internal/service/ratelimiter"
)

// Rate limit buckets and their client-facing messages.
const (
	BucketGenerate = "generate"
	BucketSubmit   = "submit"

	MsgGenerateRateLimited = "Too many resume uploads. Wait 15 minutes or try fewer requests."
	MsgSubmitRateLimited   = "Too many interviews submitted. Wait 15 minutes between full interviews."
)

// RateLimit admits requests per client IP through limiter. Limiter errors
// fail open: the request proceeds and the error is logged.
func RateLimit(limiter ratelimiter.Limiter, bucket, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter, err := limiter.Allow(r.Context(), bucket, ClientIP(r))
			if err != nil {
				LoggerFrom(r).Warn("rate limiter unavailable", slog.String("bucket", bucket), slog.Any("error", err))
			}
			if !allowed {
				RateLimited(w, message, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimited writes a 429 with message and a Retry-After in whole seconds.
func RateLimited(w http.ResponseWriter, message string, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: message, Code: "RATE_LIMITED"})
}

// ClientIP returns the host part of RemoteAddr. Proxy headers are resolved
// earlier by the RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
