package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60, 180},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of LLM requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "LLM request duration in seconds, stream open through drain",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
		},
		[]string{"provider", "operation"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Estimated LLM tokens by kind (prompt, completion)",
		},
		[]string{"kind"},
	)

	AnswerScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_answer_scores",
			Help:    "Distribution of per-answer scores ([0,5])",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
	FinalScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interview_final_scores",
			Help:    "Distribution of interview final scores ([0,50])",
			Buckets: []float64{0, 10, 20, 25, 30, 35, 40, 45, 50},
		},
	)
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_stage_failures_total",
			Help: "Absorbed failures in the assessment pipeline by stage",
		},
		[]string{"stage"},
	)
)

// Pipeline stages reported by StageFailuresTotal.
const (
	StageScoring     = "scoring"
	StageScoreFormat = "score_format"
	StageAggregate   = "aggregate"
	StagePersistence = "persistence"
	StagePublish     = "publish"
)

// Collectors lists every metric owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AIRequestsTotal,
		AIRequestDuration,
		AITokensTotal,
		AnswerScoreHistogram,
		FinalScoreHistogram,
		StageFailuresTotal,
	}
}

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	prometheus.MustRegister(Collectors()...)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveAIRequest records one LLM call.
func ObserveAIRequest(provider, operation, outcome string, d time.Duration) {
	AIRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

// AddTokens records estimated token usage.
func AddTokens(prompt, completion int) {
	if prompt > 0 {
		AITokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		AITokensTotal.WithLabelValues("completion").Add(float64(completion))
	}
}

// ObserveAnswerScore records a per-answer score.
func ObserveAnswerScore(score float64) {
	if score >= 0 && score <= 5 {
		AnswerScoreHistogram.Observe(score)
	}
}

// ObserveFinalScore records an interview final score.
func ObserveFinalScore(score float64) {
	if score >= 0 && score <= 50 {
		FinalScoreHistogram.Observe(score)
	}
}

// StageFailed counts an absorbed pipeline failure.
func StageFailed(stage string) {
	StageFailuresTotal.WithLabelValues(stage).Inc()
}
