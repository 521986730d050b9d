package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fairyhunter13/ai-interview-assistant/internal/config"
)

func TestSetupLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	lg := newLogger(&buf, config.Config{AppEnv: "dev", OTELServiceName: "svc"})
	lg.Debug("dbg")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "svc", line["service"])
	assert.Equal(t, "dev", line["env"])
	assert.Equal(t, "dbg", line["msg"])

	buf.Reset()
	prod := newLogger(&buf, config.Config{AppEnv: "prod", OTELServiceName: "svc"})
	prod.Debug("hidden")
	assert.Zero(t, buf.Len())

	assert.NotNil(t, SetupLogger(config.Config{AppEnv: "prod"}))
}

func TestSetupLogger_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	lg := newLogger(&buf, config.Config{AppEnv: "dev", LogLevel: "warn"})
	lg.Info("quiet")
	assert.Zero(t, buf.Len())
	lg.Warn("loud")
	assert.NotZero(t, buf.Len())

	buf.Reset()
	bogus := newLogger(&buf, config.Config{AppEnv: "prod", LogLevel: "chatty"})
	bogus.Info("info still on")
	assert.NotZero(t, buf.Len())
}

func TestSetupLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	lg := newLogger(&buf, config.Config{AppEnv: "prod"})
	lg.Info("submit", "answer", "my secret answer", "Password", "hunter2", "question_count", 3)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, redacted, line["answer"])
	assert.Equal(t, redacted, line["Password"])
	assert.EqualValues(t, 3, line["question_count"])
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestStartStage_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, end := StartStage(context.Background(), StageScoring, attribute.Int("interview.question_number", 2))
	end(nil)
	_, end = StartStage(context.Background(), StageAggregate)
	end(errors.New("model returned prose"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "interview.scoring", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("interview.stage", StageScoring))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("interview.question_number", 2))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "interview.aggregate", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestCollectors_RegisterCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, c := range Collectors() {
		require.NoError(t, reg.Register(c))
	}
}

func TestHTTPMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/candidates/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/candidates/{id}", "GET", "404"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/candidates/abc", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/candidates/{id}", "GET", "404"))
	assert.Equal(t, before+1, after)
}

func TestPipelineMetrics(t *testing.T) {
	before := testutil.ToFloat64(StageFailuresTotal.WithLabelValues(StageAggregate))
	StageFailed(StageAggregate)
	assert.Equal(t, before+1, testutil.ToFloat64(StageFailuresTotal.WithLabelValues(StageAggregate)))

	p := testutil.ToFloat64(AITokensTotal.WithLabelValues("prompt"))
	AddTokens(10, 0)
	assert.Equal(t, p+10, testutil.ToFloat64(AITokensTotal.WithLabelValues("prompt")))

	okBefore := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("test", "chat", "success"))
	ObserveAIRequest("test", "chat", "success", 20*time.Millisecond)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(AIRequestsTotal.WithLabelValues("test", "chat", "success")))

	ObserveAnswerScore(4.5)
	ObserveAnswerScore(9)
	ObserveFinalScore(40)
}
