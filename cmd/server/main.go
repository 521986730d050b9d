// Command server starts the AI interview assistant HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/ai/real"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor/pdftext"
	tikaext "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interview-assistant/internal/app"
	"github.com/fairyhunter13/ai-interview-assistant/internal/config"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/internal/prompts"
	"github.com/fairyhunter13/ai-interview-assistant/internal/usecase"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("ignoring .env", slog.Any("error", err))
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	readiness := app.ReadinessDeps{}

	// Candidate store (optional)
	var repo domain.CandidateRepository
	if cfg.DBURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			slog.Error("db migrate failed", slog.Any("error", err))
			os.Exit(1)
		}
		repo = postgres.NewCandidateRepo(pool)
		readiness.DB = pool
	} else {
		slog.Warn("DB_URL empty; interviews will not be persisted")
	}

	// Redis rate limiter (optional)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		readiness.Redis = rdb
	}

	// Interview completed events (optional)
	var events domain.InterviewEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := redpanda.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopicInterviews)
		if err != nil {
			slog.Error("redpanda publisher connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pub.Close()
		events = pub
		readiness.Events = pub
	}

	// LLM client
	var llm domain.LLMClient
	if cfg.UseStubLLM() {
		slog.Warn("LLM_API_KEY empty; using deterministic offline LLM")
		llm = stub.New()
	} else {
		llm = real.New(cfg)
		slog.Info("LLM client initialized", slog.String("base_url", cfg.LLMBaseURL), slog.String("model", cfg.LLMModel))
	}

	// Resume text extraction
	var extractor domain.TextExtractor
	if cfg.TikaURL != "" {
		tc := tikaext.New(cfg.TikaURL)
		extractor = tc
		readiness.Tika = tc
	} else {
		extractor = pdftext.New()
	}

	// Usecases
	catalog := prompts.MustLoad()
	questions := usecase.NewQuestionService(llm, catalog, cfg.QuestionCount, cfg.QuestionGenAttempts, cfg.GenerationTimeout)
	interviews := usecase.NewInterviewService(
		usecase.NewAnswerAssessor(llm, catalog),
		usecase.NewAggregateAssessor(llm, catalog),
		repo,
		events,
	)
	interviews.Concurrency = cfg.AssessConcurrency
	interviews.SubmissionTimeout = cfg.SubmissionTimeout
	candidates := usecase.NewCandidateService(repo)

	srv := httpserver.NewServer(cfg, questions, interviews, candidates, extractor)
	deps := app.RouterDeps{Checks: app.BuildReadinessChecks(readiness)}
	if rdb != nil {
		deps.Limiter = app.NewLimiter(cfg, rdb)
	}
	handler := app.BuildRouter(cfg, srv, deps)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
