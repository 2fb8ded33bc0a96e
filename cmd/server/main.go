// Command server starts the AI interview engine HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai/openai"
	eventspub "github.com/fairyhunter13/ai-interview-engine/internal/adapter/events/redpanda"
	httpserver "github.com/fairyhunter13/ai-interview-engine/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/repo/postgres"
	tikaext "github.com/fairyhunter13/ai-interview-engine/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-interview-engine/internal/app"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	"github.com/fairyhunter13/ai-interview-engine/internal/service/sessionlock"
	"github.com/fairyhunter13/ai-interview-engine/internal/usecase"
)

// redisPinger adapts *redis.Client to the readiness interface.
type redisPinger struct{ rdb *redis.Client }

func (r redisPinger) Ping(ctx context.Context) app.RedisPingResult { return r.rdb.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

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
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	candidateRepo := postgres.NewCandidateRepo(pool)
	sessionRepo := postgres.NewSessionRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)
	templateRepo := postgres.NewTemplateRepo(pool)
	answerRepo := postgres.NewAnswerRepo(pool)
	messageRepo := postgres.NewMessageRepo(pool)

	// Optional Redis submit guard; the answers unique index remains the
	// backstop when absent.
	var rdb *redis.Client
	var locker usecase.SubmitLocker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("redis url invalid", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		locker = sessionlock.New(rdb, cfg.SubmitLockTTL, uuid.NewString())
		slog.Info("submit lock enabled", slog.Duration("ttl", cfg.SubmitLockTTL))
	}

	// Optional lifecycle event publisher.
	var events domain.EventPublisher
	if cfg.EventsEnabled() {
		pub, err := eventspub.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
		if err != nil {
			slog.Error("event publisher connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = pub.Close() }()
		events = pub
	}

	// AI provider; absent credentials leave the deterministic paths in charge.
	var aiClient domain.AIClient
	if cfg.AIEnabled() {
		aiClient = openai.New(cfg)
		slog.Info("ai provider enabled", slog.String("model", cfg.OpenAIModel))
	} else {
		slog.Info("ai provider disabled, running template and bank generation only")
	}
	assistant := usecase.NewAIAssistant(aiClient, cfg.OpenAIModel)

	generator := usecase.NewGenerator(assistant, templateRepo, *usecase.MustLoadQuestionBank(),
		rand.New(rand.NewSource(time.Now().UnixNano())), logger) //nolint:gosec // Question rotation does not need crypto randomness.
	generator.Observe = observability.ObserveQuestionGenerated

	interviews := usecase.NewInterviewService(candidateRepo, sessionRepo, questionRepo,
		answerRepo, messageRepo, generator, assistant, events, locker, logger)

	extractor := tikaext.New(cfg.TikaURL)
	resumes := usecase.NewResumeService(extractor, assistant, logger)

	var redisClient app.RedisClient
	if rdb != nil {
		redisClient = redisPinger{rdb: rdb}
	}
	dbCheck, redisCheck, tikaCheck := app.BuildReadinessChecks(cfg, pool, redisClient)

	srv := httpserver.NewServer(cfg, interviews, resumes, dbCheck, redisCheck, tikaCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

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
	_ = srvHTTP.Shutdown(shutdownCtx)
}
