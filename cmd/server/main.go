package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/credential"
	"github.com/stemsi/exstem-quiz/internal/database"
	"github.com/stemsi/exstem-quiz/internal/exam"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/logger"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/questionbank"
	"github.com/stemsi/exstem-quiz/internal/router"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/validator"
	"github.com/stemsi/exstem-quiz/internal/web"
	"github.com/stemsi/exstem-quiz/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("question_time_limit", cfg.QuestionTimeLimit).
		Msg("Starting exam server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Validate Exam Configuration ───────────────────────────────────
	// A missing or corrupt bank or password blocks the exam entirely, so
	// refuse to start instead of failing every login.
	checker, err := credential.NewSecretChecker(cfg.ExamPasswordB64, cfg.ExamPasswordHash)
	if err != nil {
		log.Fatal().Err(err).Msg("Exam password configuration error")
	}

	bankProvider := questionbank.FromSources(cfg.ExamDataB64, cfg.ExamDataFile)
	bank, err := bankProvider.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Question bank configuration error")
	}
	log.Info().Int("questions", bank.Len()).Msg("Question bank loaded")

	// ─── Connect to Redis (optional) ───────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		sink         service.EventPublisher = service.NewLogPublisher(log)
		loginLimiter middleware.Limiter     = middleware.NewMemoryLimiter(cfg.LoginRateLimit, time.Minute)
	)
	if rdb != nil {
		sink = service.NewRedisPublisher(rdb, log)
		loginLimiter = middleware.NewRedisLimiter(rdb, cfg.LoginRateLimit, time.Minute)
	}
	events := service.NewAsyncPublisher(sink, service.DefaultEventBuffer, log)

	// ─── Initialize Services ──────────────────────────────────────────
	timeoutWorker := worker.NewTimeoutWorker(log)
	authService := service.NewAuthService(cfg)
	examService := service.NewExamService(
		bankProvider,
		checker,
		authService,
		timeoutWorker,
		events,
		exam.NewTimeoutGuard(cfg.QuestionTimeLimit, cfg.TimeoutGrace),
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(examService, log),
		Exam:   handler.NewExamHandler(examService, log),
		Page:   handler.NewPageHandler(examService, cfg.ExamTitle, log),
		WS:     handler.NewWSHandler(examService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(rdb, examService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweepWorker := worker.NewSweepWorker(examService, worker.DefaultSweepInterval, log)

	go timeoutWorker.Start(workerCtx)
	go sweepWorker.Start(workerCtx)
	go events.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	templates, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	r := router.SetupRouter(router.Deps{
		Auth:         authService,
		Sessions:     examService,
		LoginLimiter: loginLimiter,
		Templates:    templates,
		Static:       web.Static(),
		Log:          log,
	}, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the background workers.
	workerCancel()

	log.Info().
		Int("active_sessions", examService.ActiveSessions()).
		Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
