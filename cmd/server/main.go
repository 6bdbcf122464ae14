package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/audit"
	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/database"
	"github.com/cbtarena/cbtarena-backend/internal/handler"
	"github.com/cbtarena/cbtarena-backend/internal/logger"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/router"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	"github.com/cbtarena/cbtarena-backend/internal/validator"
	"github.com/cbtarena/cbtarena-backend/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting CBT Arena Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	recorder := audit.NewRecorder(rdb, log)
	authService := service.NewAuthService(cfg, rdb)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	draftService := service.NewDraftService(rdb, log)
	attemptService := service.NewAttemptService(attemptRepo, attemptRepo, examRepo, questionRepo, recorder, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentRepo, adminRepo),
		StudentPortal: handler.NewStudentPortalHandler(attemptService, examService, draftService, attemptRepo, log),
		ExamAdmin:     handler.NewExamAdminHandler(examService, attemptService, attemptRepo, studentRepo, authService, log),
		Monitor:       handler.NewMonitorHandler(rdb, examService, attemptRepo, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	activityWorker := worker.NewActivityWorker(pool, rdb, log)
	draftWorker := worker.NewDraftWorker(pool, rdb, log)

	go activityWorker.Start(workerCtx)
	go draftWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published exams into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
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

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
