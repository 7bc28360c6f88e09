package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/greenlight-hq/greenlight/internal/app"
	"github.com/greenlight-hq/greenlight/internal/auth"
	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/approvals"
	"github.com/greenlight-hq/greenlight/internal/budget/reports"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
	"github.com/greenlight-hq/greenlight/internal/observability"
	"github.com/greenlight-hq/greenlight/internal/platform/cache"
	"github.com/greenlight-hq/greenlight/internal/platform/db"
	"github.com/greenlight-hq/greenlight/internal/shared"
	"github.com/greenlight-hq/greenlight/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	lineModel := budget.NewLineModelReader(dbpool)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	versionRepo := versions.NewRepository(dbpool)
	versionService := versions.NewService(versionRepo, auditLogger, jobClient, logger)
	versionHandler := versions.NewHandler(logger, versionService, lineModel)

	approvalRepo := approvals.NewRepository(dbpool)
	approvalService := approvals.NewService(approvalRepo, approvals.DefaultReviewerGate, auditLogger, metrics, logger)
	approvalHandler := approvals.NewHandler(logger, approvalService, lineModel)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(lineModel, versionRepo, reportCache)
	reportHandler := reports.NewHandler(logger, reportService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		VersionsHandler:  versionHandler,
		ApprovalsHandler: approvalHandler,
		ReportsHandler:   reportHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
