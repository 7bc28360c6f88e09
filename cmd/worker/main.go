package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/greenlight-hq/greenlight/internal/app"
	"github.com/greenlight-hq/greenlight/internal/budget"
	"github.com/greenlight-hq/greenlight/internal/budget/reports"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
	"github.com/greenlight-hq/greenlight/internal/platform/cache"
	"github.com/greenlight-hq/greenlight/internal/platform/db"
	"github.com/greenlight-hq/greenlight/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	lineModel := budget.NewLineModelReader(pool)
	versionRepo := versions.NewRepository(pool)
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(lineModel, versionRepo, reportCache)

	warmupHandler := jobs.NewReportWarmupHandler(reportService, logger)
	remindHandler := jobs.NewApprovalRemindHandler(pool, cfg.ApprovalRemindAge, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupHandler},
			{Type: jobs.TaskApprovalRemind, Handler: remindHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ApprovalRemindCron, Task: jobs.NewApprovalRemindTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
