package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fieldworks/fieldworks/internal/app"
	"github.com/fieldworks/fieldworks/internal/invoices"
	"github.com/fieldworks/fieldworks/internal/platform/db"
	"github.com/fieldworks/fieldworks/jobs"
)

func main() {
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

	invoiceService := invoices.NewService(
		invoices.NewRepository(pool),
		nil,
		logger,
		invoices.ServiceConfig{TaxRateBPS: cfg.InvoiceTaxRateBPS, DueDays: cfg.InvoiceDueDays},
	)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeOverdueScan, Handler: jobs.NewOverdueScanHandler(invoiceService, logger)},
		},
		Cron: []jobs.CronRegistration{
			// Hourly sweep keeps OVERDUE close to due_at without a
			// per-invoice timer.
			{Spec: "0 * * * *", Task: jobs.NewOverdueScanTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}
