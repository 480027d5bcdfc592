package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/fieldworks/internal/app"
	"github.com/fieldworks/fieldworks/internal/customers"
	"github.com/fieldworks/fieldworks/internal/dispatch"
	"github.com/fieldworks/fieldworks/internal/invoices"
	"github.com/fieldworks/fieldworks/internal/locations"
	"github.com/fieldworks/fieldworks/internal/platform/cache"
	"github.com/fieldworks/fieldworks/internal/platform/db"
	"github.com/fieldworks/fieldworks/internal/pricebook"
	"github.com/fieldworks/fieldworks/internal/technicians"
	"github.com/fieldworks/fieldworks/internal/workorders"
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	// The queue is best-effort: with Redis down the API still serves, and
	// invoice notifications are logged-and-dropped by the soft-failure path.
	var jobClient *jobs.Client
	var jobHandler *jobs.Handler
	if redisClient, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, background jobs disabled", slog.Any("error", err))
	} else {
		_ = redisClient.Close()
		jobClient, err = jobs.NewClient(redisOpts)
		if err != nil {
			logger.Warn("asynq client", slog.Any("error", err))
		} else {
			defer func() {
				if err := jobClient.Close(); err != nil {
					logger.Warn("asynq client close", slog.Any("error", err))
				}
			}()
		}
		jobHandler = jobs.NewHandler(asynq.NewInspector(redisOpts), logger)
	}

	customerService := customers.NewService(logger, customers.NewRepository(pool))
	locationService := locations.NewService(logger, locations.NewRepository(pool))
	technicianService := technicians.NewService(logger, technicians.NewRepository(pool))
	workOrderService := workorders.NewService(workorders.NewRepository(pool))
	dispatchService := dispatch.NewService(dispatch.NewRepository(pool), dispatch.ServiceConfig{
		OverlapCheck: cfg.DispatchOverlapCheck,
	})
	invoiceService := invoices.NewService(
		invoices.NewRepository(pool),
		jobs.NewNotifier(jobClient),
		logger,
		invoices.ServiceConfig{TaxRateBPS: cfg.InvoiceTaxRateBPS, DueDays: cfg.InvoiceDueDays},
	)
	pricebookService := pricebook.NewService(logger, pricebook.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CustomerHandler:   customers.NewHandler(logger, customerService),
		LocationHandler:   locations.NewHandler(logger, locationService),
		TechnicianHandler: technicians.NewHandler(logger, technicianService),
		WorkOrderHandler:  workorders.NewHandler(logger, workOrderService),
		DispatchHandler:   dispatch.NewHandler(logger, dispatchService),
		InvoiceHandler:    invoices.NewHandler(logger, invoiceService),
		PricebookHandler:  pricebook.NewHandler(logger, pricebookService),
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
