package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/wms/internal/app"
	jobmetrics "github.com/odyssey-erp/wms/internal/jobs"
	"github.com/odyssey-erp/wms/internal/masterdata/catalog"
	"github.com/odyssey-erp/wms/internal/masterdata/items"
	"github.com/odyssey-erp/wms/internal/masterdata/processes"
	"github.com/odyssey-erp/wms/internal/platform/cache"
	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/export"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/internal/shared"
	"github.com/odyssey-erp/wms/jobs"
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

	redisClient := cache.Connect(ctx, cfg.RedisAddr, logger)
	defer cache.Close(redisClient, logger)

	catalogCache := cache.NewVersioned(redisClient, "catalog", cfg.CatalogCacheTTL).WithLogger(logger)
	itemCatalog := catalog.New(items.NewRepository(pool), processes.NewRepository(pool), catalogCache)
	customerService := customers.NewService(customers.NewRepository(pool))
	quotationService := quotations.NewService(
		quotations.NewRepository(pool),
		customerService,
		itemCatalog,
		shared.NewAuditLogger(pool),
		nil,
		logger,
		quotations.ServiceConfig{DefaultValidity: cfg.QuotationValidity},
	)
	exportService := export.NewService(
		quotationService,
		customerService,
		export.Seller{Name: cfg.SellerName, State: cfg.SellerState},
		redisClient,
		cfg.QuotationPDFCacheTTL,
		logger,
	)

	metrics := jobmetrics.NewMetrics(nil)
	expiryJob := jobs.NewQuotationExpiryJob(quotationService, logger, metrics)
	pdfJob := jobs.NewQuotationPDFJob(exportService, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), logger, metrics)

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskQuotationsExpire, Handler: expiryJob.Handle},
			{Type: jobs.TaskQuotationPDF, Handler: pdfJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.QuotationExpiryCron, Task: jobs.NewQuotationsExpireTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.IdempotencyCleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: cfg.AppReadTimeout}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			if err := metricsServer.Close(); err != nil {
				logger.Warn("worker metrics close", slog.Any("error", err))
			}
		}()
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
