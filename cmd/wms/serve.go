package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/wms/internal/app"
	"github.com/odyssey-erp/wms/internal/masterdata/catalog"
	"github.com/odyssey-erp/wms/internal/masterdata/items"
	"github.com/odyssey-erp/wms/internal/masterdata/processes"
	"github.com/odyssey-erp/wms/internal/masterdata/vendors"
	"github.com/odyssey-erp/wms/internal/observability"
	"github.com/odyssey-erp/wms/internal/platform/cache"
	"github.com/odyssey-erp/wms/internal/platform/db"
	"github.com/odyssey-erp/wms/internal/production"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/export"
	"github.com/odyssey-erp/wms/internal/sales/orders"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/internal/shared"
	"github.com/odyssey-erp/wms/jobs"
	"github.com/odyssey-erp/wms/migrations"
)

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(dbpool, migrations.FS); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	redisClient := cache.Connect(ctx, cfg.RedisAddr, logger)
	defer cache.Close(redisClient, logger)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	itemRepo := items.NewRepository(dbpool)
	processRepo := processes.NewRepository(dbpool)
	itemCatalog := catalog.New(itemRepo, processRepo, cache.NewVersioned(redisClient, "catalog", cfg.CatalogCacheTTL).WithLogger(logger))
	itemService := items.NewService(itemRepo, itemCatalog, logger)
	processService := processes.NewService(processRepo, itemCatalog, logger)
	vendorService := vendors.NewService(vendors.NewRepository(dbpool))

	customerService := customers.NewService(customers.NewRepository(dbpool))
	quotationService := quotations.NewService(
		quotations.NewRepository(dbpool),
		customerService,
		itemCatalog,
		auditLogger,
		metrics,
		logger,
		quotations.ServiceConfig{DefaultValidity: cfg.QuotationValidity},
	)
	orderService := orders.NewService(
		orders.NewRepository(dbpool),
		customerService,
		quotationService,
		itemCatalog,
		auditLogger,
		metrics,
		logger,
	)
	productionService := production.NewService(
		production.NewRepository(dbpool),
		orderService,
		vendorService,
		auditLogger,
		metrics,
		logger,
	)
	exportService := export.NewService(
		quotationService,
		customerService,
		export.Seller{Name: cfg.SellerName, State: cfg.SellerState},
		redisClient,
		cfg.QuotationPDFCacheTTL,
		logger,
	)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              dbpool,
		Metrics:           metrics,
		ItemsHandler:      items.NewHandler(logger, itemService),
		ProcessesHandler:  processes.NewHandler(logger, processService),
		VendorsHandler:    vendors.NewHandler(logger, vendorService),
		CatalogHandler:    catalog.NewHandler(logger, itemCatalog),
		CustomersHandler:  customers.NewHandler(logger, customerService),
		QuotationsHandler: quotations.NewHandler(logger, quotationService, idempotencyStore),
		OrdersHandler:     orders.NewHandler(logger, orderService, idempotencyStore),
		ExportHandler:     export.NewHandler(logger, exportService, jobClient),
		ProductionHandler: production.NewHandler(logger, productionService, idempotencyStore),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
