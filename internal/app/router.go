package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/wms/internal/masterdata/catalog"
	"github.com/odyssey-erp/wms/internal/masterdata/items"
	"github.com/odyssey-erp/wms/internal/masterdata/processes"
	"github.com/odyssey-erp/wms/internal/masterdata/vendors"
	"github.com/odyssey-erp/wms/internal/observability"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/production"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/export"
	"github.com/odyssey-erp/wms/internal/sales/orders"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/jobs"
)

// APIPrefix is where every domain route is mounted.
const APIPrefix = "/api/v1"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Pool    *pgxpool.Pool
	Metrics *observability.Metrics

	ItemsHandler      *items.Handler
	ProcessesHandler  *processes.Handler
	VendorsHandler    *vendors.Handler
	CatalogHandler    *catalog.Handler
	CustomersHandler  *customers.Handler
	QuotationsHandler *quotations.Handler
	OrdersHandler     *orders.Handler
	ExportHandler     *export.Handler
	ProductionHandler *production.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with WMS defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", healthz(params.Pool, params.Logger))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/masterdata", func(r chi.Router) {
			if params.ItemsHandler != nil {
				r.Route("/items", params.ItemsHandler.MountRoutes)
			}
			if params.ProcessesHandler != nil {
				r.Route("/processes", params.ProcessesHandler.MountRoutes)
			}
			if params.VendorsHandler != nil {
				r.Route("/vendors", params.VendorsHandler.MountRoutes)
			}
			if params.CatalogHandler != nil {
				r.Route("/catalog", params.CatalogHandler.MountRoutes)
			}
		})
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r)
		}
		if params.QuotationsHandler != nil {
			params.QuotationsHandler.MountRoutes(r)
		}
		if params.ExportHandler != nil {
			params.ExportHandler.MountRoutes(r)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.ProductionHandler != nil {
			params.ProductionHandler.MountRoutes(r)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.Method+" "+r.URL.Path)
	})
	return r
}

func healthz(pool *pgxpool.Pool, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := pool.Ping(r.Context()); err != nil {
				logger.Warn("healthz database ping", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
