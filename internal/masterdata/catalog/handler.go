package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/shared"
)

// Handler exposes the form options endpoint.
type Handler struct {
	logger  *slog.Logger
	catalog *Catalog
}

func NewHandler(logger *slog.Logger, catalog *Catalog) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Options)
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	opts, err := h.catalog.Options(r.Context(), actor.CompanyID)
	if err != nil {
		h.logger.Error("load catalog options", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, opts)
}
