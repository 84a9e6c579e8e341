package export

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

// Enqueuer schedules background rendering.
type Enqueuer interface {
	EnqueueQuotationPDF(ctx context.Context, companyID, quotationID int64) (string, error)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer Enqueuer
}

// NewHandler builds the export endpoints. Without an enqueuer the render
// endpoint answers 503.
func NewHandler(logger *slog.Logger, service *Service, enqueuer Enqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

func (h *Handler) QuotationPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	doc, err := h.service.QuotationPDF(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.logger.Warn("quotation pdf failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Content)
}

func (h *Handler) RenderQuotationPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "background rendering is not configured")
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	taskID, err := h.enqueuer.EnqueueQuotationPDF(r.Context(), actor.CompanyID, id)
	if err != nil {
		h.logger.Error("enqueue quotation pdf failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}
