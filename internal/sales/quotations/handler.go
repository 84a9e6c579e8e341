package quotations

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type Handler struct {
	logger     *slog.Logger
	service    *Service
	idempotent func(http.Handler) http.Handler
}

// NewHandler builds the quotation API. A nil keys store disables
// Idempotency-Key checks on create.
func NewHandler(logger *slog.Logger, service *Service, keys wms.KeyStore) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		idempotent: wms.Idempotent(keys, "quotations", logger),
	}
}

type listResponse struct {
	Data       []QuotationWithDetails `json:"data"`
	Pagination wms.Pagination         `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := wms.ActorFromContext(r.Context())
	limit, offset := wms.PageFromRequest(r)
	q := r.URL.Query()

	req := ListQuotationsRequest{
		CompanyID:  actor.CompanyID,
		CustomerID: shared.QueryInt64(q, "customer_id"),
		DateFrom:   shared.QueryDate(q, "date_from"),
		DateTo:     shared.QueryDate(q, "date_to"),
		Limit:      limit,
		Offset:     offset,
	}
	if status := q.Get("status"); status != "" {
		st := QuotationStatus(status)
		req.Status = &st
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []QuotationWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: list, Pagination: wms.PageOf(limit, offset, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	q, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	resp, err := h.service.Preview(r.Context(), actor.CompanyID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	q, err := h.service.Create(r.Context(), actor.CompanyID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("create quotation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("quotation created", slog.Int64("id", q.ID), slog.String("doc_number", q.DocNumber))
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	q, err := h.service.Update(r.Context(), actor.CompanyID, id, req, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Submit)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	q, err := h.service.Reject(r.Context(), actor.CompanyID, id, actor.UserID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, id, userID int64) (*Quotation, error)) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	q, err := fn(r.Context(), actor.CompanyID, id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}
