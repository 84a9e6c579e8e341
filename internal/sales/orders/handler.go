package orders

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

func NewHandler(logger *slog.Logger, service *Service, keys wms.KeyStore) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		idempotent: wms.Idempotent(keys, "sales_orders", logger),
	}
}

type listResponse struct {
	Data       []SalesOrderWithDetails `json:"data"`
	Pagination wms.Pagination          `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := wms.ActorFromContext(r.Context())
	limit, offset := wms.PageFromRequest(r)
	q := r.URL.Query()

	req := ListSalesOrdersRequest{
		CompanyID:  actor.CompanyID,
		CustomerID: shared.QueryInt64(q, "customer_id"),
		DateFrom:   shared.QueryDate(q, "date_from"),
		DateTo:     shared.QueryDate(q, "date_to"),
		Limit:      limit,
		Offset:     offset,
	}
	if status := q.Get("status"); status != "" {
		st := SalesOrderStatus(status)
		req.Status = &st
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list sales orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []SalesOrderWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: list, Pagination: wms.PageOf(limit, offset, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := h.service.Create(r.Context(), actor.CompanyID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("create sales order failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) ConvertFromQuotation(w http.ResponseWriter, r *http.Request) {
	quotationID, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req ConvertQuotationRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := h.service.CreateFromQuotation(r.Context(), actor.CompanyID, quotationID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("convert quotation failed", slog.Int64("quotation_id", quotationID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("quotation converted", slog.Int64("quotation_id", quotationID), slog.String("doc_number", o.DocNumber))
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req UpdateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := h.service.Update(r.Context(), actor.CompanyID, id, req, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

func (h *Handler) StartProduction(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartProduction)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req CancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := h.service.Cancel(r.Context(), actor.CompanyID, id, actor.UserID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, id, userID int64) (*SalesOrder, error)) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	o, err := fn(r.Context(), actor.CompanyID, id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
