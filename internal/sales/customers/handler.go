package customers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	salesshared "github.com/odyssey-erp/wms/internal/sales/shared"
	"github.com/odyssey-erp/wms/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type listResponse struct {
	Data       []Customer        `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	limit, offset := shared.PageFromRequest(r)

	req := ListCustomersRequest{CompanyID: actor.CompanyID, Limit: limit, Offset: offset}
	if v, err := strconv.ParseBool(r.URL.Query().Get("is_active")); err == nil {
		req.IsActive = &v
	}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}

	customers, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if customers == nil {
		customers = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: customers, Pagination: shared.PageOf(limit, offset, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := salesshared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	customer, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) NextCode(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	code, err := h.service.GenerateCode(r.Context(), actor.CompanyID)
	if err != nil {
		h.logger.Error("generate customer code", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	customer, err := h.service.Create(r.Context(), actor.CompanyID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("create customer failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := salesshared.ParseID(w, r)
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	customer, err := h.service.Update(r.Context(), actor.CompanyID, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}
