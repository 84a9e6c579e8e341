package production

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/wms/internal/sales/orders"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type memoryKeys map[string]bool

func (m memoryKeys) CheckAndInsert(_ context.Context, key, module string) error {
	if m[module+"|"+key] {
		return wms.ErrIdempotencyConflict
	}
	m[module+"|"+key] = true
	return nil
}

func (m memoryKeys) Delete(_ context.Context, key, module string) error {
	delete(m, module+"|"+key)
	return nil
}

func newTestRouter() (http.Handler, fixture) {
	f := newFixture()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.service, memoryKeys{})
	r := chi.NewRouter()
	r.Use(wms.ActorMiddleware())
	h.MountRoutes(r)
	return r, f
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(wms.HeaderCompanyID, "10")
	req.Header.Set(wms.HeaderUserID, "5")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ProductionFlow(t *testing.T) {
	router, f := newTestRouter()

	rec := do(router, http.MethodPost, "/orders/21/work-orders", "", "Idempotency-Key", "rel-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data []WorkOrder `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Data, 2)
	wo := created.Data[0]

	rec = do(router, http.MethodPost, "/orders/21/work-orders", "", "Idempotency-Key", "rel-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, fmt.Sprintf("/work-orders/%d/release", wo.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodPost, fmt.Sprintf("/job-cards/%d/progress", wo.JobCards[0].ID), `{"completed_qty": 11}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPost, fmt.Sprintf("/job-cards/%d/progress", wo.JobCards[0].ID), `{"completed_qty": 10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := fmt.Sprintf(`{"job_card_id": %d, "vendor_id": 4, "qty_sent": 10, "rate": 4.5}`, wo.JobCards[1].ID)
	rec = do(router, http.MethodPost, "/job-work", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var jw JobWork
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jw))

	rec = do(router, http.MethodPost, fmt.Sprintf("/job-work/%d/receive", jw.ID), `{"qty": 10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jw))
	assert.Equal(t, JobWorkStatusReceived, jw.Status)
	assert.Equal(t, 45.0, jw.Amount)

	rec = do(router, http.MethodGet, fmt.Sprintf("/work-orders/%d", wo.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var shown WorkOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shown))
	assert.Equal(t, WorkOrderStatusCompleted, shown.Status)

	rec = do(router, http.MethodGet, "/production/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.WorkOrders[WorkOrderStatusCompleted])
	assert.Equal(t, 45.0, sum.JobWorkAmount)

	rec = do(router, http.MethodGet, "/work-orders?status=PLANNED", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	assert.Equal(t, orders.SalesOrderStatusInProduction, f.repo.orderStatus[21])
}

func TestHandler_Errors(t *testing.T) {
	router, _ := newTestRouter()

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/work-orders/404", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/work-orders/x", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, "/orders/99/work-orders", "").Code)

	rec := do(router, http.MethodPost, "/job-work", `{"job_card_id": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "problem+json")
}
