package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type stubQuotes map[int64]*quotations.Quotation

func (s stubQuotes) Get(_ context.Context, companyID, id int64) (*quotations.Quotation, error) {
	q, ok := s[id]
	if !ok || q.CompanyID != companyID {
		return nil, quotations.ErrNotFound
	}
	return q, nil
}

type countingCustomers struct {
	customer *customers.Customer
	calls    int
}

func (c *countingCustomers) Get(_ context.Context, _, id int64) (*customers.Customer, error) {
	c.calls++
	if c.customer == nil || c.customer.ID != id {
		return nil, customers.ErrNotFound
	}
	return c.customer, nil
}

func strPtr(s string) *string { return &s }

func sampleQuotation() *quotations.Quotation {
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	return &quotations.Quotation{
		ID:         5,
		DocNumber:  "QUO-202604-0001",
		CompanyID:  10,
		CustomerID: 1,
		QuoteDate:  date,
		ValidUntil: date.AddDate(0, 0, 30),
		Status:     quotations.QuotationStatusApproved,
		Tax: pricing.TaxParameters{
			GSTPercent: 18, TaxMode: pricing.TaxModeTDS, TDSPercent: 10,
			RemittanceCharges: 50, Currency: pricing.CurrencyUSD, ExchangeRate: 80,
		},
		Totals: shared.Totals{
			BaseAmount: 1000, GSTAmount: 180, TDSAmount: 100, RemittanceCharges: 50,
			TotalAmount: 1130, ReceivableAmount: 90400,
		},
		Notes:     strPtr("Delivery ex-works"),
		UpdatedAt: date,
		Lines: []shared.Line{
			{Name: "Shaft", Quantity: 3, UnitRate: 100, DiscountPercent: 10, LineNet: 270, ProcessesTotal: 100, LineTotal: 370,
				Processes: []shared.LineProcess{{Name: "Turning", UnitCost: 50, Quantity: 2, ProcessTotal: 100}}},
			{Name: "Bush", Quantity: 6, UnitRate: 105, LineNet: 630, LineTotal: 630},
		},
	}
}

func sampleCustomer() *customers.Customer {
	return &customers.Customer{ID: 1, CompanyID: 10, Name: "Acme Forgings", Country: "India",
		State: strPtr("Maharashtra"), GSTIN: strPtr("27AAACA1234A1Z5")}
}

func TestRenderQuotation(t *testing.T) {
	out, err := RenderQuotation(sampleQuotation(), sampleCustomer(), Seller{Name: "Precision Works", State: "Maharashtra"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = RenderQuotation(nil, sampleCustomer(), Seller{})
	require.Error(t, err)
}

func TestGSTLabel(t *testing.T) {
	india := &pricing.CustomerTaxProfile{Country: "India", State: "Maharashtra"}
	assert.Equal(t, "GST 18% (CGST 9% + SGST 9%)", GSTLabel(india, 18, "maharashtra"))
	assert.Equal(t, "GST 18% (IGST)", GSTLabel(india, 18, "Karnataka"))
	assert.Equal(t, "GST 5% (CGST 2.5% + SGST 2.5%)", GSTLabel(india, 5, "Maharashtra"))
	assert.Equal(t, "GST (not applicable)", GSTLabel(&pricing.CustomerTaxProfile{Country: "USA"}, 18, "Maharashtra"))
	assert.Equal(t, "GST (not applicable)", GSTLabel(nil, 18, "Maharashtra"))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "INR 1,130.00", formatAmount("INR", 1130))
	assert.Equal(t, "USD 90,400.00", formatAmount("USD", 90400))
	assert.Equal(t, "INR 0.50", formatAmount("INR", 0.5))
	assert.Equal(t, "12%", formatPercent(12))
	assert.Equal(t, "0.1%", formatPercent(0.1))
	assert.Equal(t, "1.50", formatNumber(1.5))
	assert.Equal(t, "3", formatNumber(3))
}

func newCachedService(t *testing.T) (*Service, *countingCustomers, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	custs := &countingCustomers{customer: sampleCustomer()}
	svc := NewService(stubQuotes{5: sampleQuotation()}, custs, Seller{Name: "Precision Works", State: "Maharashtra"},
		client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, custs, mr
}

func TestService_QuotationPDFCaches(t *testing.T) {
	svc, _, mr := newCachedService(t)
	ctx := context.Background()

	first, err := svc.QuotationPDF(ctx, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "QUO-202604-0001.pdf", first.Filename)
	keys := mr.Keys()
	require.Len(t, keys, 1)

	// A cached entry is returned as stored.
	require.NoError(t, mr.Set(keys[0], "cached-pdf"))
	mr.SetTTL(keys[0], time.Hour)
	second, err := svc.QuotationPDF(ctx, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached-pdf"), second.Content)

	mr.FastForward(2 * time.Hour)
	assert.Empty(t, mr.Keys())
	require.NoError(t, svc.Prerender(ctx, 10, 5))
	assert.Len(t, mr.Keys(), 1)
}

func TestService_CustomerEditInvalidatesPDF(t *testing.T) {
	svc, custs, mr := newCachedService(t)
	ctx := context.Background()

	_, err := svc.QuotationPDF(ctx, 10, 5)
	require.NoError(t, err)
	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.NoError(t, mr.Set(keys[0], "stale-pdf"))

	custs.customer.Name = "Acme Forgings Pvt Ltd"
	custs.customer.UpdatedAt = time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC)

	doc, err := svc.QuotationPDF(ctx, 10, 5)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))
	assert.Len(t, mr.Keys(), 2)
}

func TestService_QuotationPDFErrors(t *testing.T) {
	svc, _, _ := newCachedService(t)

	_, err := svc.QuotationPDF(context.Background(), 10, 99)
	assert.True(t, errors.Is(err, quotations.ErrNotFound))

	_, err = svc.QuotationPDF(context.Background(), 11, 5)
	assert.True(t, errors.Is(err, quotations.ErrNotFound))
}

func TestService_WithoutRedis(t *testing.T) {
	custs := &countingCustomers{customer: sampleCustomer()}
	svc := NewService(stubQuotes{5: sampleQuotation()}, custs, Seller{Name: "Precision Works"}, nil, 0, nil)

	_, err := svc.QuotationPDF(context.Background(), 10, 5)
	require.NoError(t, err)
	_, err = svc.QuotationPDF(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, custs.calls)
}

type recordingEnqueuer struct {
	companyID, id int64
}

func (r *recordingEnqueuer) EnqueueQuotationPDF(_ context.Context, companyID, id int64) (string, error) {
	r.companyID, r.id = companyID, id
	return "task-1", nil
}

func TestHandler(t *testing.T) {
	svc, _, _ := newCachedService(t)
	enq := &recordingEnqueuer{}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, enq)
	r := chi.NewRouter()
	r.Use(wms.ActorMiddleware())
	h.MountRoutes(r)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(wms.HeaderCompanyID, "10")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/quotations/5/pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "QUO-202604-0001.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/quotations/77/pdf").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/quotations/abc/pdf").Code)

	rec = do(http.MethodPost, "/quotations/5/pdf/render")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "task-1")
	assert.Equal(t, int64(10), enq.companyID)
	assert.Equal(t, int64(5), enq.id)

	h = NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, nil)
	r = chi.NewRouter()
	r.Use(wms.ActorMiddleware())
	h.MountRoutes(r)
	assert.Equal(t, http.StatusServiceUnavailable, do(http.MethodPost, "/quotations/5/pdf/render").Code)
}
