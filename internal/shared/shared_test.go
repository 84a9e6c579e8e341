package shared

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

type memoryKeyStore struct {
	keys    map[string]bool
	deleted []string
	failErr error
}

func newMemoryKeyStore() *memoryKeyStore {
	return &memoryKeyStore{keys: map[string]bool{}}
}

func (m *memoryKeyStore) CheckAndInsert(_ context.Context, key, module string) error {
	if m.failErr != nil {
		return m.failErr
	}
	k := module + "|" + key
	if m.keys[k] {
		return ErrIdempotencyConflict
	}
	m.keys[k] = true
	return nil
}

func (m *memoryKeyStore) Delete(_ context.Context, key, module string) error {
	k := module + "|" + key
	delete(m.keys, k)
	m.deleted = append(m.deleted, k)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestActorMiddleware(t *testing.T) {
	var got Actor
	h := ActorMiddleware("/healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/sales/quotations", nil)
	req.Header.Set(HeaderUserID, "7")
	req.Header.Set(HeaderCompanyID, "3")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, Actor{UserID: 7, CompanyID: 3}, got)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/quotations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIdempotent(t *testing.T) {
	store := newMemoryKeyStore()
	status := http.StatusCreated
	calls := 0
	h := Idempotent(store, "quotations", discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		req = req.WithContext(ContextWithActor(req.Context(), Actor{UserID: 1, CompanyID: 9}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, send("abc"))
	assert.Equal(t, http.StatusConflict, send("abc"))
	assert.Equal(t, 1, calls)
	assert.True(t, store.keys["quotations|9:abc"])

	assert.Equal(t, http.StatusCreated, send(""))
	assert.Equal(t, http.StatusCreated, send(""))
	assert.Equal(t, 3, calls)

	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, send("retry-me"))
	assert.Equal(t, []string{"quotations|9:retry-me"}, store.deleted)
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, send("retry-me"))
}

func TestIdempotent_StoreFailure(t *testing.T) {
	store := newMemoryKeyStore()
	store.failErr = errors.New("db down")
	h := Idempotent(store, "orders", discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestIdempotent_ConflictIsProblemJSON(t *testing.T) {
	store := newMemoryKeyStore()
	h := Idempotent(store, "orders", discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(HeaderIdempotencyKey, "dup")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	require.Equal(t, http.StatusCreated, send().Code)

	rec := send()
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Contains(t, body["detail"], "already processed")
	assert.True(t, errors.Is(ErrIdempotencyConflict, httpx.ErrConflict))
}

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
	assert.Equal(t, maxPerPage, NewPagination(1, 5000, 0).PerPage)

	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=10", nil)
	limit, offset := PageFromRequest(req)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 3, PageOf(limit, offset, 95).Page)
	assert.Equal(t, 10, PageOf(limit, offset, 95).TotalPages)
}

func TestAuditLogger_RequiresFields(t *testing.T) {
	var l *AuditLogger
	require.Error(t, l.Record(context.Background(), AuditLog{}))
	require.NoError(t, NopAuditor{}.Record(context.Background(), AuditLog{}))
}

func TestFormatDocNumber(t *testing.T) {
	date := time.Date(2026, time.April, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "QUO-202604-0007", FormatDocNumber("QUO", date, 7))
	assert.Equal(t, "WO-202604-12345", FormatDocNumber("WO", date, 12345))
}
