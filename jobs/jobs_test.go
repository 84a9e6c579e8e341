package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/wms/internal/jobs"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

type stubExpirer struct {
	count int
	err   error
	calls int
}

func (s *stubExpirer) ExpireDue(context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

type stubRenderer struct {
	companyID, id int64
	err           error
}

func (s *stubRenderer) Prerender(_ context.Context, companyID, id int64) error {
	s.companyID, s.id = companyID, id
	return s.err
}

type stubCleaner struct {
	olderThan time.Duration
	removed   int64
}

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	s.olderThan = olderThan
	return s.removed, nil
}

func newTestMetrics(t *testing.T) (*jobmetrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return jobmetrics.NewMetrics(reg), reg
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, m := range family.GetMetric() {
			for _, pair := range m.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestNewQuotationPDFTask(t *testing.T) {
	task, err := NewQuotationPDFTask(10, 42)
	require.NoError(t, err)
	assert.Equal(t, TaskQuotationPDF, task.Type())

	var payload QuotationPDFPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, QuotationPDFPayload{CompanyID: 10, QuotationID: 42}, payload)

	_, err = NewQuotationPDFTask(0, 42)
	assert.Error(t, err)
}

func TestNewIdempotencyCleanupTask(t *testing.T) {
	task, err := NewIdempotencyCleanupTask(72 * time.Hour)
	require.NoError(t, err)
	var payload IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 72*time.Hour, payload.Retention())

	_, err = NewIdempotencyCleanupTask(0)
	assert.Error(t, err)
}

func TestQuotationExpiryJob(t *testing.T) {
	metrics, reg := newTestMetrics(t)
	expirer := &stubExpirer{count: 3}
	job := NewQuotationExpiryJob(expirer, nil, metrics)

	require.NoError(t, job.Handle(context.Background(), NewQuotationsExpireTask()))
	assert.Equal(t, 1, expirer.calls)
	assert.Equal(t, 3.0, counterValue(t, reg, "wms_job_affected_rows_total", map[string]string{"job": TaskQuotationsExpire}))
	assert.Equal(t, 1.0, counterValue(t, reg, "wms_jobs_total", map[string]string{"job": TaskQuotationsExpire, "status": "success"}))

	expirer.err = errors.New("db down")
	err := job.Handle(context.Background(), NewQuotationsExpireTask())
	require.Error(t, err)
	assert.Equal(t, 1.0, counterValue(t, reg, "wms_jobs_failures_total", map[string]string{"job": TaskQuotationsExpire}))
}

func TestQuotationPDFJob(t *testing.T) {
	metrics, _ := newTestMetrics(t)
	renderer := &stubRenderer{}
	job := NewQuotationPDFJob(renderer, nil, metrics)

	task, err := NewQuotationPDFTask(10, 42)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, int64(10), renderer.companyID)
	assert.Equal(t, int64(42), renderer.id)

	renderer.err = fmt.Errorf("quotation %w", httpx.ErrNotFound)
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	renderer.err = errors.New("redis timeout")
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskQuotationPDF, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupJob(t *testing.T) {
	metrics, reg := newTestMetrics(t)
	store := &stubCleaner{removed: 7}
	job := NewIdempotencyCleanupJob(store, nil, metrics)

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, store.olderThan)
	assert.Equal(t, 7.0, counterValue(t, reg, "wms_job_affected_rows_total", map[string]string{"job": TaskIdempotencyCleanup}))

	err = job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte(`{"retention_seconds":0}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestUnconfiguredJobsFail(t *testing.T) {
	var expiry *QuotationExpiryJob
	assert.Error(t, expiry.Handle(context.Background(), NewQuotationsExpireTask()))
	assert.Error(t, NewQuotationPDFJob(nil, nil, nil).Handle(context.Background(), asynq.NewTask(TaskQuotationPDF, nil)))
}

func TestServeMuxDispatchesRegisteredHandlers(t *testing.T) {
	var handled []string
	mux := newServeMux([]TaskHandler{
		{Type: TaskQuotationsExpire, Handler: func(context.Context, *asynq.Task) error {
			handled = append(handled, TaskQuotationsExpire)
			return nil
		}},
		{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
		{Type: TaskIdempotencyCleanup},
	})

	require.NoError(t, mux.ProcessTask(context.Background(), NewQuotationsExpireTask()))
	assert.Equal(t, []string{TaskQuotationsExpire}, handled)
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
}

type stubQueue struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (s *stubQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.task, s.opts = task, opts
	return &asynq.TaskInfo{ID: "task-7", Type: task.Type()}, nil
}

func (s *stubQueue) Close() error { return nil }

func TestClientEnqueueQuotationPDF(t *testing.T) {
	queue := &stubQueue{}
	client := &Client{client: queue}

	id, err := client.EnqueueQuotationPDF(context.Background(), 10, 42)
	require.NoError(t, err)
	assert.Equal(t, "task-7", id)
	assert.Equal(t, TaskQuotationPDF, queue.task.Type())
	assert.Len(t, queue.opts, 2)

	queue.err = asynq.ErrDuplicateTask
	_, err = client.EnqueueQuotationPDF(context.Background(), 10, 42)
	assert.ErrorIs(t, err, httpx.ErrConflict)

	_, err = client.EnqueueQuotationPDF(context.Background(), 0, 42)
	assert.Error(t, err)

	var nilClient *Client
	_, err = nilClient.EnqueueQuotationPDF(context.Background(), 10, 42)
	assert.Error(t, err)
	assert.NoError(t, nilClient.Close())
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func serveHealth(h *Handler) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestHealthHandler(t *testing.T) {
	rr := serveHealth(NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"archived":0}`, rr.Body.String())

	rr = serveHealth(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4,"active":0,"scheduled":0,"retry":1,"archived":0}`, rr.Body.String())

	rr = serveHealth(NewHandler(stubInspector{err: errors.New("redis: connection refused")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}
