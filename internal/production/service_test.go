package production

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdshared "github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/masterdata/vendors"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/sales/orders"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	workOrders  map[int64]WorkOrder
	cards       map[int64]JobCard
	jobWork     map[int64]JobWork
	orderStatus map[int64]orders.SalesOrderStatus
	nextID      int64
	seq         int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		workOrders:  map[int64]WorkOrder{},
		cards:       map[int64]JobCard{},
		jobWork:     map[int64]JobWork{},
		orderStatus: map[int64]orders.SalesOrderStatus{},
		nextID:      1,
	}
}

func (m *mockRepository) snapshot() *mockRepository {
	cp := &mockRepository{
		workOrders:  map[int64]WorkOrder{},
		cards:       map[int64]JobCard{},
		jobWork:     map[int64]JobWork{},
		orderStatus: map[int64]orders.SalesOrderStatus{},
		nextID:      m.nextID,
		seq:         m.seq,
	}
	for k, v := range m.workOrders {
		cp.workOrders[k] = v
	}
	for k, v := range m.cards {
		cp.cards[k] = v
	}
	for k, v := range m.jobWork {
		cp.jobWork[k] = v
	}
	for k, v := range m.orderStatus {
		cp.orderStatus[k] = v
	}
	return cp
}

// WithTx restores the previous state when fn fails.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	before := m.snapshot()
	if err := fn(ctx, m); err != nil {
		*m = *before
		return err
	}
	return nil
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) GetWorkOrder(_ context.Context, companyID, id int64) (*WorkOrder, error) {
	wo, ok := m.workOrders[id]
	if !ok || wo.CompanyID != companyID {
		return nil, ErrWorkOrderNotFound
	}
	wo.JobCards = []JobCard{}
	for cardID := int64(1); cardID < m.nextID; cardID++ {
		if c, ok := m.cards[cardID]; ok && c.WorkOrderID == id {
			wo.JobCards = append(wo.JobCards, c)
		}
	}
	return &wo, nil
}

func (m *mockRepository) LockWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error) {
	return m.GetWorkOrder(ctx, companyID, id)
}

func (m *mockRepository) ListWorkOrders(_ context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	var out []WorkOrder
	for id := int64(1); id < m.nextID; id++ {
		wo, ok := m.workOrders[id]
		if !ok || wo.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != nil && wo.Status != *req.Status {
			continue
		}
		out = append(out, wo)
	}
	return out, len(out), nil
}

func (m *mockRepository) CreateWorkOrder(_ context.Context, wo WorkOrder) (int64, error) {
	wo.ID = m.id()
	for _, c := range wo.JobCards {
		c.ID = m.id()
		c.WorkOrderID = wo.ID
		m.cards[c.ID] = c
	}
	wo.JobCards = nil
	m.workOrders[wo.ID] = wo
	return wo.ID, nil
}

func (m *mockRepository) UpdateWorkOrderStatus(_ context.Context, companyID, id int64, from, to WorkOrderStatus) error {
	wo, ok := m.workOrders[id]
	if !ok || wo.CompanyID != companyID {
		return ErrWorkOrderNotFound
	}
	if wo.Status != from {
		return fmt.Errorf("%w: work order is no longer %s", ErrInvalidStatus, from)
	}
	wo.Status = to
	m.workOrders[id] = wo
	return nil
}

func (m *mockRepository) GenerateNumber(_ context.Context, _ int64, date time.Time) (string, error) {
	m.seq++
	return wms.FormatDocNumber(DocPrefix, date, m.seq), nil
}

func (m *mockRepository) MarkOrderInProduction(_ context.Context, _, salesOrderID int64) error {
	if m.orderStatus[salesOrderID] != orders.SalesOrderStatusConfirmed {
		return fmt.Errorf("%w: sales order is no longer CONFIRMED", ErrInvalidStatus)
	}
	m.orderStatus[salesOrderID] = orders.SalesOrderStatusInProduction
	return nil
}

func (m *mockRepository) GetJobCard(_ context.Context, companyID, id int64) (*JobCard, error) {
	c, ok := m.cards[id]
	if !ok || c.CompanyID != companyID {
		return nil, ErrJobCardNotFound
	}
	return &c, nil
}

func (m *mockRepository) UpdateJobCard(_ context.Context, c JobCard) error {
	if _, ok := m.cards[c.ID]; !ok {
		return ErrJobCardNotFound
	}
	m.cards[c.ID] = c
	return nil
}

func (m *mockRepository) CreateJobWork(_ context.Context, jw JobWork) (int64, error) {
	jw.ID = m.id()
	m.jobWork[jw.ID] = jw
	return jw.ID, nil
}

func (m *mockRepository) GetJobWork(_ context.Context, companyID, id int64) (*JobWork, error) {
	jw, ok := m.jobWork[id]
	if !ok || jw.CompanyID != companyID {
		return nil, ErrJobWorkNotFound
	}
	return &jw, nil
}

func (m *mockRepository) ListJobWork(_ context.Context, req ListJobWorkRequest) ([]JobWorkWithDetails, int, error) {
	var out []JobWorkWithDetails
	for _, jw := range m.jobWork {
		if jw.CompanyID == req.CompanyID {
			out = append(out, JobWorkWithDetails{JobWork: jw})
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) OutstandingJobWork(_ context.Context, jobCardID int64) (float64, error) {
	var qty float64
	for _, jw := range m.jobWork {
		if jw.JobCardID == jobCardID {
			qty += jw.Outstanding()
		}
	}
	return qty, nil
}

func (m *mockRepository) UpdateJobWork(_ context.Context, jw JobWork, from JobWorkStatus) error {
	existing, ok := m.jobWork[jw.ID]
	if !ok {
		return ErrJobWorkNotFound
	}
	if existing.Status != from {
		return fmt.Errorf("%w: job work is no longer %s", ErrInvalidStatus, from)
	}
	m.jobWork[jw.ID] = jw
	return nil
}

func (m *mockRepository) CountWorkOrders(_ context.Context, companyID int64) (map[WorkOrderStatus]int, error) {
	out := map[WorkOrderStatus]int{}
	for _, wo := range m.workOrders {
		if wo.CompanyID == companyID {
			out[wo.Status]++
		}
	}
	return out, nil
}

func (m *mockRepository) CountJobCards(_ context.Context, companyID int64) (map[JobCardStatus]int, error) {
	out := map[JobCardStatus]int{}
	for _, c := range m.cards {
		if c.CompanyID == companyID {
			out[c.Status]++
		}
	}
	return out, nil
}

func (m *mockRepository) JobWorkTotals(_ context.Context, companyID int64) (map[JobWorkStatus]int, float64, float64, error) {
	counts := map[JobWorkStatus]int{}
	var amount, outstanding float64
	for _, jw := range m.jobWork {
		if jw.CompanyID != companyID {
			continue
		}
		counts[jw.Status]++
		amount += jw.Amount
		outstanding += jw.Outstanding()
	}
	return counts, amount, outstanding, nil
}

type stubOrders map[int64]*orders.SalesOrder

func (s stubOrders) Get(_ context.Context, companyID, id int64) (*orders.SalesOrder, error) {
	o, ok := s[id]
	if !ok || o.CompanyID != companyID {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

type stubVendors map[int64]vendors.Vendor

func (s stubVendors) Get(_ context.Context, companyID, id int64) (vendors.Vendor, error) {
	v, ok := s[id]
	if !ok || v.CompanyID != companyID {
		return vendors.Vendor{}, mdshared.ErrNotFound
	}
	return v, nil
}

type recordingAuditor struct {
	logs []wms.AuditLog
}

func (a *recordingAuditor) Record(_ context.Context, log wms.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *recordingAuditor) actions() []string {
	out := make([]string, len(a.logs))
	for i, l := range a.logs {
		out[i] = l.Action
	}
	return out
}

// ============================================================================
// FIXTURE
// ============================================================================

var today = time.Date(2026, time.April, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	service *Service
	repo    *mockRepository
	orders  stubOrders
	audit   *recordingAuditor
}

func int64Ptr(v int64) *int64 { return &v }

func confirmedOrder() *orders.SalesOrder {
	return &orders.SalesOrder{
		ID:        21,
		DocNumber: "SO-202604-0003",
		CompanyID: 10,
		Status:    orders.SalesOrderStatusConfirmed,
		Lines: []shared.Line{
			{ID: 101, ItemID: int64Ptr(7), Name: "Gear shaft", Quantity: 10, Processes: []shared.LineProcess{
				{ProcessID: int64Ptr(3), Name: "Zinc plating", Quantity: 10, Sequence: 2},
				{ProcessID: int64Ptr(2), Name: "CNC turning", Quantity: 10, Sequence: 1},
			}},
			{ID: 102, Name: "Spacer", Quantity: 5},
		},
	}
}

func newFixture() fixture {
	repo := newMockRepository()
	order := confirmedOrder()
	repo.orderStatus[order.ID] = order.Status
	stub := stubOrders{order.ID: order}
	audit := &recordingAuditor{}
	svc := NewService(repo, stub, stubVendors{
		4: {ID: 4, CompanyID: 10, Code: "VEN-004", Name: "Shree Platers"},
	}, audit, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return today }
	return fixture{service: svc, repo: repo, orders: stub, audit: audit}
}

// released returns the work orders of the sample order, the first one moved
// to RELEASED.
func released(t *testing.T, f fixture) []WorkOrder {
	t.Helper()
	list, err := f.service.ReleaseSalesOrder(context.Background(), 10, 21, ReleaseSalesOrderRequest{}, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)
	wo, err := f.service.Release(context.Background(), 10, list[0].ID, 5)
	require.NoError(t, err)
	list[0] = *wo
	return list
}

// ============================================================================
// TESTS
// ============================================================================

func TestService_ReleaseSalesOrder(t *testing.T) {
	f := newFixture()
	start := today.AddDate(0, 0, 2)

	list, err := f.service.ReleaseSalesOrder(context.Background(), 10, 21, ReleaseSalesOrderRequest{PlannedStart: &start}, 5)
	require.NoError(t, err)
	require.Len(t, list, 2)

	first := list[0]
	assert.Equal(t, "WO-202604-0001", first.DocNumber)
	assert.Equal(t, WorkOrderStatusPlanned, first.Status)
	assert.Equal(t, int64(101), first.SalesOrderLineID)
	assert.Equal(t, 10.0, first.Quantity)
	assert.Equal(t, &start, first.PlannedStart)
	require.Len(t, first.JobCards, 2)
	assert.Equal(t, "CNC turning", first.JobCards[0].ProcessName)
	assert.Equal(t, 1, first.JobCards[0].Sequence)
	assert.Equal(t, "Zinc plating", first.JobCards[1].ProcessName)
	assert.Equal(t, 10.0, first.JobCards[1].PlannedQty)
	assert.Equal(t, JobCardStatusOpen, first.JobCards[1].Status)

	assert.Equal(t, "WO-202604-0002", list[1].DocNumber)
	assert.Empty(t, list[1].JobCards)

	assert.Equal(t, orders.SalesOrderStatusInProduction, f.repo.orderStatus[21])
	assert.Equal(t, []string{"sales_order.release"}, f.audit.actions())
}

func TestService_ReleaseSalesOrder_RequiresConfirmed(t *testing.T) {
	f := newFixture()
	f.orders[21].Status = orders.SalesOrderStatusDraft

	_, err := f.service.ReleaseSalesOrder(context.Background(), 10, 21, ReleaseSalesOrderRequest{}, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	assert.True(t, errors.Is(err, httpx.ErrConflict))
	assert.Empty(t, f.repo.workOrders)

	_, err = f.service.ReleaseSalesOrder(context.Background(), 10, 99, ReleaseSalesOrderRequest{}, 5)
	assert.True(t, errors.Is(err, orders.ErrNotFound))
}

func TestService_ReleaseSalesOrder_RollsBackWhenOrderMoved(t *testing.T) {
	f := newFixture()
	// Someone else released the order between the read and the transaction.
	f.repo.orderStatus[21] = orders.SalesOrderStatusInProduction

	_, err := f.service.ReleaseSalesOrder(context.Background(), 10, 21, ReleaseSalesOrderRequest{}, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	assert.Empty(t, f.repo.workOrders)
	assert.Empty(t, f.repo.cards)
	assert.Empty(t, f.audit.logs)
}

func TestService_RecordProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)
	turning, plating := list[0].JobCards[0].ID, list[0].JobCards[1].ID

	wo, err := f.service.RecordProgress(ctx, 10, turning, ProgressRequest{CompletedQty: 6}, 8)
	require.NoError(t, err)
	assert.Equal(t, WorkOrderStatusInProgress, wo.Status)
	assert.Equal(t, JobCardStatusInProgress, wo.JobCards[0].Status)
	assert.Equal(t, 6.0, wo.JobCards[0].CompletedQty)

	_, err = f.service.RecordProgress(ctx, 10, turning, ProgressRequest{CompletedQty: 4, RejectedQty: 1}, 8)
	assert.True(t, errors.Is(err, ErrOverBooked))
	assert.Equal(t, 6.0, f.repo.cards[turning].CompletedQty)

	wo, err = f.service.RecordProgress(ctx, 10, turning, ProgressRequest{CompletedQty: 3, RejectedQty: 1}, 8)
	require.NoError(t, err)
	assert.Equal(t, JobCardStatusDone, wo.JobCards[0].Status)
	assert.Equal(t, 1.0, wo.JobCards[0].RejectedQty)
	assert.Equal(t, WorkOrderStatusInProgress, wo.Status)

	_, err = f.service.RecordProgress(ctx, 10, turning, ProgressRequest{CompletedQty: 1}, 8)
	assert.True(t, errors.Is(err, ErrCardClosed))

	wo, err = f.service.RecordProgress(ctx, 10, plating, ProgressRequest{CompletedQty: 10}, 8)
	require.NoError(t, err)
	assert.Equal(t, WorkOrderStatusCompleted, wo.Status)
	assert.True(t, wo.AllCardsDone())

	assert.Contains(t, f.audit.actions(), "work_order.start")
	assert.Contains(t, f.audit.actions(), "work_order.complete")
}

func TestService_RecordProgress_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list, err := f.service.ReleaseSalesOrder(ctx, 10, 21, ReleaseSalesOrderRequest{}, 5)
	require.NoError(t, err)
	card := list[0].JobCards[0].ID

	_, err = f.service.RecordProgress(ctx, 10, card, ProgressRequest{}, 8)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = f.service.RecordProgress(ctx, 10, card, ProgressRequest{CompletedQty: -1, RejectedQty: 2}, 8)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	// PLANNED work orders take no bookings.
	_, err = f.service.RecordProgress(ctx, 10, card, ProgressRequest{CompletedQty: 1}, 8)
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	_, err = f.service.RecordProgress(ctx, 11, card, ProgressRequest{CompletedQty: 1}, 8)
	assert.True(t, errors.Is(err, ErrJobCardNotFound))
}

func TestService_Complete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)

	_, err := f.service.Start(ctx, 10, list[0].ID, 5)
	require.NoError(t, err)
	_, err = f.service.Complete(ctx, 10, list[0].ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus), "open job cards block completion")

	spacer := list[1].ID
	_, err = f.service.Complete(ctx, 10, spacer, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus), "PLANNED cannot complete")
	_, err = f.service.Release(ctx, 10, spacer, 5)
	require.NoError(t, err)
	_, err = f.service.Start(ctx, 10, spacer, 5)
	require.NoError(t, err)
	wo, err := f.service.Complete(ctx, 10, spacer, 5)
	require.NoError(t, err)
	assert.Equal(t, WorkOrderStatusCompleted, wo.Status)
}

func TestService_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)

	wo, err := f.service.Cancel(ctx, 10, list[1].ID, 5)
	require.NoError(t, err)
	assert.Equal(t, WorkOrderStatusCancelled, wo.Status)

	_, err = f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: list[0].JobCards[1].ID, VendorID: 4, QtySent: 2, Rate: 15}, 5)
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, 10, list[0].ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus), "material at a vendor blocks cancellation")
	assert.Equal(t, WorkOrderStatusInProgress, f.repo.workOrders[list[0].ID].Status)

	_, err = f.service.Cancel(ctx, 10, list[1].ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus), "already cancelled")
}

func TestService_JobWork(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)
	plating := list[0].JobCards[1].ID

	jw, err := f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: plating, VendorID: 4, QtySent: 4, Rate: 12.5}, 5)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, jw.ChallanNo)
	assert.Equal(t, JobWorkStatusSent, jw.Status)
	assert.Equal(t, today, jw.SentAt)
	assert.Equal(t, WorkOrderStatusInProgress, f.repo.workOrders[list[0].ID].Status)
	assert.Equal(t, JobCardStatusInProgress, f.repo.cards[plating].Status)

	// 4 of 10 are at the vendor, leaving 6 for the shop floor.
	_, err = f.service.RecordProgress(ctx, 10, plating, ProgressRequest{CompletedQty: 7}, 8)
	assert.True(t, errors.Is(err, ErrOverBooked))
	_, err = f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: plating, VendorID: 4, QtySent: 7, Rate: 12.5}, 5)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	jw, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 3}, 5)
	require.NoError(t, err)
	assert.Equal(t, JobWorkStatusPartiallyReceived, jw.Status)
	assert.Equal(t, 3.0, jw.QtyReceived)
	assert.Equal(t, 37.5, jw.Amount)
	assert.Equal(t, 3.0, f.repo.cards[plating].CompletedQty)

	_, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 2}, 5)
	assert.True(t, errors.Is(err, ErrOverReceived))

	jw, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 1}, 5)
	require.NoError(t, err)
	assert.Equal(t, JobWorkStatusReceived, jw.Status)
	assert.Equal(t, 50.0, jw.Amount)
	require.NotNil(t, jw.ReceivedAt)

	_, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 1}, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = f.service.CancelJobWork(ctx, 10, jw.ID, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	assert.Contains(t, f.audit.actions(), "job_work.send")
	assert.Contains(t, f.audit.actions(), "job_work.receive")
}

func TestService_JobWorkCompletesWorkOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)
	turning, plating := list[0].JobCards[0].ID, list[0].JobCards[1].ID

	_, err := f.service.RecordProgress(ctx, 10, turning, ProgressRequest{CompletedQty: 10}, 8)
	require.NoError(t, err)
	jw, err := f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: plating, VendorID: 4, QtySent: 10, Rate: 2}, 5)
	require.NoError(t, err)
	_, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 10}, 5)
	require.NoError(t, err)

	wo, err := f.service.GetWorkOrder(ctx, 10, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, WorkOrderStatusCompleted, wo.Status)
}

func TestService_SendJobWork_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list, err := f.service.ReleaseSalesOrder(ctx, 10, 21, ReleaseSalesOrderRequest{}, 5)
	require.NoError(t, err)
	card := list[0].JobCards[0].ID

	_, err = f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: card, VendorID: 99, QtySent: 1}, 5)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))

	_, err = f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: card, VendorID: 4, QtySent: 1}, 5)
	assert.True(t, errors.Is(err, ErrInvalidStatus), "PLANNED work order")

	_, err = f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: card, VendorID: 4}, 5)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	assert.Empty(t, f.repo.jobWork)
}

func TestService_CancelJobWorkReleasesQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)
	plating := list[0].JobCards[1].ID

	jw, err := f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: plating, VendorID: 4, QtySent: 8, Rate: 3}, 5)
	require.NoError(t, err)
	jw, err = f.service.CancelJobWork(ctx, 10, jw.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, JobWorkStatusCancelled, jw.Status)

	wo, err := f.service.RecordProgress(ctx, 10, plating, ProgressRequest{CompletedQty: 10}, 8)
	require.NoError(t, err)
	assert.Equal(t, JobCardStatusDone, wo.JobCards[1].Status)
}

func TestService_Summary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := released(t, f)
	jw, err := f.service.SendJobWork(ctx, 10, SendJobWorkRequest{JobCardID: list[0].JobCards[1].ID, VendorID: 4, QtySent: 5, Rate: 1.25}, 5)
	require.NoError(t, err)
	_, err = f.service.ReceiveJobWork(ctx, 10, jw.ID, ReceiveJobWorkRequest{Qty: 2}, 5)
	require.NoError(t, err)

	sum, err := f.service.Summary(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, map[WorkOrderStatus]int{WorkOrderStatusInProgress: 1, WorkOrderStatusPlanned: 1}, sum.WorkOrders)
	assert.Equal(t, map[JobCardStatus]int{JobCardStatusOpen: 1, JobCardStatusInProgress: 1}, sum.JobCards)
	assert.Equal(t, map[JobWorkStatus]int{JobWorkStatusPartiallyReceived: 1}, sum.JobWork)
	assert.Equal(t, 2.5, sum.JobWorkAmount)
	assert.Equal(t, 3.0, sum.OutstandingQty)
}

func TestJobCard_Book(t *testing.T) {
	c := JobCard{PlannedQty: 5, Status: JobCardStatusOpen}
	require.NoError(t, c.Book(2, 0))
	assert.Equal(t, JobCardStatusInProgress, c.Status)
	assert.ErrorIs(t, c.Book(3, 1), ErrOverBooked)
	assert.Equal(t, 2.0, c.CompletedQty)
	require.NoError(t, c.Book(2.5, 0.5))
	assert.Equal(t, JobCardStatusDone, c.Status)
	assert.ErrorIs(t, c.Book(0, 1), ErrCardClosed)
}

func TestWorkOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to WorkOrderStatus
		want     bool
	}{
		{WorkOrderStatusPlanned, WorkOrderStatusReleased, true},
		{WorkOrderStatusPlanned, WorkOrderStatusInProgress, false},
		{WorkOrderStatusPlanned, WorkOrderStatusCancelled, true},
		{WorkOrderStatusReleased, WorkOrderStatusInProgress, true},
		{WorkOrderStatusReleased, WorkOrderStatusCancelled, true},
		{WorkOrderStatusInProgress, WorkOrderStatusCompleted, true},
		{WorkOrderStatusInProgress, WorkOrderStatusCancelled, true},
		{WorkOrderStatusCompleted, WorkOrderStatusCancelled, false},
		{WorkOrderStatusCancelled, WorkOrderStatusReleased, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
