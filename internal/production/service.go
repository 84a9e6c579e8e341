package production

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/wms/internal/masterdata/vendors"
	"github.com/odyssey-erp/wms/internal/observability"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/orders"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type OrderPort interface {
	Get(ctx context.Context, companyID, id int64) (*orders.SalesOrder, error)
}

type VendorPort interface {
	Get(ctx context.Context, companyID, id int64) (vendors.Vendor, error)
}

type AuditPort interface {
	Record(ctx context.Context, log wms.AuditLog) error
}

type Service struct {
	repo    Repository
	orders  OrderPort
	vendors VendorPort
	audit   AuditPort
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, orderPort OrderPort, vendorPort VendorPort, audit AuditPort, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if audit == nil {
		audit = wms.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		orders:  orderPort,
		vendors: vendorPort,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ReleaseSalesOrder plans one work order per line of a CONFIRMED sales order,
// with a job card per process in sequence, and moves the order to
// IN_PRODUCTION in the same transaction.
func (s *Service) ReleaseSalesOrder(ctx context.Context, companyID, salesOrderID int64, req ReleaseSalesOrderRequest, userID int64) ([]WorkOrder, error) {
	order, err := s.orders.Get(ctx, companyID, salesOrderID)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if order.Status != orders.SalesOrderStatusConfirmed {
		return nil, fmt.Errorf("%w: sales order %s is %s, only CONFIRMED orders go to production",
			ErrInvalidStatus, order.DocNumber, order.Status)
	}
	if len(order.Lines) == 0 {
		return nil, httpx.Invalid("lines", "sales order has no lines to produce")
	}

	var ids []int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, line := range order.Lines {
			number, err := repo.GenerateNumber(ctx, companyID, s.now())
			if err != nil {
				return err
			}
			wo := WorkOrder{
				DocNumber:        number,
				CompanyID:        companyID,
				SalesOrderID:     order.ID,
				SalesOrderLineID: line.ID,
				ItemID:           line.ItemID,
				ItemName:         line.Name,
				Quantity:         line.Quantity,
				Status:           WorkOrderStatusPlanned,
				PlannedStart:     req.PlannedStart,
				CreatedBy:        userID,
			}
			procs := append(line.Processes[:0:0], line.Processes...)
			sort.SliceStable(procs, func(i, j int) bool { return procs[i].Sequence < procs[j].Sequence })
			for i, p := range procs {
				wo.JobCards = append(wo.JobCards, JobCard{
					CompanyID:   companyID,
					ProcessID:   p.ProcessID,
					ProcessName: p.Name,
					Sequence:    i + 1,
					PlannedQty:  line.Quantity,
					Status:      JobCardStatusOpen,
				})
			}
			id, err := repo.CreateWorkOrder(ctx, wo)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return repo.MarkOrderInProduction(ctx, companyID, order.ID)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "sales_order.release",
		Entity:    "sales_order",
		EntityID:  strconv.FormatInt(order.ID, 10),
		Meta:      map[string]any{"work_orders": len(ids)},
	})
	s.metrics.ObserveTransition("sales_order", string(orders.SalesOrderStatusInProduction))

	out := make([]WorkOrder, 0, len(ids))
	for _, id := range ids {
		wo, err := s.repo.GetWorkOrder(ctx, companyID, id)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveTransition("work_order", string(wo.Status))
		out = append(out, *wo)
	}
	return out, nil
}

func (s *Service) Release(ctx context.Context, companyID, id, userID int64) (*WorkOrder, error) {
	return s.transition(ctx, companyID, id, userID, WorkOrderStatusReleased, nil)
}

func (s *Service) Start(ctx context.Context, companyID, id, userID int64) (*WorkOrder, error) {
	return s.transition(ctx, companyID, id, userID, WorkOrderStatusInProgress, nil)
}

// Complete closes a work order by hand. Every job card must be DONE; work
// orders with processes normally complete on their last progress booking.
func (s *Service) Complete(ctx context.Context, companyID, id, userID int64) (*WorkOrder, error) {
	return s.transition(ctx, companyID, id, userID, WorkOrderStatusCompleted, func(ctx context.Context, _ Repository, wo *WorkOrder) error {
		if !wo.AllCardsDone() {
			return fmt.Errorf("%w: work order %s has open job cards", ErrInvalidStatus, wo.DocNumber)
		}
		return nil
	})
}

// Cancel refuses while material is still out with a vendor.
func (s *Service) Cancel(ctx context.Context, companyID, id, userID int64) (*WorkOrder, error) {
	return s.transition(ctx, companyID, id, userID, WorkOrderStatusCancelled, func(ctx context.Context, repo Repository, wo *WorkOrder) error {
		for _, c := range wo.JobCards {
			out, err := repo.OutstandingJobWork(ctx, c.ID)
			if err != nil {
				return err
			}
			if out > qtyEpsilon {
				return fmt.Errorf("%w: job card %s has %v units at a vendor", ErrInvalidStatus, c.ProcessName, out)
			}
		}
		return nil
	})
}

func (s *Service) transition(ctx context.Context, companyID, id, userID int64, to WorkOrderStatus, guard func(context.Context, Repository, *WorkOrder) error) (*WorkOrder, error) {
	var from WorkOrderStatus
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		wo, err := repo.LockWorkOrder(ctx, companyID, id)
		if err != nil {
			return err
		}
		if !wo.Status.CanTransitionTo(to) {
			return fmt.Errorf("%w: work order %s cannot move from %s to %s", ErrInvalidStatus, wo.DocNumber, wo.Status, to)
		}
		if guard != nil {
			if err := guard(ctx, repo, wo); err != nil {
				return err
			}
		}
		from = wo.Status
		return repo.UpdateWorkOrderStatus(ctx, companyID, id, wo.Status, to)
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, companyID, userID, id, from, to)
	return s.repo.GetWorkOrder(ctx, companyID, id)
}

// RecordProgress books completed and rejected quantities on a job card.
// Quantity currently at a vendor is reserved for the job work receipt.
func (s *Service) RecordProgress(ctx context.Context, companyID, jobCardID int64, req ProgressRequest, userID int64) (*WorkOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if req.CompletedQty+req.RejectedQty <= 0 {
		return nil, httpx.Invalid("completed_qty", "completed or rejected quantity is required")
	}

	var changes []statusChange
	var workOrderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		wo, idx, err := lockCard(ctx, repo, companyID, jobCardID)
		if err != nil {
			return err
		}
		workOrderID = wo.ID
		reserved, err := repo.OutstandingJobWork(ctx, jobCardID)
		if err != nil {
			return err
		}
		card := wo.JobCards[idx]
		if card.Status != JobCardStatusDone && req.CompletedQty+req.RejectedQty > card.Remaining()-reserved+qtyEpsilon {
			return fmt.Errorf("%w (%v units are at a vendor)", ErrOverBooked, reserved)
		}
		changes, err = applyProgress(ctx, repo, wo, idx, req.CompletedQty, req.RejectedQty)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "job_card.progress",
		Entity:    "job_card",
		EntityID:  strconv.FormatInt(jobCardID, 10),
		Meta:      map[string]any{"completed_qty": req.CompletedQty, "rejected_qty": req.RejectedQty},
	})
	for _, c := range changes {
		s.recordTransition(ctx, companyID, userID, workOrderID, c.from, c.to)
	}
	return s.repo.GetWorkOrder(ctx, companyID, workOrderID)
}

type statusChange struct {
	from, to WorkOrderStatus
}

// lockCard resolves a job card to its work order and locks the work order.
// The card is re-read under the lock.
func lockCard(ctx context.Context, repo Repository, companyID, jobCardID int64) (*WorkOrder, int, error) {
	card, err := repo.GetJobCard(ctx, companyID, jobCardID)
	if err != nil {
		return nil, 0, err
	}
	wo, err := repo.LockWorkOrder(ctx, companyID, card.WorkOrderID)
	if err != nil {
		return nil, 0, err
	}
	for i := range wo.JobCards {
		if wo.JobCards[i].ID == jobCardID {
			return wo, i, nil
		}
	}
	return nil, 0, ErrJobCardNotFound
}

// applyProgress books quantities on a locked work order's card, starts a
// RELEASED work order and completes it once every card is DONE.
func applyProgress(ctx context.Context, repo Repository, wo *WorkOrder, idx int, completed, rejected float64) ([]statusChange, error) {
	if !wo.Status.AcceptsProgress() {
		return nil, fmt.Errorf("%w: work order %s is %s", ErrInvalidStatus, wo.DocNumber, wo.Status)
	}
	card := &wo.JobCards[idx]
	if err := card.Book(completed, rejected); err != nil {
		return nil, err
	}
	if err := repo.UpdateJobCard(ctx, *card); err != nil {
		return nil, err
	}

	var changes []statusChange
	if wo.Status == WorkOrderStatusReleased {
		if err := repo.UpdateWorkOrderStatus(ctx, wo.CompanyID, wo.ID, WorkOrderStatusReleased, WorkOrderStatusInProgress); err != nil {
			return nil, err
		}
		changes = append(changes, statusChange{WorkOrderStatusReleased, WorkOrderStatusInProgress})
		wo.Status = WorkOrderStatusInProgress
	}
	if wo.AllCardsDone() {
		if err := repo.UpdateWorkOrderStatus(ctx, wo.CompanyID, wo.ID, WorkOrderStatusInProgress, WorkOrderStatusCompleted); err != nil {
			return nil, err
		}
		changes = append(changes, statusChange{WorkOrderStatusInProgress, WorkOrderStatusCompleted})
		wo.Status = WorkOrderStatusCompleted
	}
	return changes, nil
}

// SendJobWork issues a challan for part of a job card's remaining quantity
// to a vendor.
func (s *Service) SendJobWork(ctx context.Context, companyID int64, req SendJobWorkRequest, userID int64) (*JobWork, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.vendors.Get(ctx, companyID, req.VendorID); err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}

	jw := JobWork{
		CompanyID: companyID,
		ChallanNo: uuid.New(),
		JobCardID: req.JobCardID,
		VendorID:  req.VendorID,
		QtySent:   req.QtySent,
		Rate:      req.Rate,
		Status:    JobWorkStatusSent,
		Notes:     req.Notes,
		SentAt:    s.now(),
		CreatedBy: userID,
	}
	var changes []statusChange
	var workOrderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		wo, idx, err := lockCard(ctx, repo, companyID, req.JobCardID)
		if err != nil {
			return err
		}
		workOrderID = wo.ID
		if !wo.Status.AcceptsProgress() {
			return fmt.Errorf("%w: work order %s is %s", ErrInvalidStatus, wo.DocNumber, wo.Status)
		}
		card := &wo.JobCards[idx]
		if card.Status == JobCardStatusDone {
			return ErrCardClosed
		}
		reserved, err := repo.OutstandingJobWork(ctx, card.ID)
		if err != nil {
			return err
		}
		if available := card.Remaining() - reserved; req.QtySent > available+qtyEpsilon {
			return httpx.Invalid("qty_sent", fmt.Sprintf("must be at most %v", available))
		}

		id, err := repo.CreateJobWork(ctx, jw)
		if err != nil {
			return err
		}
		jw.ID = id

		if card.Status == JobCardStatusOpen {
			card.Status = JobCardStatusInProgress
			if err := repo.UpdateJobCard(ctx, *card); err != nil {
				return err
			}
		}
		if wo.Status == WorkOrderStatusReleased {
			if err := repo.UpdateWorkOrderStatus(ctx, companyID, wo.ID, WorkOrderStatusReleased, WorkOrderStatusInProgress); err != nil {
				return err
			}
			changes = append(changes, statusChange{WorkOrderStatusReleased, WorkOrderStatusInProgress})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "job_work.send",
		Entity:    "job_work",
		EntityID:  strconv.FormatInt(jw.ID, 10),
		Meta:      map[string]any{"challan_no": jw.ChallanNo.String(), "vendor_id": jw.VendorID, "qty_sent": jw.QtySent},
	})
	s.metrics.ObserveTransition("job_work", string(JobWorkStatusSent))
	for _, c := range changes {
		s.recordTransition(ctx, companyID, userID, workOrderID, c.from, c.to)
	}
	return s.repo.GetJobWork(ctx, companyID, jw.ID)
}

// ReceiveJobWork books goods returned by the vendor. Received quantity
// counts as completed on the job card; amount is received quantity × rate.
func (s *Service) ReceiveJobWork(ctx context.Context, companyID, id int64, req ReceiveJobWorkRequest, userID int64) (*JobWork, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}

	var received JobWork
	var changes []statusChange
	var workOrderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		first, err := repo.GetJobWork(ctx, companyID, id)
		if err != nil {
			return err
		}
		wo, idx, err := lockCard(ctx, repo, companyID, first.JobCardID)
		if err != nil {
			return err
		}
		workOrderID = wo.ID
		jw, err := repo.GetJobWork(ctx, companyID, id)
		if err != nil {
			return err
		}
		if jw.Status != JobWorkStatusSent && jw.Status != JobWorkStatusPartiallyReceived {
			return fmt.Errorf("%w: job work is %s", ErrInvalidStatus, jw.Status)
		}
		if jw.QtyReceived+req.Qty > jw.QtySent+qtyEpsilon {
			return fmt.Errorf("%w (%v outstanding)", ErrOverReceived, jw.Outstanding())
		}

		from := jw.Status
		now := s.now()
		jw.QtyReceived += req.Qty
		jw.Amount = pricing.Round2(jw.QtyReceived * jw.Rate)
		jw.ReceivedAt = &now
		jw.Status = JobWorkStatusPartiallyReceived
		if jw.Outstanding() <= qtyEpsilon {
			jw.Status = JobWorkStatusReceived
		}
		if err := repo.UpdateJobWork(ctx, *jw, from); err != nil {
			return err
		}
		received = *jw

		changes, err = applyProgress(ctx, repo, wo, idx, req.Qty, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "job_work.receive",
		Entity:    "job_work",
		EntityID:  strconv.FormatInt(id, 10),
		Meta:      map[string]any{"qty": req.Qty, "status": string(received.Status), "amount": received.Amount},
	})
	s.metrics.ObserveTransition("job_work", string(received.Status))
	for _, c := range changes {
		s.recordTransition(ctx, companyID, userID, workOrderID, c.from, c.to)
	}
	return s.repo.GetJobWork(ctx, companyID, id)
}

// CancelJobWork withdraws a challan before anything was received.
func (s *Service) CancelJobWork(ctx context.Context, companyID, id, userID int64) (*JobWork, error) {
	jw, err := s.repo.GetJobWork(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if jw.Status != JobWorkStatusSent {
		return nil, fmt.Errorf("%w: only SENT job work can be cancelled, this one is %s", ErrInvalidStatus, jw.Status)
	}
	jw.Status = JobWorkStatusCancelled
	if err := s.repo.UpdateJobWork(ctx, *jw, JobWorkStatusSent); err != nil {
		return nil, err
	}
	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "job_work.cancel",
		Entity:    "job_work",
		EntityID:  strconv.FormatInt(id, 10),
	})
	s.metrics.ObserveTransition("job_work", string(JobWorkStatusCancelled))
	return s.repo.GetJobWork(ctx, companyID, id)
}

func (s *Service) GetWorkOrder(ctx context.Context, companyID, id int64) (*WorkOrder, error) {
	return s.repo.GetWorkOrder(ctx, companyID, id)
}

func (s *Service) ListWorkOrders(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, 0, err
	}
	return s.repo.ListWorkOrders(ctx, req)
}

func (s *Service) GetJobWork(ctx context.Context, companyID, id int64) (*JobWork, error) {
	return s.repo.GetJobWork(ctx, companyID, id)
}

func (s *Service) ListJobWork(ctx context.Context, req ListJobWorkRequest) ([]JobWorkWithDetails, int, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, 0, err
	}
	return s.repo.ListJobWork(ctx, req)
}

// Summary loads the dashboard counters concurrently.
func (s *Service) Summary(ctx context.Context, companyID int64) (*Summary, error) {
	var sum Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.CountWorkOrders(gctx, companyID)
		if err != nil {
			return fmt.Errorf("count work orders: %w", err)
		}
		sum.WorkOrders = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountJobCards(gctx, companyID)
		if err != nil {
			return fmt.Errorf("count job cards: %w", err)
		}
		sum.JobCards = counts
		return nil
	})
	g.Go(func() error {
		counts, amount, outstanding, err := s.repo.JobWorkTotals(gctx, companyID)
		if err != nil {
			return fmt.Errorf("job work totals: %w", err)
		}
		sum.JobWork, sum.JobWorkAmount, sum.OutstandingQty = counts, pricing.Round2(amount), outstanding
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Service) recordTransition(ctx context.Context, companyID, userID, workOrderID int64, from, to WorkOrderStatus) {
	s.record(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    "work_order." + transitionVerb(to),
		Entity:    "work_order",
		EntityID:  strconv.FormatInt(workOrderID, 10),
		Meta:      map[string]any{"from": string(from), "to": string(to)},
	})
	s.metrics.ObserveTransition("work_order", string(to))
}

func transitionVerb(to WorkOrderStatus) string {
	switch to {
	case WorkOrderStatusReleased:
		return "release"
	case WorkOrderStatusInProgress:
		return "start"
	case WorkOrderStatusCompleted:
		return "complete"
	case WorkOrderStatusCancelled:
		return "cancel"
	default:
		return "update"
	}
}

func (s *Service) record(ctx context.Context, entry wms.AuditLog) {
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
