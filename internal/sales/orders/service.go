package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/odyssey-erp/wms/internal/observability"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
	"github.com/odyssey-erp/wms/internal/sales/customers"
	"github.com/odyssey-erp/wms/internal/sales/quotations"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type CustomerPort interface {
	Get(ctx context.Context, companyID, id int64) (*customers.Customer, error)
}

type QuotationPort interface {
	Get(ctx context.Context, companyID, id int64) (*quotations.Quotation, error)
}

type CatalogPort interface {
	ResolveLines(ctx context.Context, companyID int64, lines []pricing.LineItem) ([]pricing.LineItem, error)
}

type AuditPort interface {
	Record(ctx context.Context, log wms.AuditLog) error
}

type Service struct {
	repo      Repository
	customers CustomerPort
	quotes    QuotationPort
	catalog   CatalogPort
	audit     AuditPort
	metrics   *observability.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerPort, quotes QuotationPort, catalog CatalogPort, audit AuditPort, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if audit == nil {
		audit = wms.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		customers: customers,
		quotes:    quotes,
		catalog:   catalog,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateSalesOrderRequest, createdBy int64) (*SalesOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	order := SalesOrder{
		CompanyID:            companyID,
		CustomerID:           req.CustomerID,
		OrderDate:            s.orderDate(req.OrderDate),
		ExpectedDeliveryDate: dateOnlyPtr(req.ExpectedDeliveryDate),
		Status:               SalesOrderStatusDraft,
		Notes:                req.Notes,
		CreatedBy:            createdBy,
	}
	if err := s.price(ctx, &order, req.Lines, req.Tax); err != nil {
		return nil, err
	}
	return s.insert(ctx, order, nil)
}

// CreateFromQuotation turns an approved, unexpired quotation into a draft
// order. Customer, tax parameters and lines are copied and re-priced; the
// quotation becomes CONVERTED in the same transaction.
func (s *Service) CreateFromQuotation(ctx context.Context, companyID, quotationID int64, req ConvertQuotationRequest, createdBy int64) (*SalesOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.quotes.Get(ctx, companyID, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if q.Status != quotations.QuotationStatusApproved {
		return nil, fmt.Errorf("%w: quotation %s is %s, only APPROVED quotations can be converted",
			ErrInvalidStatus, q.DocNumber, q.Status)
	}
	if q.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: quotation %s expired on %s", ErrInvalidStatus, q.DocNumber,
			q.ValidUntil.Format(time.DateOnly))
	}

	order := SalesOrder{
		CompanyID:            companyID,
		CustomerID:           q.CustomerID,
		QuotationID:          &q.ID,
		OrderDate:            s.orderDate(req.OrderDate),
		ExpectedDeliveryDate: dateOnlyPtr(req.ExpectedDeliveryDate),
		Status:               SalesOrderStatusDraft,
		Notes:                req.Notes,
		CreatedBy:            createdBy,
	}
	if order.Notes == nil {
		order.Notes = q.Notes
	}
	if err := s.price(ctx, &order, shared.PricingItems(q.Lines), q.Tax); err != nil {
		return nil, err
	}

	created, err := s.insert(ctx, order, func(ctx context.Context, repo Repository) error {
		return repo.MarkQuotationConverted(ctx, companyID, q.ID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, wms.AuditLog{
		CompanyID: companyID,
		ActorID:   createdBy,
		Action:    "quotation.convert",
		Entity:    "quotation",
		EntityID:  strconv.FormatInt(q.ID, 10),
		Meta:      map[string]any{"sales_order_id": created.ID, "doc_number": created.DocNumber},
	})
	s.metrics.ObserveTransition("quotation", string(quotations.QuotationStatusConverted))
	return created, nil
}

func (s *Service) insert(ctx context.Context, order SalesOrder, afterCreate func(context.Context, Repository) error) (*SalesOrder, error) {
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, order.CompanyID, order.OrderDate)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		order.DocNumber = docNumber
		id, err = repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		if afterCreate != nil {
			return afterCreate(ctx, repo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.ID = id
	s.metrics.ObservePricing("sales_order")
	s.metrics.ObserveTransition("sales_order", string(SalesOrderStatusDraft))
	meta := map[string]any{"doc_number": order.DocNumber}
	if order.QuotationID != nil {
		meta["quotation_id"] = *order.QuotationID
	}
	s.record(ctx, &order, "sales_order.create", order.CreatedBy, meta)
	return s.repo.Get(ctx, order.CompanyID, id)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateSalesOrderRequest, userID int64) (*SalesOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if existing.Status != SalesOrderStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT sales orders can be updated", ErrInvalidStatus)
	}

	updated := *existing
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if req.OrderDate != nil {
		updated.OrderDate = shared.DateOnly(*req.OrderDate)
	}
	if req.ExpectedDeliveryDate != nil {
		updated.ExpectedDeliveryDate = dateOnlyPtr(req.ExpectedDeliveryDate)
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	tax := existing.Tax
	if req.Tax != nil {
		tax = *req.Tax
	}
	items := shared.PricingItems(existing.Lines)
	if req.Lines != nil {
		items = *req.Lines
	}
	if err := s.price(ctx, &updated, items, tax); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, updated); err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, id, updated.Lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update sales order: %w", err)
	}

	s.metrics.ObservePricing("sales_order")
	s.record(ctx, &updated, "sales_order.update", userID, nil)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Confirm(ctx context.Context, companyID, id, userID int64) (*SalesOrder, error) {
	return s.transition(ctx, companyID, id, userID, SalesOrderStatusConfirmed, nil)
}

func (s *Service) StartProduction(ctx context.Context, companyID, id, userID int64) (*SalesOrder, error) {
	return s.transition(ctx, companyID, id, userID, SalesOrderStatusInProduction, nil)
}

func (s *Service) Complete(ctx context.Context, companyID, id, userID int64) (*SalesOrder, error) {
	return s.transition(ctx, companyID, id, userID, SalesOrderStatusCompleted, nil)
}

func (s *Service) Cancel(ctx context.Context, companyID, id, userID int64, req CancelRequest) (*SalesOrder, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, id, userID, SalesOrderStatusCancelled, &req.Reason)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrderWithDetails, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) transition(ctx context.Context, companyID, id, userID int64, to SalesOrderStatus, reason *string) (*SalesOrder, error) {
	o, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: cannot move %s sales order to %s", ErrInvalidStatus, o.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, companyID, id, o.Status, to, userID, reason); err != nil {
		return nil, fmt.Errorf("update sales order status: %w", err)
	}

	meta := map[string]any{"from": string(o.Status), "to": string(to)}
	if reason != nil {
		meta["reason"] = *reason
	}
	s.record(ctx, o, "sales_order.status", userID, meta)
	s.metrics.ObserveTransition("sales_order", string(to))

	return s.repo.Get(ctx, companyID, id)
}

// price validates the order content and fills its tax, totals and lines.
func (s *Service) price(ctx context.Context, order *SalesOrder, items []pricing.LineItem, tax pricing.TaxParameters) error {
	fields := map[string]string{}
	if order.ExpectedDeliveryDate != nil && order.ExpectedDeliveryDate.Before(order.OrderDate) {
		fields["expected_delivery_date"] = "must be on or after order_date"
	}
	if err := shared.ValidateDocument(order.CustomerID, items, tax, fields); err != nil {
		return err
	}
	customer, err := s.customers.Get(ctx, order.CompanyID, order.CustomerID)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return shared.ErrCustomerRequired
		}
		return fmt.Errorf("verify customer: %w", err)
	}
	if s.catalog != nil && len(items) > 0 {
		items, err = s.catalog.ResolveLines(ctx, order.CompanyID, items)
		if err != nil {
			return err
		}
	}
	priced := shared.Price(items, customer.TaxProfile(), tax)
	order.Tax = priced.Tax
	order.Totals = priced.Totals
	order.Lines = priced.Lines
	return nil
}

func (s *Service) orderDate(t time.Time) time.Time {
	if t.IsZero() {
		return shared.DateOnly(s.now())
	}
	return shared.DateOnly(t)
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.DateOnly(*t)
	return &d
}

func (s *Service) record(ctx context.Context, o *SalesOrder, action string, actorID int64, meta map[string]any) {
	s.recordAudit(ctx, wms.AuditLog{
		CompanyID: o.CompanyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "sales_order",
		EntityID:  strconv.FormatInt(o.ID, 10),
		Meta:      meta,
	})
}

func (s *Service) recordAudit(ctx context.Context, log wms.AuditLog) {
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("sales order audit failed",
			slog.String("action", log.Action),
			slog.String("entity_id", log.EntityID),
			slog.Any("error", err))
	}
}
