package quotations

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
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

// CustomerPort resolves the customer a document is priced for.
type CustomerPort interface {
	Get(ctx context.Context, companyID, id int64) (*customers.Customer, error)
}

// CatalogPort fills line names and process defaults from master data.
type CatalogPort interface {
	ResolveLines(ctx context.Context, companyID int64, lines []pricing.LineItem) ([]pricing.LineItem, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log wms.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// DefaultValidity applies when a quotation is created without valid_until.
	DefaultValidity time.Duration
}

type Service struct {
	repo      Repository
	customers CustomerPort
	catalog   CatalogPort
	audit     AuditPort
	metrics   *observability.Metrics
	logger    *slog.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

func NewService(repo Repository, customers CustomerPort, catalog CatalogPort, audit AuditPort, metrics *observability.Metrics, logger *slog.Logger, cfg ServiceConfig) *Service {
	if audit == nil {
		audit = wms.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultValidity <= 0 {
		cfg.DefaultValidity = 30 * 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		customers: customers,
		catalog:   catalog,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Preview prices a document without persisting it. The customer is optional;
// without one no domestic taxes apply.
func (s *Service) Preview(ctx context.Context, companyID int64, req PreviewRequest) (*PreviewResponse, error) {
	if err := shared.ValidatePreview(req.Lines, req.Tax); err != nil {
		return nil, err
	}
	var customer *customers.Customer
	if req.CustomerID > 0 {
		c, err := s.loadCustomer(ctx, companyID, req.CustomerID)
		if err != nil {
			return nil, err
		}
		customer = c
	}
	lines, err := s.resolveLines(ctx, companyID, req.Lines)
	if err != nil {
		return nil, err
	}

	res := pricing.Compute(lines, customer.TaxProfile(), req.Tax)
	s.metrics.ObservePricing("preview")

	resp := &PreviewResponse{Result: res}
	if customer != nil {
		resp.CustomerName = customer.Name
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	quoteDate := shared.DateOnly(req.QuoteDate)
	if req.QuoteDate.IsZero() {
		quoteDate = shared.DateOnly(s.now())
	}
	validUntil := shared.DateOnly(req.ValidUntil)
	if req.ValidUntil.IsZero() {
		validUntil = quoteDate.Add(s.cfg.DefaultValidity)
	}

	priced, err := s.price(ctx, companyID, req.CustomerID, quoteDate, validUntil, req.Lines, req.Tax)
	if err != nil {
		return nil, err
	}

	quotation := Quotation{
		CompanyID:  companyID,
		CustomerID: req.CustomerID,
		QuoteDate:  quoteDate,
		ValidUntil: validUntil,
		Status:     QuotationStatusDraft,
		Tax:        priced.Tax,
		Totals:     priced.Totals,
		Notes:      req.Notes,
		CreatedBy:  createdBy,
		Lines:      priced.Lines,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := repo.GenerateNumber(ctx, companyID, quoteDate)
		if err != nil {
			return fmt.Errorf("generate doc number: %w", err)
		}
		quotation.DocNumber = docNumber
		id, err = repo.Create(ctx, quotation)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quotation.ID = id
	s.metrics.ObservePricing("quotation")
	s.record(ctx, &quotation, "quotation.create", createdBy, map[string]any{"doc_number": quotation.DocNumber})
	s.metrics.ObserveTransition("quotation", string(QuotationStatusDraft))

	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateQuotationRequest, userID int64) (*Quotation, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT quotations can be updated", ErrInvalidStatus)
	}

	updated := *existing
	if req.CustomerID != nil {
		updated.CustomerID = *req.CustomerID
	}
	if req.QuoteDate != nil {
		updated.QuoteDate = shared.DateOnly(*req.QuoteDate)
	}
	if req.ValidUntil != nil {
		updated.ValidUntil = shared.DateOnly(*req.ValidUntil)
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

	priced, err := s.price(ctx, companyID, updated.CustomerID, updated.QuoteDate, updated.ValidUntil, items, tax)
	if err != nil {
		return nil, err
	}
	updated.Tax = priced.Tax
	updated.Totals = priced.Totals
	updated.Lines = priced.Lines

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateHeader(ctx, updated); err != nil {
			return err
		}
		return repo.ReplaceLines(ctx, id, updated.Lines)
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}

	s.metrics.ObservePricing("quotation")
	s.record(ctx, &updated, "quotation.update", userID, nil)
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Submit(ctx context.Context, companyID, id, userID int64) (*Quotation, error) {
	return s.transition(ctx, companyID, id, userID, QuotationStatusSubmitted, nil)
}

func (s *Service) Approve(ctx context.Context, companyID, id, userID int64) (*Quotation, error) {
	return s.transition(ctx, companyID, id, userID, QuotationStatusApproved, nil)
}

func (s *Service) Reject(ctx context.Context, companyID, id, userID int64, req RejectRequest) (*Quotation, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, companyID, id, userID, QuotationStatusRejected, &req.Reason)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithDetails, int, error) {
	return s.repo.List(ctx, req)
}

// ExpireDue moves open quotations past their validity to EXPIRED and returns
// how many were moved.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	refs, err := s.repo.ExpireDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, ref := range refs {
		q := &Quotation{ID: ref.ID, CompanyID: ref.CompanyID, DocNumber: ref.DocNumber}
		s.record(ctx, q, "quotation.expire", 0, map[string]any{
			"from": string(ref.FromStatus),
			"to":   string(QuotationStatusExpired),
		})
		s.metrics.ObserveTransition("quotation", string(QuotationStatusExpired))
	}
	return len(refs), nil
}

func (s *Service) transition(ctx context.Context, companyID, id, userID int64, to QuotationStatus, reason *string) (*Quotation, error) {
	q, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if !q.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: cannot move %s quotation to %s", ErrInvalidStatus, q.Status, to)
	}
	if (to == QuotationStatusSubmitted || to == QuotationStatusApproved) && q.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: quotation expired on %s", ErrInvalidStatus, q.ValidUntil.Format(time.DateOnly))
	}

	if err := s.repo.UpdateStatus(ctx, companyID, id, q.Status, to, userID, reason); err != nil {
		return nil, fmt.Errorf("update quotation status: %w", err)
	}

	meta := map[string]any{"from": string(q.Status), "to": string(to)}
	if reason != nil {
		meta["reason"] = *reason
	}
	s.record(ctx, q, "quotation."+transitionVerb(to), userID, meta)
	s.metrics.ObserveTransition("quotation", string(to))

	return s.repo.Get(ctx, companyID, id)
}

func transitionVerb(to QuotationStatus) string {
	switch to {
	case QuotationStatusSubmitted:
		return "submit"
	case QuotationStatusApproved:
		return "approve"
	case QuotationStatusRejected:
		return "reject"
	case QuotationStatusConverted:
		return "convert"
	case QuotationStatusExpired:
		return "expire"
	}
	return "update"
}

// price validates the editable content of a quotation and runs the engine.
func (s *Service) price(ctx context.Context, companyID, customerID int64, quoteDate, validUntil time.Time, items []pricing.LineItem, tax pricing.TaxParameters) (shared.Priced, error) {
	fields := map[string]string{}
	if validUntil.Before(quoteDate) {
		fields["valid_until"] = "must be on or after quote_date"
	}
	if err := shared.ValidateDocument(customerID, items, tax, fields); err != nil {
		return shared.Priced{}, err
	}
	customer, err := s.loadCustomer(ctx, companyID, customerID)
	if err != nil {
		return shared.Priced{}, err
	}
	lines, err := s.resolveLines(ctx, companyID, items)
	if err != nil {
		return shared.Priced{}, err
	}
	return shared.Price(lines, customer.TaxProfile(), tax), nil
}

func (s *Service) loadCustomer(ctx context.Context, companyID, customerID int64) (*customers.Customer, error) {
	c, err := s.customers.Get(ctx, companyID, customerID)
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, shared.ErrCustomerRequired
		}
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	return c, nil
}

func (s *Service) resolveLines(ctx context.Context, companyID int64, items []pricing.LineItem) ([]pricing.LineItem, error) {
	if s.catalog == nil || len(items) == 0 {
		return items, nil
	}
	return s.catalog.ResolveLines(ctx, companyID, items)
}

func (s *Service) record(ctx context.Context, q *Quotation, action string, actorID int64, meta map[string]any) {
	err := s.audit.Record(ctx, wms.AuditLog{
		CompanyID: q.CompanyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "quotation",
		EntityID:  strconv.FormatInt(q.ID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("quotation audit failed",
			slog.String("action", action),
			slog.Int64("quotation_id", q.ID),
			slog.Any("error", err))
	}
}
