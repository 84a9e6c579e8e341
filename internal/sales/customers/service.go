package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, companyID int64, req CreateCustomerRequest, createdBy int64) (*Customer, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.Country = normalizeCountry(req.Country)
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := checkJurisdiction(req.Country, req.GSTIN); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(ctx, companyID, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: customer code already exists", ErrAlreadyExists)
	}

	customer := Customer{
		Code:             req.Code,
		Name:             req.Name,
		CompanyID:        companyID,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		GSTIN:            upperPtr(req.GSTIN),
		CreditLimit:      req.CreditLimit,
		PaymentTermsDays: req.PaymentTermsDays,
		AddressLine1:     req.AddressLine1,
		AddressLine2:     req.AddressLine2,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		Country:          req.Country,
		IsActive:         true,
		Notes:            req.Notes,
		CreatedBy:        createdBy,
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, customer)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	customer.ID = id
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateCustomerRequest) (*Customer, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if req.Country != nil {
		country := normalizeCountry(*req.Country)
		req.Country = &country
	}
	country, gstin := existing.Country, existing.GSTIN
	if req.Country != nil {
		country = *req.Country
	}
	if req.GSTIN != nil {
		gstin = req.GSTIN
	}
	if err := checkJurisdiction(country, gstin); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("name", req.Name)
	setString("contact_person", req.ContactPerson)
	setString("email", req.Email)
	setString("phone", req.Phone)
	setString("gstin", upperPtr(req.GSTIN))
	setString("address_line1", req.AddressLine1)
	setString("address_line2", req.AddressLine2)
	setString("city", req.City)
	setString("state", req.State)
	setString("postal_code", req.PostalCode)
	setString("country", req.Country)
	setString("notes", req.Notes)
	if req.CreditLimit != nil {
		updates["credit_limit"] = *req.CreditLimit
	}
	if req.PaymentTermsDays != nil {
		updates["payment_terms_days"] = *req.PaymentTermsDays
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, companyID, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) GenerateCode(ctx context.Context, companyID int64) (string, error) {
	return s.repo.GenerateCode(ctx, companyID)
}

// normalizeCountry maps the spellings forms send for India onto the name the
// pricing engine gates GST and withholding on.
func normalizeCountry(country string) string {
	country = strings.TrimSpace(country)
	switch strings.ToUpper(country) {
	case "IN", "IND", "INDIA":
		return pricing.DomesticCountry
	}
	return country
}

// checkJurisdiction rejects a GSTIN on a customer outside India.
func checkJurisdiction(country string, gstin *string) error {
	if gstin == nil || strings.TrimSpace(*gstin) == "" {
		return nil
	}
	if !pricing.IsDomestic(country) {
		return httpx.Invalid("gstin", "only applies to customers in "+pricing.DomesticCountry)
	}
	return nil
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}
