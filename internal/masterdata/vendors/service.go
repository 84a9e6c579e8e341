package vendors

import (
	"context"

	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Vendor, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Vendor, error) {
	if id <= 0 {
		return Vendor{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, in VendorInput) (Vendor, error) {
	in = normalize(in)
	if err := httpx.Validate(in); err != nil {
		return Vendor{}, err
	}
	v := Vendor{CompanyID: companyID}
	apply(&v, in)
	return s.repo.Create(ctx, v)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, in VendorInput) (Vendor, error) {
	if id <= 0 {
		return Vendor{}, shared.ErrInvalidID
	}
	in = normalize(in)
	if err := httpx.Validate(in); err != nil {
		return Vendor{}, err
	}
	v, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Vendor{}, err
	}
	apply(&v, in)
	if err := s.repo.Update(ctx, v); err != nil {
		return Vendor{}, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, companyID, id)
}
