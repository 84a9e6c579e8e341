package processes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

type Service struct {
	repo    Repository
	catalog shared.Invalidator
	logger  *slog.Logger
}

func NewService(repo Repository, catalog shared.Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Process, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Process, error) {
	if id <= 0 {
		return Process{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, in ProcessInput) (Process, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate(in); err != nil {
		return Process{}, err
	}
	p := Process{CompanyID: companyID}
	apply(&p, in)
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Process{}, err
	}
	shared.Invalidate(ctx, s.catalog, s.logger)
	return created, nil
}

func (s *Service) Update(ctx context.Context, companyID, id int64, in ProcessInput) (Process, error) {
	if id <= 0 {
		return Process{}, shared.ErrInvalidID
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if err := httpx.Validate(in); err != nil {
		return Process{}, err
	}
	p, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Process{}, err
	}
	apply(&p, in)
	if err := s.repo.Update(ctx, p); err != nil {
		return Process{}, err
	}
	shared.Invalidate(ctx, s.catalog, s.logger)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return err
	}
	shared.Invalidate(ctx, s.catalog, s.logger)
	return nil
}

func apply(p *Process, in ProcessInput) {
	p.Code = in.Code
	p.Name = in.Name
	p.DefaultUnitCost = in.DefaultUnitCost
	p.Description = in.Description
	p.IsOutsourced = in.IsOutsourced
	p.IsActive = in.IsActive == nil || *in.IsActive
}
