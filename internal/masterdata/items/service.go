package items

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) Create(ctx context.Context, companyID int64, in ItemInput) (Item, error) {
	in = normalize(in)
	if err := httpx.Validate(in); err != nil {
		return Item{}, err
	}
	item := Item{CompanyID: companyID}
	in.apply(&item)
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return Item{}, err
	}
	shared.Invalidate(ctx, s.catalog, s.logger)
	return created, nil
}

func (s *Service) Update(ctx context.Context, companyID, id int64, in ItemInput) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrInvalidID
	}
	in = normalize(in)
	if err := httpx.Validate(in); err != nil {
		return Item{}, err
	}
	item, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Item{}, err
	}
	in.apply(&item)
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}
	shared.Invalidate(ctx, s.catalog, s.logger)
	return item, nil
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

func normalize(in ItemInput) ItemInput {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.HSNCode = strings.TrimSpace(in.HSNCode)
	in.UOM = strings.ToUpper(strings.TrimSpace(in.UOM))
	return in
}
