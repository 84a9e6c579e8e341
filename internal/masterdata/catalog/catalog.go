// Package catalog serves item and process lookups for document lines through
// a version-bumped Redis cache. Master data writes bump the version.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/odyssey-erp/wms/internal/masterdata/items"
	"github.com/odyssey-erp/wms/internal/masterdata/processes"
	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/cache"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
)

// Options lists the active items and processes offered on document forms.
type Options struct {
	Items     []items.Item        `json:"items"`
	Processes []processes.Process `json:"processes"`
}

// Catalog resolves master data referenced by document lines.
type Catalog struct {
	items     items.Repository
	processes processes.Repository
	cache     *cache.Versioned
}

// New builds a catalog over the master data repositories.
func New(itemRepo items.Repository, processRepo processes.Repository, c *cache.Versioned) *Catalog {
	return &Catalog{items: itemRepo, processes: processRepo, cache: c}
}

// Bump invalidates every cached lookup.
func (c *Catalog) Bump(ctx context.Context) error {
	return c.cache.Bump(ctx)
}

// Item returns one item, cached per company.
func (c *Catalog) Item(ctx context.Context, companyID, id int64) (items.Item, error) {
	key, err := c.cache.BuildKey(ctx, "item", strconv.FormatInt(companyID, 10), strconv.FormatInt(id, 10))
	if err != nil {
		return items.Item{}, err
	}
	var it items.Item
	err = c.cache.FetchJSON(ctx, key, &it, func(ctx context.Context) (any, error) {
		return c.items.Get(ctx, companyID, id)
	})
	return it, err
}

// Process returns one process, cached per company.
func (c *Catalog) Process(ctx context.Context, companyID, id int64) (processes.Process, error) {
	key, err := c.cache.BuildKey(ctx, "process", strconv.FormatInt(companyID, 10), strconv.FormatInt(id, 10))
	if err != nil {
		return processes.Process{}, err
	}
	var p processes.Process
	err = c.cache.FetchJSON(ctx, key, &p, func(ctx context.Context) (any, error) {
		return c.processes.Get(ctx, companyID, id)
	})
	return p, err
}

// Options returns the active items and processes of a company.
func (c *Catalog) Options(ctx context.Context, companyID int64) (Options, error) {
	key, err := c.cache.BuildKey(ctx, "options", strconv.FormatInt(companyID, 10))
	if err != nil {
		return Options{}, err
	}
	var opts Options
	err = c.cache.FetchJSON(ctx, key, &opts, func(ctx context.Context) (any, error) {
		active := true
		filters := shared.ListFilters{CompanyID: companyID, IsActive: &active, SortBy: "name"}
		itemList, _, err := c.items.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		processList, _, err := c.processes.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		return Options{Items: itemList, Processes: processList}, nil
	})
	return opts, err
}

// ResolveLines checks that every referenced item and process exists for the
// company and fills blank names, zero rates and zero process costs from the
// master records. Non-zero rates and costs entered on the document are kept.
func (c *Catalog) ResolveLines(ctx context.Context, companyID int64, lines []pricing.LineItem) ([]pricing.LineItem, error) {
	out := make([]pricing.LineItem, len(lines))
	for i, line := range lines {
		if line.ItemID != nil {
			it, err := c.Item(ctx, companyID, *line.ItemID)
			if err != nil {
				return nil, lineError(fmt.Sprintf("lines[%d].item_id", i), err)
			}
			if line.Name == "" {
				line.Name = it.Name
			}
			if line.UnitRate == 0 {
				line.UnitRate = it.DefaultRate
			}
		}
		if line.Processes != nil {
			procs := make([]pricing.ProcessCharge, len(line.Processes))
			for j, pc := range line.Processes {
				if pc.ProcessID != nil {
					p, err := c.Process(ctx, companyID, *pc.ProcessID)
					if err != nil {
						return nil, lineError(fmt.Sprintf("lines[%d].processes[%d].process_id", i, j), err)
					}
					if pc.Name == "" {
						pc.Name = p.Name
					}
					if pc.UnitCost == 0 {
						pc.UnitCost = p.DefaultUnitCost
					}
				}
				procs[j] = pc
			}
			line.Processes = procs
		}
		out[i] = line
	}
	return out, nil
}

func lineError(field string, err error) error {
	if errors.Is(err, httpx.ErrNotFound) {
		return httpx.Invalid(field, "references an unknown record")
	}
	return err
}
