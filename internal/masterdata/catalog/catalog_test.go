package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/wms/internal/masterdata/items"
	"github.com/odyssey-erp/wms/internal/masterdata/processes"
	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/cache"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/pricing"
)

type stubItems struct {
	items.Repository
	byID  map[int64]items.Item
	gets  int
	lists int
}

func (s *stubItems) Get(_ context.Context, companyID, id int64) (items.Item, error) {
	s.gets++
	it, ok := s.byID[id]
	if !ok || it.CompanyID != companyID {
		return items.Item{}, fmt.Errorf("item %d: %w", id, shared.ErrNotFound)
	}
	return it, nil
}

func (s *stubItems) List(context.Context, shared.ListFilters) ([]items.Item, int, error) {
	s.lists++
	out := make([]items.Item, 0, len(s.byID))
	for _, it := range s.byID {
		out = append(out, it)
	}
	return out, len(out), nil
}

type stubProcesses struct {
	processes.Repository
	byID map[int64]processes.Process
}

func (s *stubProcesses) Get(_ context.Context, companyID, id int64) (processes.Process, error) {
	p, ok := s.byID[id]
	if !ok || p.CompanyID != companyID {
		return processes.Process{}, fmt.Errorf("process %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (s *stubProcesses) List(context.Context, shared.ListFilters) ([]processes.Process, int, error) {
	out := make([]processes.Process, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func ptr(v int64) *int64 { return &v }

func newTestCatalog(t *testing.T) (*Catalog, *stubItems) {
	t.Helper()
	c, it, _ := newTestCatalogWithRedis(t)
	return c, it
}

func newTestCatalogWithRedis(t *testing.T) (*Catalog, *stubItems, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	it := &stubItems{byID: map[int64]items.Item{
		10: {ID: 10, CompanyID: 1, Code: "SHAFT", Name: "Drive shaft", DefaultRate: 450, IsActive: true},
	}}
	pr := &stubProcesses{byID: map[int64]processes.Process{
		20: {ID: 20, CompanyID: 1, Code: "GRIND", Name: "Cylindrical grinding", DefaultUnitCost: 60, IsActive: true},
	}}
	return New(it, pr, cache.NewVersioned(client, "catalog", time.Minute)), it, mr
}

func TestCatalog_ItemIsCachedUntilBump(t *testing.T) {
	ctx := context.Background()
	c, it := newTestCatalog(t)

	first, err := c.Item(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Drive shaft", first.Name)

	_, err = c.Item(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, it.gets)

	it.byID[10] = items.Item{ID: 10, CompanyID: 1, Name: "Drive shaft v2"}
	require.NoError(t, c.Bump(ctx))

	second, err := c.Item(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Drive shaft v2", second.Name)
	assert.Equal(t, 2, it.gets)
}

func TestCatalog_ResolveLines(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	lines := []pricing.LineItem{{
		ItemID:   ptr(10),
		Quantity: 2,
		UnitRate: 400,
		Processes: []pricing.ProcessCharge{
			{ProcessID: ptr(20), UnitCost: 55, Quantity: 2},
			{Name: "Packing", UnitCost: 5, Quantity: 1},
		},
	}}

	resolved, err := c.ResolveLines(ctx, 1, lines)
	require.NoError(t, err)
	assert.Equal(t, "Drive shaft", resolved[0].Name)
	assert.Equal(t, 400.0, resolved[0].UnitRate)
	assert.Equal(t, "Cylindrical grinding", resolved[0].Processes[0].Name)
	assert.Equal(t, 55.0, resolved[0].Processes[0].UnitCost)
	assert.Equal(t, "Packing", resolved[0].Processes[1].Name)
	assert.Empty(t, lines[0].Name)
}

func TestCatalog_ResolveLinesDefaultsFromMasterData(t *testing.T) {
	c, _ := newTestCatalog(t)

	resolved, err := c.ResolveLines(context.Background(), 1, []pricing.LineItem{{
		ItemID:    ptr(10),
		Quantity:  3,
		Processes: []pricing.ProcessCharge{{ProcessID: ptr(20), Quantity: 1}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 450.0, resolved[0].UnitRate)
	assert.Equal(t, 60.0, resolved[0].Processes[0].UnitCost)

	res := pricing.Compute(resolved, nil, pricing.TaxParameters{}.WithDefaults())
	assert.Equal(t, 1410.0, res.BaseAmount)
}

func TestCatalog_ResolveLinesWithoutRedis(t *testing.T) {
	c, it, mr := newTestCatalogWithRedis(t)
	mr.Close()

	resolved, err := c.ResolveLines(context.Background(), 1, []pricing.LineItem{{ItemID: ptr(10), Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, "Drive shaft", resolved[0].Name)
	assert.Equal(t, 1, it.gets)

	_, err = c.Options(context.Background(), 1)
	require.NoError(t, err)
	assert.Error(t, c.Bump(context.Background()), "bump failures surface to the logging caller")
}

func TestCatalog_ResolveLinesUnknownReference(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.ResolveLines(context.Background(), 2, []pricing.LineItem{{ItemID: ptr(10), Quantity: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	var verr *httpx.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "lines[0].item_id")

	_, err = c.ResolveLines(context.Background(), 1, []pricing.LineItem{{
		Quantity:  1,
		Processes: []pricing.ProcessCharge{{ProcessID: ptr(99), Quantity: 1}},
	}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "lines[0].processes[0].process_id")
}

func TestCatalog_Options(t *testing.T) {
	ctx := context.Background()
	c, it := newTestCatalog(t)

	opts, err := c.Options(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, opts.Items, 1)
	assert.Len(t, opts.Processes, 1)

	_, err = c.Options(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, it.lists)
}
