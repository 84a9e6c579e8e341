package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

func TestFiltersFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=500&search=+bolt+&sort=code&dir=desc&active=true", nil)
	f := FiltersFromRequest(req, 4)

	assert.Equal(t, int64(4), f.CompanyID)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, "bolt", f.Search)
	assert.Equal(t, MaxLimit, f.Offset())
	if assert.NotNil(t, f.IsActive) {
		assert.True(t, *f.IsActive)
	}

	f = FiltersFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), 4)
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Nil(t, f.IsActive)
	assert.Equal(t, 0, f.Offset())
}

func TestSortOrder(t *testing.T) {
	assert.Equal(t, "code DESC", SortOrder("code", "desc", "code", "name"))
	assert.Equal(t, "name ASC", SortOrder("id; DROP TABLE items", "asc", "code", "name"))
}

func TestErrorsMapToHTTP(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, httpx.ErrNotFound))
	assert.True(t, errors.Is(ErrDuplicate, httpx.ErrDuplicate))
	assert.True(t, errors.Is(ErrInvalidID, httpx.ErrValidation))
}
