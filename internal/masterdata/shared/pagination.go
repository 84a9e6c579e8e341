package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ListFilters represents standard list page filters
type ListFilters struct {
	CompanyID int64
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortDir   string
	IsActive  *bool
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// FiltersFromRequest reads page, limit, search, sort, dir and active query
// parameters.
func FiltersFromRequest(r *http.Request, companyID int64) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	f := ListFilters{
		CompanyID: companyID,
		Page:      page,
		Limit:     limit,
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    q.Get("sort"),
		SortDir:   q.Get("dir"),
	}
	if v, err := strconv.ParseBool(q.Get("active")); err == nil {
		f.IsActive = &v
	}
	return f
}

// ParseID reads the {id} URL parameter.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// SortOrder maps a requested sort column onto an allow-listed ORDER BY clause.
func SortOrder(sortBy, sortDir string, allowed ...string) string {
	dir := "ASC"
	if sortDir == SortDesc {
		dir = "DESC"
	}
	for _, col := range allowed {
		if col == sortBy {
			return col + " " + dir
		}
	}
	return "name " + dir
}

// Page is the JSON envelope of list endpoints.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
