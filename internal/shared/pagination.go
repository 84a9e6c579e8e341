package shared

import (
	"math"
	"net/http"
	"strconv"
)

const maxPerPage = 200

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageFromRequest reads page and per_page query parameters and returns the
// normalised limit and offset.
func PageFromRequest(r *http.Request) (limit, offset int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	p := NewPagination(page, perPage, 0)
	return p.PerPage, (p.Page - 1) * p.PerPage
}

// PageOf converts a limit/offset pair back into pagination metadata.
func PageOf(limit, offset, total int) Pagination {
	if limit <= 0 {
		limit = 20
	}
	return NewPagination(offset/limit+1, limit, total)
}
