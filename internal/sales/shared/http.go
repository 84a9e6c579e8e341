package shared

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
)

// ParseID reads the {id} route parameter, answering 400 when it is not a
// positive integer.
func ParseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.Invalid("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// QueryInt64 returns a positive integer query parameter or nil.
func QueryInt64(q url.Values, key string) *int64 {
	v, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// QueryDate parses a YYYY-MM-DD query parameter or returns nil.
func QueryDate(q url.Values, key string) *time.Time {
	t, err := time.Parse(time.DateOnly, q.Get(key))
	if err != nil {
		return nil
	}
	return &t
}
