package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// PageLimits bounds the page size of one list endpoint.
type PageLimits struct {
	Default int
	Max     int
}

var (
	NotificationPage = PageLimits{Default: 20, Max: 100}
	AuditPage        = PageLimits{Default: 100, Max: 500}
)

// ParsePagination reads limit and offset, ignoring malformed values.
func ParsePagination(r *http.Request, limits PageLimits) Pagination {
	page := Pagination{Limit: limits.Default}
	query := r.URL.Query()
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		page.Limit = min(v, limits.Max)
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	return page
}
