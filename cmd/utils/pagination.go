package utils

import (
	"net/http"
	"strconv"
)

// PageParam reads the ?page= query parameter, defaulting to 1.
func PageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

type Pagination struct {
	Page       int
	PageSize   int
	TotalPages int
	TotalCount int64
	HasNext    bool
	HasPrev    bool
	NextPage   int
	PrevPage   int
}

// NewPagination computes paging controls. Pages past the end are left as
// requested so the caller renders an empty page rather than failing.
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	// Past the end, the previous link points at the last real page.
	prevPage := page - 1
	if prevPage > totalPages {
		prevPage = totalPages
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: total,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && totalPages > 0,
		NextPage:   page + 1,
		PrevPage:   prevPage,
	}
}

// Offset is the row offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}
