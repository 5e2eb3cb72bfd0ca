package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxPageSize caps the limit query parameter
const MaxPageSize = 100

// Pagination is the page/limit pair read from the query string, plus the
// totals reported back to the client.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"per_page"`
	Offset     int   `json:"-"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPagination reads page and limit, falling back to 1 and 10
func NewPagination(c *gin.Context) *Pagination {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	return &Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// SetTotal records the total item count and derives the page count
func (p *Pagination) SetTotal(total int64) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
}
