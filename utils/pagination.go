package utils

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page/pageSize query values, falling back to page 1 of 10.
func ParsePage(page, pageSize string) Page {
	p := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(pageSize); err == nil && n > 0 {
		p.Size = n
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// keep (Number-1)*Size representable; such pages are simply empty
	if p.Number-1 > math.MaxInt/p.Size {
		p.Number = math.MaxInt / p.Size
	}
	return p
}

func (p Page) Skip() int64 {
	return int64(p.Number-1) * int64(p.Size)
}

func (p Page) Limit() int64 {
	return int64(p.Size)
}

// Window returns the [start, end) slice bounds of the page inside n items.
func (p Page) Window(n int) (int, int) {
	skip := p.Skip()
	if skip < 0 || skip > int64(n) {
		skip = int64(n)
	}
	start := int(skip)
	end := start + p.Size
	if end > n {
		end = n
	}
	return start, end
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(p Page, total int64) Pagination {
	size := int64(p.Size)
	return Pagination{
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: int((total + size - 1) / size),
	}
}
