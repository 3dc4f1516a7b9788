// Package pagination computes page envelopes for listing endpoints.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the requested page is missing or invalid.
	DefaultPage = 1
	// DefaultTake is used when the requested page size is missing or invalid.
	DefaultTake = 10
	// MaxTake caps the page size a caller may request.
	MaxTake = 100
)

// Query is a normalized page request. Page is 1-based; both fields are always positive.
type Query struct {
	Page int
	Take int
}

// Offset returns the number of rows to skip for this page. It saturates at
// math.MaxInt instead of overflowing.
func (q Query) Offset() int {
	if q.OutOfRange() {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Take
}

// OutOfRange reports whether the page starts beyond any addressable row.
// Such a page is always empty and need not be queried.
func (q Query) OutOfRange() bool {
	return q.Take > 0 && q.Page-1 > math.MaxInt/q.Take
}

// Meta describes where a page sits within the full result set.
type Meta struct {
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
	Page        int  `json:"page"`
	Take        int  `json:"take"`
}

// Page is one slice of a listing together with its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// ParseQuery builds a Query from raw query-string values.
func ParseQuery(rawPage, rawTake string) Query {
	return Normalize(parsePositive(rawPage, DefaultPage), parsePositive(rawTake, DefaultTake))
}

// Normalize coerces numeric page parameters, replacing non-positive values with
// defaults and capping take at MaxTake.
func Normalize(page, take int) Query {
	if page <= 0 {
		page = DefaultPage
	}
	if take <= 0 {
		take = DefaultTake
	}
	if take > MaxTake {
		take = MaxTake
	}
	return Query{Page: page, Take: take}
}

// Paginate wraps items with metadata computed from totalItems. The page is not
// clamped to the last page; a page past the end simply carries no items.
func Paginate[T any](items []T, q Query, totalItems int) Page[T] {
	q = Normalize(q.Page, q.Take)
	if totalItems < 0 {
		totalItems = 0
	}
	if items == nil {
		items = []T{}
	}

	totalPages := TotalPages(totalItems, q.Take)
	return Page[T]{
		Items: items,
		Meta: Meta{
			TotalItems:  totalItems,
			TotalPages:  totalPages,
			HasNextPage: q.Page < totalPages,
			HasPrevPage: q.Page > 1,
			Page:        q.Page,
			Take:        q.Take,
		},
	}
}

// TotalPages returns ceil(totalItems/take).
func TotalPages(totalItems, take int) int {
	if take <= 0 || totalItems <= 0 {
		return 0
	}
	return (totalItems + take - 1) / take
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
