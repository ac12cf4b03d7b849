// Package page holds the shared page and sort contract of list and aggregate
// queries: zero based pages, a bounded page size, count and total count
package page

import (
	"strings"

	perr "insightsdb/internal/platform/errors"
)

const (
	// DefaultPageSize applies when a request leaves page size unset
	DefaultPageSize = 100
	// MaxPageSize caps any requested page size
	MaxPageSize = 1000
)

// Order is a sort direction
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts asc, desc, and the boolean desc flag spelling
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending", "false":
		return Asc, nil
	case "desc", "descending", "true":
		return Desc, nil
	}
	return "", perr.WithField(perr.Configf("unknown sort order %q", s), "sort")
}

// Sort orders by one field
type Sort struct {
	Field string `json:"id" yaml:"id" validate:"required"`
	Desc  bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// Order returns the direction of s
func (s Sort) Order() Order {
	if s.Desc {
		return Desc
	}
	return Asc
}

// Request is a page request
type Request struct {
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"page_size" validate:"gte=0"`
	Sort     []Sort `json:"sort,omitempty" validate:"dive"`
}

// Normalize applies the default and ceiling to the page size and clamps the page
func (r Request) Normalize(def, max int) Request {
	if def <= 0 {
		def = DefaultPageSize
	}
	if max <= 0 {
		max = MaxPageSize
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.PageSize <= 0 {
		r.PageSize = def
	}
	if r.PageSize > max {
		r.PageSize = max
	}
	return r
}

// Offset is the number of rows before this page
func (r Request) Offset() int { return r.Page * r.PageSize }

// Response is a page of records with the match total
type Response[T any] struct {
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
	Records    []T `json:"records"`
}

// Of builds a response from a page of records and the overall total
func Of[T any](records []T, total int) Response[T] {
	if records == nil {
		records = []T{}
	}
	return Response[T]{Count: len(records), TotalCount: total, Records: records}
}

// Slice pages an already sorted, fully materialized result
func Slice[T any](all []T, r Request) Response[T] {
	total := len(all)
	lo := r.Offset()
	if lo >= total || r.PageSize <= 0 {
		return Of[T](nil, total)
	}
	hi := lo + r.PageSize
	if hi > total {
		hi = total
	}
	return Of(all[lo:hi:hi], total)
}

// Empty is the well formed empty page
func Empty[T any]() Response[T] { return Of[T](nil, 0) }
