/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultPageSize = 20
	// MaxPageSize caps every page; larger requests are served MaxPageSize
	// rows and report that size in Pagination.PageSize.
	MaxPageSize = 500
)

var orderColumnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// IsIdentifier reports whether s is a plain SQL identifier.
func IsIdentifier(s string) bool {
	return orderColumnPattern.MatchString(s)
}

// Order is a single parsed sort instruction.
type Order struct {
	Column string
	Desc   bool
}

// Direction returns the SQL keyword for the sort direction.
func (o Order) Direction() string {
	if o.Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseOrder parses "column", "column ASC" or "column DESC". The column must be
// a plain identifier.
func ParseOrder(s string) (Order, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 || len(parts) > 2 {
		return Order{}, fmt.Errorf("invalid sort order %q", s)
	}
	if !orderColumnPattern.MatchString(parts[0]) {
		return Order{}, fmt.Errorf("invalid sort column %q", parts[0])
	}
	o := Order{Column: strings.ToLower(parts[0])}
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case "ASC":
		case "DESC":
			o.Desc = true
		default:
			return Order{}, fmt.Errorf("invalid sort direction %q", parts[1])
		}
	}
	return o, nil
}

// PageRequest describes pagination, optional filter, and ordering.
// Pages are numbered from 1.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "id ASC", "title DESC"
}

// GetPageSize returns the requested size, with values below 1 replaced by
// DefaultPageSize and values above MaxPageSize clamped to it.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	if p.pageSize > MaxPageSize {
		p.pageSize = MaxPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// ParsedOrders validates and parses every order of the request.
func (p *PageRequest) ParsedOrders() ([]Order, error) {
	orders := make([]Order, 0, len(p.orders))
	for _, s := range p.orders {
		o, err := ParseOrder(s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// WithFilter returns a copy of the request narrowed by filter.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	return &PageRequest{p.page, p.pageSize, filter, p.orders}
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]string, 0))
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// TotalPages returns the number of pages needed to hold Total items.
func (p *Pagination[T]) TotalPages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

// MapPagination converts the items of a page while keeping its metadata.
func MapPagination[S any, D any](src *Pagination[S], fn func(*S) *D) *Pagination[D] {
	dst := NewDefaultPagination[D](src.Page, src.PageSize)
	dst.Total = src.Total
	for _, item := range src.Items {
		dst.Items = append(dst.Items, fn(item))
	}
	return dst
}
