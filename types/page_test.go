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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrder(t *testing.T) {
	cases := []struct {
		in   string
		want Order
	}{
		{"id", Order{Column: "id"}},
		{"Title desc", Order{Column: "title", Desc: true}},
		{"  created_at   ASC ", Order{Column: "created_at"}},
	}
	for _, c := range cases {
		got, err := ParseOrder(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "id; DROP TABLE stories", "id sideways", "a b c", "1id"} {
		_, err := ParseOrder(bad)
		assert.Error(t, err, bad)
	}
}

func TestOrderDirection(t *testing.T) {
	assert.Equal(t, "ASC", Order{Column: "id"}.Direction())
	assert.Equal(t, "DESC", Order{Column: "id", Desc: true}.Direction())
}

func TestPageRequestBounds(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())

	p = NewDefaultPageRequest(3, MaxPageSize+1)
	assert.Equal(t, MaxPageSize, p.GetPageSize())
	assert.Equal(t, 2*MaxPageSize, p.GetOffset())
}

func TestPageRequestWithFilterKeepsOriginal(t *testing.T) {
	p := NewPageRequestWithOrders(2, 10, []string{"title DESC"})
	narrowed := p.WithFilter(NewQueryFilter("s.epic_id = ?", 4))

	assert.Nil(t, p.GetFilter())
	require.NotNil(t, narrowed.GetFilter())
	assert.Equal(t, []interface{}{4}, narrowed.GetFilter().Args)
	assert.Equal(t, p.GetOrders(), narrowed.GetOrders())
	assert.Equal(t, 10, narrowed.GetOffset())

	orders, err := narrowed.ParsedOrders()
	require.NoError(t, err)
	assert.Equal(t, []Order{{Column: "title", Desc: true}}, orders)

	_, err = NewPageRequestWithOrders(1, 10, []string{"title; --"}).ParsedOrders()
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, c := range cases {
		p := &Pagination[int]{PageSize: c.size, Total: c.total}
		assert.Equal(t, c.want, p.TotalPages(), "total=%d size=%d", c.total, c.size)
	}
}

func TestMapPagination(t *testing.T) {
	one, two := 1, 2
	src := &Pagination[int]{Page: 2, PageSize: 2, Total: 4, Items: []*int{&one, &two}}

	dst := MapPagination(src, func(v *int) *string {
		s := strconv.Itoa(*v * 10)
		return &s
	})
	assert.Equal(t, 2, dst.Page)
	assert.Equal(t, 2, dst.PageSize)
	assert.Equal(t, 4, dst.Total)
	require.Len(t, dst.Items, 2)
	assert.Equal(t, "10", *dst.Items[0])
	assert.Equal(t, "20", *dst.Items[1])

	empty := MapPagination(NewDefaultPagination[int](1, 5), func(v *int) *int { return v })
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("assignee_id"))
	assert.False(t, IsIdentifier("s.id"))
	assert.False(t, IsIdentifier(""))
}
