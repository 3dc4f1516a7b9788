package pagination

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		take     string
		wantPage int
		wantTake int
	}{
		{name: "absent", page: "", take: "", wantPage: 1, wantTake: 10},
		{name: "non numeric", page: "abc", take: "ten", wantPage: 1, wantTake: 10},
		{name: "zero", page: "0", take: "0", wantPage: 1, wantTake: 10},
		{name: "negative", page: "-3", take: "-1", wantPage: 1, wantTake: 10},
		{name: "fractional", page: "2.5", take: "1.5", wantPage: 1, wantTake: 10},
		{name: "valid", page: "3", take: "25", wantPage: 3, wantTake: 25},
		{name: "padded", page: " 2 ", take: " 5", wantPage: 2, wantTake: 5},
		{name: "take at cap", page: "1", take: "100", wantPage: 1, wantTake: MaxTake},
		{name: "take above cap", page: "1", take: "101", wantPage: 1, wantTake: MaxTake},
		{name: "take max int", page: "1", take: "9223372036854775807", wantPage: 1, wantTake: MaxTake},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.page, tt.take)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantTake, q.Take)
		})
	}
}

func TestPaginateMeta(t *testing.T) {
	tests := []struct {
		name  string
		q     Query
		total int
		want  Meta
	}{
		{
			name:  "second and last page of fifteen",
			q:     Query{Page: 2, Take: 10},
			total: 15,
			want:  Meta{TotalItems: 15, TotalPages: 2, HasNextPage: false, HasPrevPage: true, Page: 2, Take: 10},
		},
		{
			name:  "first page with more to come",
			q:     Query{Page: 1, Take: 10},
			total: 15,
			want:  Meta{TotalItems: 15, TotalPages: 2, HasNextPage: true, HasPrevPage: false, Page: 1, Take: 10},
		},
		{
			name:  "empty collection",
			q:     Query{Page: 1, Take: 10},
			total: 0,
			want:  Meta{TotalItems: 0, TotalPages: 0, HasNextPage: false, HasPrevPage: false, Page: 1, Take: 10},
		},
		{
			name:  "exact multiple",
			q:     Query{Page: 2, Take: 5},
			total: 10,
			want:  Meta{TotalItems: 10, TotalPages: 2, HasNextPage: false, HasPrevPage: true, Page: 2, Take: 5},
		},
		{
			name:  "past the end is not clamped",
			q:     Query{Page: 9, Take: 10},
			total: 15,
			want:  Meta{TotalItems: 15, TotalPages: 2, HasNextPage: false, HasPrevPage: true, Page: 9, Take: 10},
		},
		{
			name:  "invalid query normalized",
			q:     Query{Page: 0, Take: -4},
			total: 3,
			want:  Meta{TotalItems: 3, TotalPages: 1, HasNextPage: false, HasPrevPage: false, Page: 1, Take: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate([]int(nil), tt.q, tt.total)
			require.Empty(t, cmp.Diff(tt.want, got.Meta))
			require.NotNil(t, got.Items)
		})
	}
}

func TestTotalPagesIsCeiling(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for take := 1; take <= 12; take++ {
			want := total / take
			if total%take != 0 {
				want++
			}
			got := TotalPages(total, take)
			require.Equal(t, want, got, "total=%d take=%d", total, take)

			for page := want; page <= want+2; page++ {
				meta := Paginate([]struct{}{}, Query{Page: page, Take: take}, total).Meta
				require.False(t, meta.HasNextPage, "page %d of %d", page, want)
			}
		}
	}
}

func TestQueryOffset(t *testing.T) {
	assert.Equal(t, 0, Query{Page: 1, Take: 10}.Offset())
	assert.Equal(t, 10, Query{Page: 2, Take: 10}.Offset())
	assert.Equal(t, 40, Query{Page: 5, Take: 10}.Offset())
	assert.False(t, Query{Page: 5, Take: 10}.OutOfRange())
}

func TestQueryOffsetDoesNotOverflow(t *testing.T) {
	q := ParseQuery("9223372036854775807", "10")
	require.True(t, q.OutOfRange())
	assert.Equal(t, math.MaxInt, q.Offset())

	edge := Query{Page: math.MaxInt/MaxTake + 1, Take: MaxTake}
	assert.False(t, edge.OutOfRange())
	assert.GreaterOrEqual(t, edge.Offset(), 0)
	assert.True(t, Query{Page: edge.Page + 1, Take: MaxTake}.OutOfRange())
}

func TestNormalizeCapsTake(t *testing.T) {
	assert.Equal(t, Query{Page: 2, Take: MaxTake}, Normalize(2, 5000))
	assert.Equal(t, Query{Page: 1, Take: DefaultTake}, Normalize(-1, 0))
}
