package query_test

import (
	"testing"

	"github.com/robalyx/warden/internal/database/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	id    int
	name  string
	score *int
}

func intPtr(v int) *int { return &v }

func TestChainSkipsInactiveFilters(t *testing.T) {
	t.Parallel()

	var applied []string
	step := func(name string) func(query.Slice[int]) query.Slice[int] {
		return func(s query.Slice[int]) query.Slice[int] {
			applied = append(applied, name)
			return s
		}
	}

	query.Chain(query.Slice[int]{1, 2, 3},
		query.FilterBy(step("first"), true),
		query.FilterBy(step("skipped"), false),
		query.FilterBy(step("second"), true),
	)

	assert.Equal(t, []string{"first", "second"}, applied)
}

func TestChainComposesWithAnd(t *testing.T) {
	t.Parallel()

	result := query.Chain(query.Slice[int]{1, 2, 3, 4, 5, 6},
		query.FilterBy(query.Match(func(v int) bool { return v%2 == 0 }), true),
		query.FilterBy(query.Match(func(v int) bool { return v > 2 }), true),
	)

	assert.Equal(t, query.Slice[int]{4, 6}, result)
}

func TestSliceSortBy(t *testing.T) {
	t.Parallel()

	records := query.Slice[record]{
		{id: 3, name: "b", score: intPtr(2)},
		{id: 1, name: "a", score: nil},
		{id: 2, name: "b", score: intPtr(1)},
		{id: 4, name: "a", score: intPtr(5)},
	}

	byName := query.By(func(r record) string { return r.name })
	byScore := query.ByOptional(func(r record) *int { return r.score })
	byID := query.By(func(r record) int { return r.id })

	ids := func(s query.Slice[record]) []int {
		out := make([]int, len(s))
		for i, r := range s {
			out[i] = r.id
		}
		return out
	}

	tests := []struct {
		name string
		cmps []query.Comparator[record]
		want []int
	}{
		{
			name: "no comparators keeps order",
			want: []int{3, 1, 2, 4},
		},
		{
			name: "single key is stable",
			cmps: []query.Comparator[record]{byName},
			want: []int{1, 4, 3, 2},
		},
		{
			name: "secondary key breaks ties",
			cmps: []query.Comparator[record]{byName.In(query.SortDirectionDescending), byID},
			want: []int{2, 3, 1, 4},
		},
		{
			name: "absent values sort first ascending",
			cmps: []query.Comparator[record]{byScore},
			want: []int{1, 2, 3, 4},
		},
		{
			name: "absent values sort last descending",
			cmps: []query.Comparator[record]{byScore.In(query.SortDirectionDescending)},
			want: []int{4, 3, 2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(records.SortBy(tt.cmps...)))
		})
	}

	assert.Equal(t, []int{3, 1, 2, 4}, ids(records), "receiver must stay untouched")
}

func TestSlicePage(t *testing.T) {
	t.Parallel()

	s := query.Slice[int]{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		paging query.PagingCriteria
		want   query.Slice[int]
	}{
		{"first page", query.PagingCriteria{FirstRecordIndex: 0, PageSize: 2}, query.Slice[int]{0, 1}},
		{"last partial page", query.PagingCriteria{FirstRecordIndex: 4, PageSize: 2}, query.Slice[int]{4}},
		{"past the end", query.PagingCriteria{FirstRecordIndex: 5, PageSize: 2}, query.Slice[int]{}},
		{"oversized page", query.PagingCriteria{FirstRecordIndex: 1, PageSize: 100}, query.Slice[int]{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Page(tt.paging))
		})
	}
}

func TestPagingValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, query.PagingCriteria{FirstRecordIndex: 0, PageSize: 1}.Validate())

	for _, p := range []query.PagingCriteria{
		{FirstRecordIndex: -1, PageSize: 10},
		{FirstRecordIndex: 0, PageSize: 0},
		{FirstRecordIndex: 0, PageSize: -5},
	} {
		err := p.Validate()
		require.ErrorIs(t, err, query.ErrInvalidPaging)
		require.ErrorIs(t, err, query.ErrInvalidInput)
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := query.Registry[string]{"name": "t.name", "id": "t.id"}

	keys, err := registry.Resolve([]query.SortingCriteria{
		{PropertyName: "name", Direction: query.SortDirectionDescending},
		{PropertyName: "id"},
	})
	require.NoError(t, err)
	assert.Equal(t, []query.SortKey[string]{
		{Key: "t.name", Direction: query.SortDirectionDescending},
		{Key: "t.id", Direction: query.SortDirectionAscending},
	}, keys)

	_, err = registry.Resolve([]query.SortingCriteria{{PropertyName: "missing"}})
	require.ErrorIs(t, err, query.ErrUnknownSortProperty)
	require.ErrorIs(t, err, query.ErrInvalidInput)

	_, err = registry.Resolve([]query.SortingCriteria{{PropertyName: "id", Direction: query.SortDirection(7)}})
	require.ErrorIs(t, err, query.ErrInvalidSortDirection)
}
