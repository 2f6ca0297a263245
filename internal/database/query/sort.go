package query

import (
	"cmp"
	"fmt"
	"time"
)

// SortDirection represents the order in which a sort key is applied.
//
//go:generate go tool enumer -type=SortDirection -trimprefix=SortDirection
type SortDirection int

const (
	SortDirectionAscending SortDirection = iota
	SortDirectionDescending
)

// SortingCriteria names a sortable property and the direction to sort it in.
// A list of criteria is applied in order, the first entry having the highest priority.
type SortingCriteria struct {
	PropertyName string
	Direction    SortDirection
}

// SortKey is a resolved sorting criteria entry.
type SortKey[K any] struct {
	Key       K
	Direction SortDirection
}

// Registry maps the closed set of sortable property names to typed sort keys.
type Registry[K any] map[string]K

// Resolve looks up every criteria entry, failing on the first unknown name.
func (r Registry[K]) Resolve(criteria []SortingCriteria) ([]SortKey[K], error) {
	keys := make([]SortKey[K], 0, len(criteria))
	for _, c := range criteria {
		if !c.Direction.IsASortDirection() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidSortDirection, c.Direction)
		}

		key, ok := r[c.PropertyName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortProperty, c.PropertyName)
		}

		keys = append(keys, SortKey[K]{Key: key, Direction: c.Direction})
	}
	return keys, nil
}

// Comparator orders two records. It returns a negative number when a sorts before b.
type Comparator[T any] func(a, b T) int

// In returns the comparator adjusted for the given direction.
func (c Comparator[T]) In(direction SortDirection) Comparator[T] {
	if direction == SortDirectionDescending {
		return func(a, b T) int { return c(b, a) }
	}
	return c
}

// Then composes comparators so later ones only break ties of earlier ones.
func Then[T any](cmps ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// By compares records on an ordered field.
func By[T any, V cmp.Ordered](get func(T) V) Comparator[T] {
	return func(a, b T) int {
		return cmp.Compare(get(a), get(b))
	}
}

// ByOptional compares records on an optional ordered field. Absent values sort first.
func ByOptional[T any, V cmp.Ordered](get func(T) *V) Comparator[T] {
	return func(a, b T) int {
		va, vb := get(a), get(b)
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return -1
		case vb == nil:
			return 1
		}
		return cmp.Compare(*va, *vb)
	}
}

// ByTime compares records on a timestamp.
func ByTime[T any](get func(T) time.Time) Comparator[T] {
	return func(a, b T) int {
		return get(a).Compare(get(b))
	}
}

// ByOptionalTime compares records on an optional timestamp. Absent values sort first.
func ByOptionalTime[T any](get func(T) *time.Time) Comparator[T] {
	return func(a, b T) int {
		ta, tb := get(a), get(b)
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return -1
		case tb == nil:
			return 1
		}
		return ta.Compare(*tb)
	}
}
