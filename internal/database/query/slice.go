package query

import "slices"

// Slice is an in-memory record collection that supports the same
// filter, sort and page steps the SQL builder does.
type Slice[T any] []T

// Where returns the records matching pred. The receiver is left untouched.
func (s Slice[T]) Where(pred func(T) bool) Slice[T] {
	out := make(Slice[T], 0, len(s))
	for _, item := range s {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortBy returns a stably sorted copy of the records.
func (s Slice[T]) SortBy(cmps ...Comparator[T]) Slice[T] {
	out := slices.Clone(s)
	if len(cmps) == 0 {
		return out
	}
	slices.SortStableFunc(out, Then(cmps...))
	return out
}

// Page returns the window selected by p. Offsets past the end yield an empty page.
func (s Slice[T]) Page(p PagingCriteria) Slice[T] {
	if p.FirstRecordIndex >= len(s) {
		return Slice[T]{}
	}
	end := min(p.FirstRecordIndex+p.PageSize, len(s))
	return s[p.FirstRecordIndex:end]
}
