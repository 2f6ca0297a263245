package query

// Filter is one optional step of a filter chain. Inactive filters are skipped
// entirely so an absent criteria field never constrains the result.
type Filter[Q any] struct {
	Active bool
	Apply  func(Q) Q
}

// FilterBy creates a filter step that only applies when active is true.
func FilterBy[Q any](apply func(Q) Q, active bool) Filter[Q] {
	return Filter[Q]{Active: active, Apply: apply}
}

// Chain applies the active filters to q from left to right.
func Chain[Q any](q Q, filters ...Filter[Q]) Q {
	for _, f := range filters {
		if !f.Active {
			continue
		}
		q = f.Apply(q)
	}
	return q
}

// Match adapts a record predicate to a filter step over an in-memory Slice.
func Match[T any](pred func(T) bool) func(Slice[T]) Slice[T] {
	return func(s Slice[T]) Slice[T] {
		return s.Where(pred)
	}
}
