package query

import "fmt"

// PagingCriteria selects a window of records after filtering and sorting.
type PagingCriteria struct {
	FirstRecordIndex int
	PageSize         int
}

// Validate checks that the window is well formed.
func (p PagingCriteria) Validate() error {
	if p.FirstRecordIndex < 0 {
		return fmt.Errorf("%w: first record index %d is negative", ErrInvalidPaging, p.FirstRecordIndex)
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("%w: page size %d must be positive", ErrInvalidPaging, p.PageSize)
	}
	return nil
}

// RecordsPage is one page of a filtered, sorted result set together with the counts
// needed to render "page X of N filtered results out of M total".
type RecordsPage[T any] struct {
	TotalRecordCount    int64 `json:"totalRecordCount"`
	FilteredRecordCount int64 `json:"filteredRecordCount"`
	Records             []T   `json:"records"`
}
