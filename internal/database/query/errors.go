package query

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the root of every request validation failure.
// Requests failing with it never reached the backing store.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrUnknownSortProperty  = fmt.Errorf("%w: unknown sort property", ErrInvalidInput)
	ErrInvalidSortDirection = fmt.Errorf("%w: invalid sort direction", ErrInvalidInput)
	ErrInvalidPaging        = fmt.Errorf("%w: invalid paging criteria", ErrInvalidInput)
)
