package source

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a backend that could not be reached at all.
var ErrUnavailable = errors.New("source unavailable")

// FetchError reports a failed fetch from a data source. Callers must keep
// their previously reconciled state when they receive one.
type FetchError struct {
	Op     string // "transactions", "categories" or "balance"
	Status int    // HTTP status when known, otherwise 0
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
