package search

import (
	"fmt"

	"github.com/iliyamo/hotel-booking/internal/apperr"
)

const (
	MinPerPage = 10
	MaxPerPage = 50
)

// Pagination status values.
const (
	StatusInProgress = "in-progress"
	StatusComplete   = "complete"
)

// Window is the slice of the supplier result list served for one page.
// LowerBound is inclusive, UpperBound exclusive.
type Window struct {
	LowerBound            int
	UpperBound            int
	TotalPages            int
	Status                string
	NextCurrentItemsCount int
}

// ClampPerPage bounds perPage to [MinPerPage, MaxPerPage].
func ClampPerPage(perPage int) int {
	if perPage < MinPerPage {
		return MinPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// ComputeWindow works out which items of a result set of totalItemsCount
// entries to return for page, given that currentItemsCount items were already
// delivered. perPage must already be clamped.
//
// UpperBound is capped at totalItemsCount+1, not totalItemsCount; callers
// slicing a real list must clamp again (see Slice).
func ComputeWindow(page, perPage, currentItemsCount, totalItemsCount int) (Window, error) {
	if perPage <= 0 {
		return Window{}, fmt.Errorf("%w: perPage must be positive", apperr.ErrValidation)
	}
	totalPages := (totalItemsCount + perPage - 1) / perPage
	if totalItemsCount <= 0 {
		totalPages = 0
	}
	if page > totalPages {
		return Window{}, fmt.Errorf("%w: page %d exceeds total pages %d", apperr.ErrInvalidPage, page, totalPages)
	}

	status := StatusInProgress
	if page == totalPages {
		status = StatusComplete
	}

	lower := currentItemsCount
	upper := min(lower+perPage, totalItemsCount+1)

	return Window{
		LowerBound:            lower,
		UpperBound:            upper,
		TotalPages:            totalPages,
		Status:                status,
		NextCurrentItemsCount: min(page*perPage, totalItemsCount),
	}, nil
}

// Slice returns items[w.LowerBound:w.UpperBound] with both bounds clamped to
// the list length.
func Slice[T any](items []T, w Window) []T {
	lo := max(w.LowerBound, 0)
	hi := w.UpperBound
	if hi > len(items) {
		hi = len(items)
	}
	if lo >= hi {
		return []T{}
	}
	return items[lo:hi]
}
