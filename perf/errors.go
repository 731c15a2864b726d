package perf

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError is returned when the period or the length of the series
// cannot support a seasonal decomposition, or when the series holds NaN or
// infinite values.
type InvalidInputError struct {
	Period int
	Length int
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input (period=%d, length=%d): %s", e.Period, e.Length, e.Reason)
}

// InsufficientDataError is returned by the detector when the series is too
// short for each segment to hold the minimum number of points.
type InsufficientDataError struct {
	Length  int
	Minimum int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for change point detection: have %d points, need at least %d", e.Length, e.Minimum)
}

// IsInvalidInput reports whether the cause of err is an *InvalidInputError.
func IsInvalidInput(err error) bool {
	_, ok := errors.Cause(err).(*InvalidInputError)
	return ok
}

// IsInsufficientData reports whether the cause of err is an
// *InsufficientDataError.
func IsInsufficientData(err error) bool {
	_, ok := errors.Cause(err).(*InsufficientDataError)
	return ok
}
