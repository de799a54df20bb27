package tf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSingleSampleMismatch is returned when a cache holding exactly one sample is queried for any other time.
	ErrSingleSampleMismatch = errors.New("cache holds a single sample and it is not at the requested time")
	// ErrBeforeOldestSample is returned when the requested time precedes every stored sample.
	ErrBeforeOldestSample = errors.New("requested time is before the oldest sample")
	// ErrAfterNewestSample is returned when the requested time follows every stored sample.
	ErrAfterNewestSample = errors.New("requested time is after the newest sample")
	// ErrTransformNotFound is returned when the cache has nothing to answer with.
	ErrTransformNotFound = errors.New("transform not found")
	// ErrNoParent is returned when a parent is requested at a time not strictly bracketed by two samples.
	ErrNoParent = errors.New("no parent available at the requested time")
)

// ExtrapolationError describes a query outside the time range a cache can answer without extrapolating.
// It matches exactly one of ErrSingleSampleMismatch, ErrBeforeOldestSample or ErrAfterNewestSample
// under errors.Is.
type ExtrapolationError struct {
	Kind      error
	Requested Stamp
	Oldest    Stamp
	Newest    Stamp
}

func newExtrapolationError(kind error, requested, oldest, newest Stamp) *ExtrapolationError {
	return &ExtrapolationError{Kind: kind, Requested: requested, Oldest: oldest, Newest: newest}
}

func (e *ExtrapolationError) Error() string {
	switch e.Kind {
	case ErrSingleSampleMismatch:
		return fmt.Sprintf("%v: requested %v, have %v", e.Kind, e.Requested, e.Oldest)
	case ErrBeforeOldestSample:
		return fmt.Sprintf("%v: requested %v, oldest is %v (%v earlier)",
			e.Kind, e.Requested, e.Oldest, e.Oldest.Sub(e.Requested).Duration())
	default:
		return fmt.Sprintf("%v: requested %v, newest is %v (%v later)",
			e.Kind, e.Requested, e.Newest, e.Requested.Sub(e.Newest).Duration())
	}
}

// Unwrap returns the sentinel kind of the error.
func (e *ExtrapolationError) Unwrap() error {
	return e.Kind
}

// ErrorKind returns a short label for the sentinel err matches, for use in logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSingleSampleMismatch):
		return "single_sample_mismatch"
	case errors.Is(err, ErrBeforeOldestSample):
		return "before_oldest"
	case errors.Is(err, ErrAfterNewestSample):
		return "after_newest"
	case errors.Is(err, ErrTransformNotFound):
		return "not_found"
	case errors.Is(err, ErrNoParent):
		return "no_parent"
	default:
		return "other"
	}
}
