package tf

import (
	"time"

	"github.com/pkg/errors"
)

// TimeCache is the time history of transforms for one parent/child frame pair.
// Implementations are not safe for concurrent use; the owner serializes inserts against queries.
type TimeCache interface {
	// GetData returns the transform at stamp, interpolating between the two samples bracketing it.
	// The zero stamp asks for the latest sample.
	GetData(stamp Stamp) (StampedTransform, error)

	// GetParent returns the parent frame at stamp. It only succeeds when stamp is strictly
	// bracketed by two samples.
	GetParent(stamp Stamp) (FrameID, error)

	// InsertData adds a sample, keeping the history ordered newest first. It returns false if the
	// sample was rejected.
	InsertData(t StampedTransform) bool

	// Clear drops every sample.
	Clear()

	// LatestTimeAndParent returns the stamp and parent of the newest sample.
	LatestTimeAndParent() (Stamp, FrameID, bool)

	// Len returns the number of stored samples.
	Len() int

	// LatestTimestamp returns the stamp of the newest sample.
	LatestTimestamp() (Stamp, bool)

	// OldestTimestamp returns the stamp of the oldest sample.
	OldestTimestamp() (Stamp, bool)
}

// MatchKind classifies the result of FindClosest.
type MatchKind int

// The possible outcomes of a FindClosest lookup.
const (
	NoMatch MatchKind = iota
	OneMatch
	TwoMatch
)

func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case OneMatch:
		return "one match"
	case TwoMatch:
		return "two match"
	default:
		return "unknown"
	}
}

// ClosestResult holds the samples found for a requested time. For OneMatch only Left is set.
// For TwoMatch Left is the later sample and Right the earlier one.
type ClosestResult struct {
	Kind  MatchKind
	Left  StampedTransform
	Right StampedTransform
}

// Option configures a cache built by NewTimeCache.
type Option func(*Cache)

// WithMaxStorageTime bounds the history to samples no older than d before the newest sample.
// Inserts older than that window are rejected. Zero or negative disables the bound.
func WithMaxStorageTime(d time.Duration) Option {
	return func(tc *Cache) {
		tc.maxStorageTime = d
	}
}

// WithMaxRecords bounds the history to the n newest samples. Once full, a sample older than all n
// is rejected. Zero or negative disables the bound.
func WithMaxRecords(n int) Option {
	return func(tc *Cache) {
		tc.maxRecords = n
	}
}

// Cache is a TimeCache holding its samples newest first in a slice.
type Cache struct {
	transforms     []StampedTransform
	maxStorageTime time.Duration
	maxRecords     int
}

var _ TimeCache = (*Cache)(nil)

// NewTimeCache returns an empty cache. Without options the history is unbounded.
func NewTimeCache(opts ...Option) *Cache {
	tc := &Cache{}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

func (tc *Cache) InsertData(t StampedTransform) bool {
	if tc.maxStorageTime > 0 && len(tc.transforms) > 0 {
		if t.Stamp.Before(tc.transforms[0].Stamp.Add(-tc.maxStorageTime)) {
			return false
		}
	}

	// first position holding a strictly older sample; equal stamps stay ahead of the new one
	i := 0
	for i < len(tc.transforms) && !tc.transforms[i].Stamp.Before(t.Stamp) {
		i++
	}
	// a full cache would drop the new sample straight away
	if tc.maxRecords > 0 && i >= tc.maxRecords {
		return false
	}
	tc.transforms = append(tc.transforms, StampedTransform{})
	copy(tc.transforms[i+1:], tc.transforms[i:])
	tc.transforms[i] = t

	tc.prune()
	return true
}

// prune drops samples from the old end that fall outside the configured bounds.
func (tc *Cache) prune() {
	n := len(tc.transforms)
	if tc.maxStorageTime > 0 && n > 0 {
		cutoff := tc.transforms[0].Stamp.Add(-tc.maxStorageTime)
		for n > 0 && tc.transforms[n-1].Stamp.Before(cutoff) {
			n--
		}
	}
	if tc.maxRecords > 0 && n > tc.maxRecords {
		n = tc.maxRecords
	}
	if n == len(tc.transforms) {
		return
	}
	clear(tc.transforms[n:])
	tc.transforms = tc.transforms[:n]
}

func (tc *Cache) Clear() {
	tc.transforms = nil
}

func (tc *Cache) Len() int {
	return len(tc.transforms)
}

func (tc *Cache) LatestTimestamp() (Stamp, bool) {
	if len(tc.transforms) == 0 {
		return Stamp{}, false
	}
	return tc.transforms[0].Stamp, true
}

func (tc *Cache) OldestTimestamp() (Stamp, bool) {
	if len(tc.transforms) == 0 {
		return Stamp{}, false
	}
	return tc.transforms[len(tc.transforms)-1].Stamp, true
}

func (tc *Cache) LatestTimeAndParent() (Stamp, FrameID, bool) {
	if len(tc.transforms) == 0 {
		return Stamp{}, 0, false
	}
	return tc.transforms[0].Stamp, tc.transforms[0].FrameID, true
}

// Records returns a copy of the stored samples, newest first.
func (tc *Cache) Records() []StampedTransform {
	out := make([]StampedTransform, len(tc.transforms))
	copy(out, tc.transforms)
	return out
}

// FindClosest locates the samples needed to answer a query at target. The zero stamp always
// resolves to the newest sample.
func (tc *Cache) FindClosest(target Stamp) (ClosestResult, error) {
	n := len(tc.transforms)
	if n == 0 {
		return ClosestResult{Kind: NoMatch}, nil
	}

	newest := tc.transforms[0]
	if target.IsZero() {
		return ClosestResult{Kind: OneMatch, Left: newest}, nil
	}

	if n == 1 {
		if target.Equal(newest.Stamp) {
			return ClosestResult{Kind: OneMatch, Left: newest}, nil
		}
		return ClosestResult{}, newExtrapolationError(ErrSingleSampleMismatch, target, newest.Stamp, newest.Stamp)
	}

	oldest := tc.transforms[n-1]
	switch {
	case target.Equal(oldest.Stamp):
		return ClosestResult{Kind: OneMatch, Left: oldest}, nil
	case target.Equal(newest.Stamp):
		return ClosestResult{Kind: OneMatch, Left: newest}, nil
	case target.Before(oldest.Stamp):
		return ClosestResult{}, newExtrapolationError(ErrBeforeOldestSample, target, oldest.Stamp, newest.Stamp)
	case target.After(newest.Stamp):
		return ClosestResult{}, newExtrapolationError(ErrAfterNewestSample, target, oldest.Stamp, newest.Stamp)
	}

	// oldest < target < newest, so some sample at index >= 1 is not after target
	i := 1
	for tc.transforms[i].Stamp.After(target) {
		i++
	}
	if tc.transforms[i].Stamp.Equal(target) {
		return ClosestResult{Kind: OneMatch, Left: tc.transforms[i]}, nil
	}
	return ClosestResult{Kind: TwoMatch, Left: tc.transforms[i-1], Right: tc.transforms[i]}, nil
}

func (tc *Cache) GetData(stamp Stamp) (StampedTransform, error) {
	closest, err := tc.FindClosest(stamp)
	if err != nil {
		return StampedTransform{}, err
	}
	switch closest.Kind {
	case OneMatch:
		return closest.Left.Clone(), nil
	case TwoMatch:
		return InterpolateTransform(closest.Left, closest.Right, stamp), nil
	default:
		return StampedTransform{}, errors.Wrapf(ErrTransformNotFound, "at %v", stamp)
	}
}

func (tc *Cache) GetParent(stamp Stamp) (FrameID, error) {
	closest, err := tc.FindClosest(stamp)
	if err != nil {
		return 0, errors.Wrap(ErrNoParent, err.Error())
	}
	if closest.Kind != TwoMatch {
		return 0, errors.Wrapf(ErrNoParent, "%v at %v", closest.Kind, stamp)
	}
	return closest.Left.FrameID, nil
}
