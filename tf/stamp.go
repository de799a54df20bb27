package tf

import (
	"fmt"
	"math"
	"time"
)

const nsecPerSec = int64(time.Second)

// Stamp is a point in time, or a signed duration, expressed as whole seconds plus nanoseconds.
// Stamps compare exactly; no tolerance is ever applied to ordering or equality.
type Stamp struct {
	Sec  int64
	Nsec int64
}

// NewStamp returns a Stamp with the given components.
func NewStamp(sec, nsec int64) Stamp {
	return Stamp{Sec: sec, Nsec: nsec}
}

// StampFromNanos returns a normalized Stamp for the given number of nanoseconds.
func StampFromNanos(nanos int64) Stamp {
	return Stamp{Sec: nanos / nsecPerSec, Nsec: nanos % nsecPerSec}
}

// StampFromTime converts a wall clock time into a Stamp measured from the unix epoch.
func StampFromTime(t time.Time) Stamp {
	return StampFromNanos(t.UnixNano())
}

// StampFromSec converts floating point seconds into a Stamp, rounding to the nearest nanosecond.
func StampFromSec(sec float64) Stamp {
	whole, frac := math.Modf(sec)
	return Stamp{Sec: int64(whole), Nsec: int64(math.Round(frac * 1e9))}.normalized()
}

func (s Stamp) normalized() Stamp {
	return StampFromNanos(s.Nanos())
}

// Nanos returns the total number of nanoseconds represented by s.
func (s Stamp) Nanos() int64 {
	return s.Sec*nsecPerSec + s.Nsec
}

// ToSec returns s as floating point seconds.
func (s Stamp) ToSec() float64 {
	return float64(s.Sec) + float64(s.Nsec)*1e-9
}

// Sub returns s - o component-wise. The result is not carry normalized; only its magnitude in
// seconds is meaningful.
func (s Stamp) Sub(o Stamp) Stamp {
	return Stamp{Sec: s.Sec - o.Sec, Nsec: s.Nsec - o.Nsec}
}

// Add returns s + d, normalized.
func (s Stamp) Add(d time.Duration) Stamp {
	return StampFromNanos(s.Nanos() + int64(d))
}

// Compare returns -1, 0 or 1 depending on whether s is before, equal to, or after o.
func (s Stamp) Compare(o Stamp) int {
	a, b := s.Nanos(), o.Nanos()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether s and o denote the same instant.
func (s Stamp) Equal(o Stamp) bool {
	return s.Compare(o) == 0
}

// Before reports whether s is strictly earlier than o.
func (s Stamp) Before(o Stamp) bool {
	return s.Compare(o) < 0
}

// After reports whether s is strictly later than o.
func (s Stamp) After(o Stamp) bool {
	return s.Compare(o) > 0
}

// IsZero reports whether s is the zero stamp, which queries treat as "latest available".
func (s Stamp) IsZero() bool {
	return s.Nanos() == 0
}

// Duration converts s into a time.Duration.
func (s Stamp) Duration() time.Duration {
	return time.Duration(s.Nanos())
}

func (s Stamp) String() string {
	n := s.Nanos()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%09d", sign, n/nsecPerSec, n%nsecPerSec)
}
