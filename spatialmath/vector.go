package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Lerp linearly blends two vectors: a + (b-a)*by. by is not clamped.
func Lerp(a, b r3.Vector, by float64) r3.Vector {
	return a.Add(b.Sub(a).Mul(by))
}

// R3VectorAlmostEqual compares two r3.Vector objects component-wise and returns true if every
// component is within tol of its counterpart.
func R3VectorAlmostEqual(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
