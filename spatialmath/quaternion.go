// Package spatialmath defines the rotation and translation primitives used by transform caches.
package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// slerpLinearThreshold is the dot product above which two quaternions are close enough that
// a normalized linear blend replaces the trigonometric form of slerp.
const slerpLinearThreshold = 0.9995

// NewZeroQuaternion returns the identity rotation.
func NewZeroQuaternion() quat.Number {
	return quat.Number{Real: 1}
}

// QuatFromAxisAngle returns the unit quaternion rotating theta radians about the given axis.
// A zero axis yields the identity rotation.
func QuatFromAxisAngle(x, y, z, theta float64) quat.Number {
	norm := math.Sqrt(x*x + y*y + z*z)
	if norm == 0 {
		return NewZeroQuaternion()
	}
	s := math.Sin(theta/2) / norm
	return quat.Number{Real: math.Cos(theta / 2), Imag: x * s, Jmag: y * s, Kmag: z * s}
}

// Normalize returns q scaled to unit length. The zero quaternion is returned unchanged.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return q
	}
	return quat.Scale(1/norm, q)
}

// Dot returns the four dimensional dot product of two quaternions.
func Dot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// Slerp spherically interpolates between two unit quaternions by the given amount, following the
// shortest arc between them. by is not clamped: values outside [0, 1] continue along the same great circle.
// The result is renormalized.
func Slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	// q and -q are the same rotation; flipping the sign of one end keeps the path on the short arc
	cosOmega := Dot(qN1, qN2)
	if cosOmega < 0 {
		qN2 = quat.Scale(-1, qN2)
		cosOmega = -cosOmega
	}

	if cosOmega > slerpLinearThreshold {
		return Normalize(quat.Add(qN1, quat.Scale(by, quat.Sub(qN2, qN1))))
	}

	omega := math.Acos(cosOmega)
	sinOmega := math.Sin(omega)
	s1 := math.Sin((1-by)*omega) / sinOmega
	s2 := math.Sin(by*omega) / sinOmega
	return Normalize(quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2)))
}

// QuaternionAlmostEqual is an equality test for each component of two quaternions.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}
