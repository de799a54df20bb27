package tf

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/tfcache/spatialmath"
)

// almostEqualEpsilon is the tolerance of the AlmostEqual helpers.
const almostEqualEpsilon = 1e-8

// InterpolateTranslation linearly blends two translations by ratio.
func InterpolateTranslation(a, b r3.Vector, ratio float64) r3.Vector {
	return spatialmath.Lerp(a, b, ratio)
}

// InterpolateRotation spherically interpolates two unit quaternions by ratio along the shortest arc.
func InterpolateRotation(a, b quat.Number, ratio float64) quat.Number {
	return spatialmath.Slerp(a, b, ratio)
}

// InterpolateTransform synthesizes the transform at target from two samples of the same frame pair.
// The frames are taken from ta and the stamp is target exactly. If both samples share a stamp, ta is
// returned as is. The ratio is not clamped, so a target outside [ta, tb] extrapolates.
func InterpolateTransform(ta, tb StampedTransform, target Stamp) StampedTransform {
	if ta.Stamp.Equal(tb.Stamp) {
		return ta.Clone()
	}
	ratio := target.Sub(ta.Stamp).ToSec() / tb.Stamp.Sub(ta.Stamp).ToSec()

	return StampedTransform{
		FrameID:      ta.FrameID,
		ChildFrameID: ta.ChildFrameID,
		Translation:  InterpolateTranslation(ta.Translation, tb.Translation, ratio),
		Rotation:     InterpolateRotation(ta.Rotation, tb.Rotation, ratio),
		Stamp:        target,
	}
}

// TranslationAlmostEqual compares two translations component-wise.
func TranslationAlmostEqual(a, b r3.Vector) bool {
	return spatialmath.R3VectorAlmostEqual(a, b, almostEqualEpsilon)
}

// RotationAlmostEqual compares the coordinates of two quaternions component-wise.
// q and -q are reported as different.
func RotationAlmostEqual(a, b quat.Number) bool {
	return spatialmath.QuaternionAlmostEqual(a, b, almostEqualEpsilon)
}

// TransformAlmostEqual compares frames and stamps exactly and translation and rotation within tolerance.
func TransformAlmostEqual(a, b StampedTransform) bool {
	return a.FrameID == b.FrameID &&
		a.ChildFrameID == b.ChildFrameID &&
		a.Stamp.Equal(b.Stamp) &&
		TranslationAlmostEqual(a.Translation, b.Translation) &&
		RotationAlmostEqual(a.Rotation, b.Rotation)
}
