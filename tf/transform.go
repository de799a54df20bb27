// Package tf caches the time history of rigid transforms between a parent and a child frame and
// answers point in time queries against it, interpolating between bracketing samples.
package tf

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/tfcache/spatialmath"
)

// FrameID is a compact handle for a named coordinate frame.
type FrameID uint32

// StampedTransform is one observed rigid transform from a parent frame to a child frame. Rotation
// must be a unit quaternion; producers normalize it before handing it to a cache.
type StampedTransform struct {
	FrameID      FrameID
	ChildFrameID FrameID
	Translation  r3.Vector
	Rotation     quat.Number
	Stamp        Stamp
}

// NewStampedTransform returns an identity transform between the given frames at the given time.
func NewStampedTransform(parent, child FrameID, stamp Stamp) StampedTransform {
	return StampedTransform{
		FrameID:      parent,
		ChildFrameID: child,
		Rotation:     spatialmath.NewZeroQuaternion(),
		Stamp:        stamp,
	}
}

// Clone returns a copy of t.
func (t StampedTransform) Clone() StampedTransform {
	return t
}

func (t StampedTransform) String() string {
	return fmt.Sprintf("[%v] %d->%d t=(%g, %g, %g) q=(%g, %g, %g, %g)",
		t.Stamp, t.FrameID, t.ChildFrameID,
		t.Translation.X, t.Translation.Y, t.Translation.Z,
		t.Rotation.Real, t.Rotation.Imag, t.Rotation.Jmag, t.Rotation.Kmag)
}
