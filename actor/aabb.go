package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB, borders included
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// ClosestPoint clamps point into the box, per axis
func (a AABB) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Max(a.Min.X(), math.Min(point.X(), a.Max.X())),
		math.Max(a.Min.Y(), math.Min(point.Y(), a.Max.Y())),
		math.Max(a.Min.Z(), math.Min(point.Z(), a.Max.Z())),
	}
}

// ExitDirection returns the outward normal of the face nearest to an inner point,
// and the distance from the point to that face.
func (a AABB) ExitDirection(point mgl64.Vec3) (mgl64.Vec3, float64) {
	normal := mgl64.Vec3{1, 0, 0}
	depth := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		if d := a.Max[axis] - point[axis]; d < depth {
			depth = d
			normal = mgl64.Vec3{}
			normal[axis] = 1
		}
		if d := point[axis] - a.Min[axis]; d < depth {
			depth = d
			normal = mgl64.Vec3{}
			normal[axis] = -1
		}
	}

	return normal, depth
}
