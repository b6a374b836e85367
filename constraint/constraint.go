package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// RestitutionVelocityLimit is the closing speed under which a contact does not bounce
	RestitutionVelocityLimit = 0.25
	// AngularMoveLimit caps the rotation used to resolve a penetration, as a fraction of the lever arm
	AngularMoveLimit = 0.2
)

// skew returns the matrix S such that S*v = a × v
func skew(a mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -a.Z(), a.Y()},
		mgl64.Vec3{a.Z(), 0, -a.X()},
		mgl64.Vec3{-a.Y(), a.X(), 0},
	)
}

// contactBasis returns two unit tangents completing normal into a right-handed orthonormal basis
// The branch on the dominant axis keeps the cross products away from near-parallel vectors.
func contactBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent mgl64.Vec3

	if math.Abs(normal.X()) > math.Abs(normal.Y()) {
		// Tangent in the XZ plane
		s := 1.0 / math.Sqrt(normal.Z()*normal.Z()+normal.X()*normal.X())
		tangent = mgl64.Vec3{normal.Z() * s, 0, -normal.X() * s}
	} else {
		// Tangent in the YZ plane
		s := 1.0 / math.Sqrt(normal.Z()*normal.Z()+normal.Y()*normal.Y())
		tangent = mgl64.Vec3{0, -normal.Z() * s, normal.Y() * s}
	}

	return tangent, normal.Cross(tangent)
}
