package actor

import "github.com/go-gl/mathgl/mgl64"

// Transform is a rigid pose: a translation and a unit rotation
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}
}

// ToLocal expresses a world space point in the frame of the transform
func (t Transform) ToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Inverse().Rotate(point.Sub(t.Position))
}

// ToWorld expresses a point given in the frame of the transform in world space
func (t Transform) ToWorld(point mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(point).Add(t.Position)
}

// DirectionToWorld rotates a local direction into world space
func (t Transform) DirectionToWorld(direction mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(direction)
}
