package galton

import (
	"math"

	"github.com/akmonengine/galton/actor"
	"github.com/akmonengine/galton/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// detectFunc tests one pair of bodies and returns at most one contact
type detectFunc func(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool)

// detectors is indexed by the shape types of both bodies
// A nil entry is a pair that never collides.
var detectors = func() (table [actor.ShapeTypeCount][actor.ShapeTypeCount]detectFunc) {
	register := func(a, b actor.ShapeType, fn detectFunc) {
		table[a][b] = fn
		if a != b {
			table[b][a] = swapped(fn)
		}
	}

	register(actor.ShapeTypeSphere, actor.ShapeTypeSphere, sphereSphere)
	register(actor.ShapeTypeSphere, actor.ShapeTypeCylinder, sphereCylinder)
	register(actor.ShapeTypeSphere, actor.ShapeTypePlane, spherePlane)
	register(actor.ShapeTypeSphere, actor.ShapeTypeAABBCube, sphereAABB)
	register(actor.ShapeTypeSphere, actor.ShapeTypeOBBCube, sphereOBB)
	register(actor.ShapeTypeCylinder, actor.ShapeTypeOBBCube, cylinderOBB)
	register(actor.ShapeTypeOBBCube, actor.ShapeTypePlane, obbPlane)
	register(actor.ShapeTypeOBBCube, actor.ShapeTypeOBBCube, obbOBB)

	return table
}()

// swapped runs fn with its operands in the registered order
func swapped(fn detectFunc) detectFunc {
	return func(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
		return fn(b, a)
	}
}

// NarrowPhase tests every pair of bodies and fills the manifold with their contacts
// Every contact gets the current global friction and restitution.
type NarrowPhase struct {
	friction    float64
	restitution float64
}

func NewNarrowPhase(friction, restitution float64) *NarrowPhase {
	np := &NarrowPhase{}
	np.SetFriction(friction)
	np.SetRestitution(restitution)

	return np
}

// SetFriction sets the friction coefficient, negative values are clamped to 0
func (np *NarrowPhase) SetFriction(friction float64) {
	np.friction = math.Max(0, friction)
}

// SetRestitution sets the restitution coefficient, clamped to [0, 1]
func (np *NarrowPhase) SetRestitution(restitution float64) {
	np.restitution = math.Max(0, math.Min(1, restitution))
}

func (np *NarrowPhase) Friction() float64 {
	return np.friction
}

func (np *NarrowPhase) Restitution() float64 {
	return np.restitution
}

// Detect clears the manifold, then tests each pair (i, j), i < j
// This is an O(n²) brute-force approach, suitable for a few hundred bodies.
func (np *NarrowPhase) Detect(bodies []*actor.RigidBody, manifold *constraint.Manifold) {
	manifold.Clear()

	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]

			// Nothing to resolve between immovable bodies
			if !a.HasFiniteMass() && !b.HasFiniteMass() {
				continue
			}

			detect := detectors[a.Shape.ShapeType()][b.Shape.ShapeType()]
			if detect == nil {
				continue
			}

			point, ok := detect(a, b)
			if !ok {
				continue
			}
			// A one-body contact on an immovable body cannot be resolved
			if point.Bodies[1] == nil && !point.Bodies[0].HasFiniteMass() {
				continue
			}

			if point.Bodies[1] == nil {
				point.Other = b
				if point.Bodies[0] == b {
					point.Other = a
				}
			}
			point.Friction = np.friction
			point.Restitution = np.restitution
			manifold.Add(point)
		}
	}
}

// sphereSphere: the normal follows the centre axis, the point is the midpoint
func sphereSphere(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	return sphereAgainst(a, b, b.Pending.Position, b.Shape.BoundingRadius())
}

// sphereCylinder treats the cylinder as a circle in the XY plane, at the depth of the sphere
func sphereCylinder(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	cylinder := b.Shape.(*actor.Cylinder)

	centre := b.Pending.Position
	centre[2] = a.Pending.Position.Z()

	return sphereAgainst(a, nil, centre, cylinder.Radius)
}

func sphereAgainst(a, b *actor.RigidBody, centre mgl64.Vec3, radius float64) (constraint.ManifoldPoint, bool) {
	position := a.Pending.Position
	radiusSum := a.Shape.BoundingRadius() + radius

	diff := position.Sub(centre)
	distanceSquared := diff.LenSqr()
	if distanceSquared >= radiusSum*radiusSum {
		return constraint.ManifoldPoint{}, false
	}

	distance := math.Sqrt(distanceSquared)
	normal := mgl64.Vec3{0, 1, 0}
	if distance > 0 {
		normal = diff.Mul(1.0 / distance)
	}

	return constraint.ManifoldPoint{
		Bodies:      [2]*actor.RigidBody{a, b},
		Point:       centre.Add(diff.Mul(0.5)),
		Normal:      normal,
		Penetration: radiusSum - distance,
	}, true
}

// spherePlane: the Y component of the plane normal is flipped to match the orientation
// of the points the planes are built from.
func spherePlane(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	plane := b.Shape.(*actor.Plane)

	normal := plane.Normal
	normal[1] = -normal[1]

	position := a.Pending.Position
	radius := a.Shape.BoundingRadius()

	distance := normal.Dot(position) + plane.Offset
	if distance-radius > 0 {
		return constraint.ManifoldPoint{}, false
	}

	return constraint.ManifoldPoint{
		Bodies:      [2]*actor.RigidBody{a, nil},
		Point:       position.Sub(normal.Mul(distance)),
		Normal:      normal,
		Penetration: radius - distance,
	}, true
}

func sphereAABB(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	box := b.Shape.(*actor.AABBCube)

	// World space box, so the frame is the identity
	return sphereBox(a, a.Pending.Position, a.Shape.BoundingRadius(), actor.NewTransform(), box.Bounds(b.Pending.Position))
}

// sphereOBB only reports contacts for spheres that use gravity, against an immovable box
func sphereOBB(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	if !a.UseGravity {
		return constraint.ManifoldPoint{}, false
	}

	box := b.Shape.(*actor.OBBCube)

	return sphereBox(a, a.Pending.Position, a.Shape.BoundingRadius(), b.Transform(), box.LocalBounds())
}

// cylinderOBB only reports contacts for boxes that use gravity; the box is the moving body
func cylinderOBB(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	if !b.UseGravity {
		return constraint.ManifoldPoint{}, false
	}

	cylinder := a.Shape.(*actor.Cylinder)
	box := b.Shape.(*actor.OBBCube)

	centre := a.Pending.Position
	centre[2] = b.Pending.Position.Z()

	point, ok := sphereBox(b, centre, cylinder.Radius, b.Transform(), box.LocalBounds())
	if !ok {
		return point, false
	}

	// From the cylinder toward the box
	point.Normal = point.Normal.Mul(-1)

	return point, true
}

// obbPlane approximates the box by its bounding sphere
func obbPlane(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	return spherePlane(a, b)
}

// obbOBB approximates the falling box by its bounding sphere
func obbOBB(a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	if !a.UseGravity && b.UseGravity {
		a, b = b, a
	}

	return sphereOBB(a, b)
}

// sphereBox clamps a sphere centre into bounds, given in the frame of the box.
// The contact is attached to body only, and its normal points from the box toward the centre.
func sphereBox(body *actor.RigidBody, centre mgl64.Vec3, radius float64, frame actor.Transform, bounds actor.AABB) (constraint.ManifoldPoint, bool) {
	local := frame.ToLocal(centre)

	// Centre inside the box: push out through the nearest face
	if bounds.ContainsPoint(local) {
		normal, depth := bounds.ExitDirection(local)

		return constraint.ManifoldPoint{
			Bodies:      [2]*actor.RigidBody{body, nil},
			Point:       frame.ToWorld(local.Add(normal.Mul(depth))),
			Normal:      frame.DirectionToWorld(normal),
			Penetration: radius + depth,
		}, true
	}

	closest := frame.ToWorld(bounds.ClosestPoint(local))

	diff := centre.Sub(closest)
	distanceSquared := diff.LenSqr()
	if distanceSquared >= radius*radius {
		return constraint.ManifoldPoint{}, false
	}

	distance := math.Sqrt(distanceSquared)

	return constraint.ManifoldPoint{
		Bodies:      [2]*actor.RigidBody{body, nil},
		Point:       closest,
		Normal:      diff.Mul(1.0 / distance),
		Penetration: radius - distance,
	}, true
}
