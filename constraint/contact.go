package constraint

import (
	"math"

	"github.com/akmonengine/galton/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ManifoldPoint is a single contact between one or two bodies.
// Bodies[1] is nil when the other side of the contact is an untracked, immovable shape.
// Normal points from Bodies[1] toward Bodies[0].
type ManifoldPoint struct {
	Bodies [2]*actor.RigidBody
	// Other is the body the contact was detected against when it is left out of Bodies
	Other *actor.RigidBody

	Point       mgl64.Vec3 // World space contact point
	Normal      mgl64.Vec3
	Penetration float64

	Friction    float64
	Restitution float64

	// Columns: normal, tangent, bitangent. Transposed, it maps world space into contact space.
	contactToWorld       mgl64.Mat3
	relativePosition     [2]mgl64.Vec3
	contactVelocity      mgl64.Vec3
	desiredDeltaVelocity float64
	impulse              mgl64.Vec3
}

// Prepare computes the contact basis and the velocity data used by the resolver
func (p *ManifoldPoint) Prepare(dt float64) {
	// Body 0 is the one that moves
	if p.Bodies[0] == nil {
		p.Bodies[0], p.Bodies[1] = p.Bodies[1], nil
		p.Normal = p.Normal.Mul(-1)
	}

	p.buildContactBasis()

	p.relativePosition[0] = p.Point.Sub(p.Bodies[0].Pending.Position)
	if p.Bodies[1] != nil {
		p.relativePosition[1] = p.Point.Sub(p.Bodies[1].Pending.Position)
	}

	p.contactVelocity = p.localVelocity(0, dt)
	if p.Bodies[1] != nil {
		p.contactVelocity = p.contactVelocity.Sub(p.localVelocity(1, dt))
	}

	p.calculateDesiredDeltaVelocity(dt)
}

func (p *ManifoldPoint) buildContactBasis() {
	tangent, bitangent := contactBasis(p.Normal)
	p.contactToWorld = mgl64.Mat3FromCols(p.Normal, tangent, bitangent)
}

func (p *ManifoldPoint) toContact(v mgl64.Vec3) mgl64.Vec3 {
	return p.contactToWorld.Transpose().Mul3x1(v)
}

// localVelocity is the velocity of the contact point on body i, in contact space
// The planar part of the velocity built up by last frame's acceleration is added back,
// so that friction can cancel it.
func (p *ManifoldPoint) localVelocity(i int, dt float64) mgl64.Vec3 {
	body := p.Bodies[i]

	velocity := body.AngularVelocity.Cross(p.relativePosition[i]).Add(body.Pending.Velocity)
	contactVelocity := p.toContact(velocity)

	accelerationVelocity := p.toContact(body.LastFrameAcceleration.Mul(dt))
	accelerationVelocity[0] = 0

	return contactVelocity.Add(accelerationVelocity)
}

// calculateDesiredDeltaVelocity computes the normal velocity change that resolves the contact
// The velocity produced by this frame's acceleration does not bounce.
func (p *ManifoldPoint) calculateDesiredDeltaVelocity(dt float64) {
	velocityFromAcceleration := 0.0
	if p.Bodies[0].IsAwake() {
		velocityFromAcceleration += p.Bodies[0].LastFrameAcceleration.Mul(dt).Dot(p.Normal)
	}
	if p.Bodies[1] != nil && p.Bodies[1].IsAwake() {
		velocityFromAcceleration -= p.Bodies[1].LastFrameAcceleration.Mul(dt).Dot(p.Normal)
	}

	restitution := p.Restitution
	if math.Abs(p.contactVelocity.X()) < RestitutionVelocityLimit {
		restitution = 0
	}

	p.desiredDeltaVelocity = -p.contactVelocity.X() - restitution*(p.contactVelocity.X()-velocityFromAcceleration)
}

// MatchAwakeState wakes the sleeping body of a contact when the other one is awake
func (p *ManifoldPoint) MatchAwakeState() {
	if p.Bodies[1] == nil {
		return
	}

	awake0 := p.Bodies[0].IsAwake()
	awake1 := p.Bodies[1].IsAwake()

	if awake0 != awake1 {
		if awake0 {
			p.Bodies[1].SetAwake(true)
		} else {
			p.Bodies[0].SetAwake(true)
		}
	}
}

// ResolvePenetration moves the bodies apart by penetration along the normal, split by inertia.
// It returns the linear and angular changes applied to each body.
func (p *ManifoldPoint) ResolvePenetration(penetration float64) (linearChange, angularChange [2]mgl64.Vec3) {
	var linearInertia, angularInertia [2]float64
	totalInertia := 0.0

	// ========== 1. Inertia of each body along the normal ==========
	for i, body := range p.Bodies {
		if body == nil {
			continue
		}

		angularInertiaWorld := body.InverseInertiaWorld().Mul3x1(p.relativePosition[i].Cross(p.Normal))
		angularInertiaWorld = angularInertiaWorld.Cross(p.relativePosition[i])
		angularInertia[i] = angularInertiaWorld.Dot(p.Normal)
		linearInertia[i] = body.InverseMass()

		totalInertia += linearInertia[i] + angularInertia[i]
	}

	// Nothing can move
	if totalInertia <= 0 {
		return linearChange, angularChange
	}

	// ========== 2. Share the move, then apply it ==========
	for i, body := range p.Bodies {
		if body == nil {
			continue
		}

		sign := 1.0
		if i == 1 {
			sign = -1.0
		}

		angularMove := sign * penetration * (angularInertia[i] / totalInertia)
		linearMove := sign * penetration * (linearInertia[i] / totalInertia)

		// Limit the rotation on contacts close to the centre of mass
		projection := p.relativePosition[i].Add(p.Normal.Mul(-p.relativePosition[i].Dot(p.Normal)))
		maxMagnitude := AngularMoveLimit * projection.Len()

		if angularMove < -maxMagnitude {
			totalMove := angularMove + linearMove
			angularMove = -maxMagnitude
			linearMove = totalMove - angularMove
		} else if angularMove > maxMagnitude {
			totalMove := angularMove + linearMove
			angularMove = maxMagnitude
			linearMove = totalMove - angularMove
		}

		if angularMove != 0 && angularInertia[i] != 0 {
			targetAngularDirection := p.relativePosition[i].Cross(p.Normal)
			angularChange[i] = body.InverseInertiaWorld().Mul3x1(targetAngularDirection).Mul(angularMove / angularInertia[i])
		}
		linearChange[i] = p.Normal.Mul(linearMove)

		body.Pending.Position = body.Pending.Position.Add(linearChange[i])
		body.Rotate(angularChange[i])
	}

	return linearChange, angularChange
}

// ApplyVelocityChange applies the impulse resolving the desired velocity change.
// It returns the linear and angular velocity changes applied to each body.
func (p *ManifoldPoint) ApplyVelocityChange() (velocityChange, rotationChange [2]mgl64.Vec3) {
	if p.Friction == 0 {
		p.impulse = p.frictionlessImpulse()
	} else {
		p.impulse = p.frictionImpulse()
	}

	impulse := p.contactToWorld.Mul3x1(p.impulse)

	// ========== Body 0 receives +impulse ==========
	body := p.Bodies[0]
	rotationChange[0] = body.InverseInertiaWorld().Mul3x1(p.relativePosition[0].Cross(impulse))
	velocityChange[0] = impulse.Mul(body.InverseMass())
	body.Pending.Velocity = body.Pending.Velocity.Add(velocityChange[0])
	body.AngularVelocity = body.AngularVelocity.Add(rotationChange[0])

	// ========== Body 1 receives -impulse ==========
	if body = p.Bodies[1]; body != nil {
		rotationChange[1] = body.InverseInertiaWorld().Mul3x1(impulse.Cross(p.relativePosition[1]))
		velocityChange[1] = impulse.Mul(-body.InverseMass())
		body.Pending.Velocity = body.Pending.Velocity.Add(velocityChange[1])
		body.AngularVelocity = body.AngularVelocity.Add(rotationChange[1])
	}

	return velocityChange, rotationChange
}

// Impulse returns the last impulse applied, in contact space: normal, tangent, bitangent
func (p *ManifoldPoint) Impulse() mgl64.Vec3 {
	return p.impulse
}

// DesiredDeltaVelocity is the normal velocity change still needed to resolve the contact
func (p *ManifoldPoint) DesiredDeltaVelocity() float64 {
	return p.desiredDeltaVelocity
}

// frictionlessImpulse solves the normal impulse alone
func (p *ManifoldPoint) frictionlessImpulse() mgl64.Vec3 {
	deltaVelocity := 0.0

	for i, body := range p.Bodies {
		if body == nil {
			continue
		}

		// Velocity change along the normal for a unit impulse
		deltaVelWorld := body.InverseInertiaWorld().Mul3x1(p.relativePosition[i].Cross(p.Normal))
		deltaVelWorld = deltaVelWorld.Cross(p.relativePosition[i])
		deltaVelocity += deltaVelWorld.Dot(p.Normal) + body.InverseMass()
	}

	if deltaVelocity <= 0 {
		return mgl64.Vec3{}
	}

	return mgl64.Vec3{p.desiredDeltaVelocity / deltaVelocity, 0, 0}
}

// frictionImpulse solves the normal and tangential impulses together,
// then clamps the result to the friction cone.
func (p *ManifoldPoint) frictionImpulse() mgl64.Vec3 {
	inverseMass := 0.0
	var deltaVelWorld mgl64.Mat3

	// ========== 1. World space velocity change per unit impulse ==========
	for i, body := range p.Bodies {
		if body == nil {
			continue
		}

		impulseToTorque := skew(p.relativePosition[i])
		d := impulseToTorque.Mul3(body.InverseInertiaWorld()).Mul3(impulseToTorque).Mul(-1)
		deltaVelWorld = deltaVelWorld.Add(d)
		inverseMass += body.InverseMass()
	}

	// ========== 2. Into contact space, plus the linear part ==========
	deltaVelocity := p.contactToWorld.Transpose().Mul3(deltaVelWorld).Mul3(p.contactToWorld)
	deltaVelocity = deltaVelocity.Add(mgl64.Diag3(mgl64.Vec3{inverseMass, inverseMass, inverseMass}))

	if deltaVelocity.Det() == 0 {
		return p.frictionlessImpulse()
	}

	// ========== 3. Impulse that kills the planar velocity ==========
	velocityKill := mgl64.Vec3{p.desiredDeltaVelocity, -p.contactVelocity.Y(), -p.contactVelocity.Z()}
	impulse := deltaVelocity.Inv().Mul3x1(velocityKill)

	// ========== 4. Coulomb cone: |planar| <= friction * normal ==========
	planar := math.Hypot(impulse.Y(), impulse.Z())
	if planar > 0 && planar > impulse.X()*p.Friction {
		impulse[1] /= planar
		impulse[2] /= planar

		denominator := deltaVelocity.At(0, 0) +
			deltaVelocity.At(0, 1)*p.Friction*impulse.Y() +
			deltaVelocity.At(0, 2)*p.Friction*impulse.Z()
		if denominator <= 0 {
			return p.frictionlessImpulse()
		}

		impulse[0] = p.desiredDeltaVelocity / denominator
		impulse[1] *= p.Friction * impulse.X()
		impulse[2] *= p.Friction * impulse.X()
	}

	return impulse
}
