package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SleepEpsilon is the motion level under which a body goes to sleep
const SleepEpsilon = 0.2

// NoDrag keeps the whole velocity from one second to the next
const NoDrag = 1.0

var (
	// ErrInvalidMass is returned when a dynamic body has a non-positive or non-finite mass
	ErrInvalidMass = errors.New("invalid mass")
	// ErrInvalidDrag is returned when a drag factor is outside [0, 1]
	ErrInvalidDrag = errors.New("invalid drag")
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., pegs, walls)
	BodyTypeStatic
)

// State is the part of a body that is double buffered during a tick
type State struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3 // Linear velocity (m/s)
}

// BodyDef describes a rigid body to create
type BodyDef struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat // The zero value means identity
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3

	Shape    Collider
	BodyType BodyType
	Mass     float64 // Ignored for static bodies

	// Drag and AngularDrag are the fraction of velocity kept after one second, in (0, 1].
	// A zero drag means NoDrag.
	Drag        float64
	AngularDrag float64

	UseGravity bool
	Id         any
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Current is the committed state, Pending is written during the tick and copied by Commit
	Current State
	Pending State

	// Angular motion
	AngularVelocity mgl64.Vec3 // rad/s
	rotation        mgl64.Quat

	// LastFrameAcceleration is the linear acceleration applied by the last integration
	LastFrameAcceleration mgl64.Vec3

	inverseMass         float64
	inverseInertiaLocal mgl64.Mat3
	inverseInertiaWorld mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	Drag        float64
	AngularDrag float64

	motion float64
	awake  bool

	UseGravity bool
	BodyType   BodyType // Dynamic or Static

	// Collision shape
	Shape Collider
	Id    any
}

// NewRigidBody validates def and creates the body it describes
func NewRigidBody(def BodyDef) (*RigidBody, error) {
	if def.Shape == nil {
		return nil, fmt.Errorf("%w: no shape", ErrInvalidShape)
	}
	if err := def.Shape.Validate(); err != nil {
		return nil, err
	}
	if !isFactor(def.Drag) || !isFactor(def.AngularDrag) {
		return nil, fmt.Errorf("%w: drag %v angular drag %v", ErrInvalidDrag, def.Drag, def.AngularDrag)
	}

	rb := &RigidBody{
		Current:         State{Position: def.Position, Velocity: def.Velocity},
		AngularVelocity: def.AngularVelocity,
		Drag:            orNoDrag(def.Drag),
		AngularDrag:     orNoDrag(def.AngularDrag),
		BodyType:        def.BodyType,
		Shape:           def.Shape,
		Id:              def.Id,
	}

	switch def.BodyType {
	case BodyTypeDynamic:
		if def.Mass <= 0 || math.IsNaN(def.Mass) || math.IsInf(def.Mass, 0) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMass, def.Mass)
		}

		inertia := def.Shape.ComputeInertia(def.Mass)
		if inertia.Det() == 0 {
			return nil, fmt.Errorf("%w: a dynamic %s has no inertia", ErrInvalidShape, def.Shape.ShapeType())
		}

		rb.inverseMass = 1.0 / def.Mass
		rb.inverseInertiaLocal = inertia.Inv()
		rb.UseGravity = def.UseGravity
		rb.awake = true
		rb.motion = 2 * SleepEpsilon
	case BodyTypeStatic:
		// Infinite mass: zero inverse mass and inverse inertia
		rb.Current.Velocity = mgl64.Vec3{}
		rb.AngularVelocity = mgl64.Vec3{}
	default:
		return nil, fmt.Errorf("unknown body type %d", def.BodyType)
	}

	rotation := def.Rotation
	if rotation == (mgl64.Quat{}) {
		rotation = mgl64.QuatIdent()
	}
	rb.SetRotation(rotation)
	rb.Pending = rb.Current

	return rb, nil
}

// Rotation returns the unit orientation quaternion
func (rb *RigidBody) Rotation() mgl64.Quat {
	return rb.rotation
}

// SetRotation normalizes and stores q, then refreshes the world inertia
func (rb *RigidBody) SetRotation(q mgl64.Quat) {
	rb.rotation = q.Normalize()
	rb.updateInertiaWorld()
}

// Rotate applies a rotation vector (axis times angle in radians) to the orientation
func (rb *RigidBody) Rotate(delta mgl64.Vec3) {
	angle := delta.Len()
	if angle == 0 || math.IsNaN(angle) {
		return
	}

	q := mgl64.QuatRotate(angle, delta.Mul(1.0/angle))
	rb.SetRotation(q.Mul(rb.rotation))
}

// SetPosition moves the body, in both the current and the pending state
func (rb *RigidBody) SetPosition(position mgl64.Vec3) {
	rb.Current.Position = position
	rb.Pending.Position = position
}

// Transform returns the pose used during the tick: the pending position and the rotation
func (rb *RigidBody) Transform() Transform {
	return Transform{Position: rb.Pending.Position, Rotation: rb.rotation}
}

func (rb *RigidBody) IsStatic() bool {
	return rb.BodyType == BodyTypeStatic
}

func (rb *RigidBody) IsAwake() bool {
	return rb.awake
}

// SetAwake puts the body to sleep or wakes it up
// A sleeping body loses its velocity; a woken body gets enough motion to stay awake for a while.
// Static bodies never wake.
func (rb *RigidBody) SetAwake(awake bool) {
	if awake {
		if rb.IsStatic() {
			return
		}
		rb.awake = true
		rb.motion = 2 * SleepEpsilon

		return
	}

	rb.awake = false
	rb.Current.Velocity = mgl64.Vec3{}
	rb.Pending.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
	rb.ClearAccumulators()
}

// Motion is the recency weighted average of the kinetic energy per unit mass
func (rb *RigidBody) Motion() float64 {
	return rb.motion
}

// UpdateMotion refreshes the motion average and sends the body to sleep when it settles
func (rb *RigidBody) UpdateMotion(dt float64) {
	if !rb.awake || dt <= 0 {
		return
	}

	current := rb.Current.Velocity.Dot(rb.Current.Velocity) + rb.AngularVelocity.Dot(rb.AngularVelocity)
	bias := math.Pow(0.5, dt)
	rb.motion = bias*rb.motion + (1-bias)*current

	if rb.motion < SleepEpsilon {
		rb.SetAwake(false)
	} else if rb.motion > 10*SleepEpsilon {
		rb.motion = 10 * SleepEpsilon
	}
}

// Integrate advances the body by dt and stores the result in the pending state
// Sleeping and static bodies are left untouched.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.IsStatic() || !rb.awake {
		return
	}

	// ========== FORCES ==========
	if rb.UseGravity {
		rb.accumulatedForce = rb.accumulatedForce.Add(gravity.Mul(rb.Mass()))
	}
	acceleration := rb.accumulatedForce.Mul(rb.inverseMass)
	angularAcceleration := rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque)
	rb.LastFrameAcceleration = acceleration

	// ========== VELOCITIES ==========
	velocity := rb.Current.Velocity.Add(acceleration.Mul(dt))
	velocity = velocity.Mul(math.Pow(rb.Drag, dt))

	rb.AngularVelocity = rb.AngularVelocity.Add(angularAcceleration.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Pow(rb.AngularDrag, dt))

	// ========== POSITION (trapezoidal rule) ==========
	rb.Pending.Position = rb.Current.Position.Add(rb.Current.Velocity.Add(velocity).Mul(0.5 * dt))
	rb.Pending.Velocity = velocity

	// ========== ROTATION ==========
	rb.Rotate(rb.AngularVelocity.Mul(dt))

	rb.ClearAccumulators()
}

// Commit copies the pending state into the current state
func (rb *RigidBody) Commit() {
	rb.Current = rb.Pending
}

// AddForce accumulates a force (N) applied at the centre of mass and wakes the body
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}

	rb.SetAwake(true)
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
}

// AddTorque accumulates a torque (N⋅m) and wakes the body
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.IsStatic() {
		return
	}

	rb.SetAwake(true)
	rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
}

func (rb *RigidBody) ClearAccumulators() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

// Mass returns +Inf for static bodies
func (rb *RigidBody) Mass() float64 {
	if rb.inverseMass == 0 {
		return math.Inf(1)
	}

	return 1.0 / rb.inverseMass
}

func (rb *RigidBody) HasFiniteMass() bool {
	return rb.inverseMass > 0
}

func (rb *RigidBody) InverseInertiaLocal() mgl64.Mat3 {
	return rb.inverseInertiaLocal
}

// InverseInertiaWorld is R * I_local^(-1) * R^T, zero for static bodies
func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	return rb.inverseInertiaWorld
}

func (rb *RigidBody) updateInertiaWorld() {
	if rb.IsStatic() {
		rb.inverseInertiaWorld = mgl64.Mat3{}
		return
	}

	R := rb.rotation.Mat4().Mat3()
	rb.inverseInertiaWorld = R.Mul3(rb.inverseInertiaLocal).Mul3(R.Transpose())
}

func isFactor(v float64) bool {
	return v >= 0 && v <= 1
}

func orNoDrag(drag float64) float64 {
	if drag == 0 {
		return NoDrag
	}

	return drag
}
