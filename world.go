package galton

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/galton/actor"
	"github.com/akmonengine/galton/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is returned by NewWorld for a configuration that cannot run
var ErrInvalidConfig = errors.New("invalid world config")

const (
	DefaultFriction    = 0.4
	DefaultRestitution = 0.4
)

// Config holds the tunables of a World
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3 `yaml:"gravity"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`

	PositionIterations int     `yaml:"position_iterations"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionEpsilon    float64 `yaml:"position_epsilon"`
	VelocityEpsilon    float64 `yaml:"velocity_epsilon"`

	// SleepEnabled lets bodies fall asleep when their motion settles
	SleepEnabled bool `yaml:"sleep"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:            mgl64.Vec3{0, -9.81, 0},
		Friction:           DefaultFriction,
		Restitution:        DefaultRestitution,
		PositionIterations: constraint.DefaultPositionIterations,
		VelocityIterations: constraint.DefaultVelocityIterations,
		PositionEpsilon:    constraint.DefaultPositionEpsilon,
		VelocityEpsilon:    constraint.DefaultVelocityEpsilon,
	}
}

// Validate reports the first setting that would break the simulation
// Friction and restitution are clamped rather than rejected.
func (c Config) Validate() error {
	for _, v := range c.Gravity {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: gravity %v", ErrInvalidConfig, c.Gravity)
		}
	}
	if c.PositionIterations < 0 || c.VelocityIterations < 0 {
		return fmt.Errorf("%w: iterations %d/%d", ErrInvalidConfig, c.PositionIterations, c.VelocityIterations)
	}
	if !(c.PositionEpsilon >= 0) || !(c.VelocityEpsilon >= 0) {
		return fmt.Errorf("%w: epsilons %v/%v", ErrInvalidConfig, c.PositionEpsilon, c.VelocityEpsilon)
	}
	if math.IsNaN(c.Friction) || math.IsNaN(c.Restitution) {
		return fmt.Errorf("%w: friction %v restitution %v", ErrInvalidConfig, c.Friction, c.Restitution)
	}

	return nil
}

type World struct {
	// List of all rigid bodies in the world
	Bodies  []*actor.RigidBody
	Gravity mgl64.Vec3

	SleepEnabled bool

	Events Events

	narrowPhase *NarrowPhase
	resolver    *constraint.Resolver
	manifold    *constraint.Manifold
}

func NewWorld(config Config) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &World{
		Gravity:      config.Gravity,
		SleepEnabled: config.SleepEnabled,
		Events:       NewEvents(),
		narrowPhase:  NewNarrowPhase(config.Friction, config.Restitution),
		resolver: constraint.NewResolver(
			config.PositionIterations,
			config.VelocityIterations,
			config.PositionEpsilon,
			config.VelocityEpsilon,
		),
		manifold: constraint.NewManifold(64),
	}, nil
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	w.Events.forget(body)
}

func (w *World) SetFriction(friction float64) {
	w.narrowPhase.SetFriction(friction)
}

func (w *World) SetRestitution(restitution float64) {
	w.narrowPhase.SetRestitution(restitution)
}

func (w *World) Friction() float64 {
	return w.narrowPhase.Friction()
}

func (w *World) Restitution() float64 {
	return w.narrowPhase.Restitution()
}

// Manifold returns the contacts of the last step
func (w *World) Manifold() *constraint.Manifold {
	return w.manifold
}

func (w *World) Resolver() *constraint.Resolver {
	return w.resolver
}

// Step runs one tick: every phase completes for all bodies before the next one starts
// A negative dt is treated as a pause.
func (w *World) Step(dt float64) {
	if !(dt > 0) {
		dt = 0
	}

	// Phase 1: Forces and integration into the pending state
	w.Integrate(dt)

	// Phase 2: Narrow phase, on the pending positions
	w.narrowPhase.Detect(w.Bodies, w.manifold)
	w.Events.recordContacts(w.manifold)

	// Phase 3: Penetrations then velocities
	w.resolver.Resolve(w.manifold, dt)

	// Phase 4: Pending state becomes the current state
	w.Commit()

	if w.SleepEnabled {
		w.updateMotion(dt)
	}

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

// Integrate moves every awake body that uses gravity, leaving the result in its pending state
func (w *World) Integrate(dt float64) {
	for _, body := range w.Bodies {
		if !body.UseGravity || !body.IsAwake() {
			continue
		}

		body.Integrate(dt, w.Gravity)
	}
}

// Commit copies the pending state into the current state of every dynamic body
func (w *World) Commit() {
	for _, body := range w.Bodies {
		if body.IsStatic() {
			continue
		}

		body.Commit()
	}
}

func (w *World) updateMotion(dt float64) {
	for _, body := range w.Bodies {
		body.UpdateMotion(dt)
	}
}
