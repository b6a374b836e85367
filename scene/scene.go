// Package scene describes simulations in YAML and builds the Galton board.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/galton"
	"github.com/akmonengine/galton/actor"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrUnknownShape is returned for a body whose shape name is not supported
var ErrUnknownShape = errors.New("unknown shape")

// File is the content of a scene file
type File struct {
	World galton.Config `yaml:"world"`
	// Board adds the default Galton board layout before Bodies
	Board   bool `yaml:"board"`
	Spheres int  `yaml:"spheres"`
	// SphereDiameter of the spawned spheres; 0 keeps the default
	SphereDiameter float64 `yaml:"sphere_diameter"`
	Cubes          int     `yaml:"cubes"`
	Bodies         []Body  `yaml:"bodies"`
}

// PlaneDef gives a plane by three of its points and an offset
type PlaneDef struct {
	Centre mgl64.Vec3 `yaml:"centre"`
	P1     mgl64.Vec3 `yaml:"p1"`
	P2     mgl64.Vec3 `yaml:"p2"`
	Offset float64    `yaml:"offset"`
}

// Body is one body of a scene file
type Body struct {
	Name  string `yaml:"name"`
	Shape string `yaml:"shape"` // sphere, aabb, obb, plane or cylinder

	Position mgl64.Vec3 `yaml:"position"`
	// Rotation holds XYZ Euler angles, in radians
	Rotation mgl64.Vec3 `yaml:"rotation"`
	Velocity mgl64.Vec3 `yaml:"velocity"`

	Radius      float64    `yaml:"radius"`
	HalfExtents mgl64.Vec3 `yaml:"half_extents"`
	HalfHeight  float64    `yaml:"half_height"`
	Plane       *PlaneDef  `yaml:"plane"`

	// A body without mass is static
	Mass float64 `yaml:"mass"`
	// Fraction of the velocity kept after one second; 0 means no drag
	Drag        float64 `yaml:"drag"`
	AngularDrag float64 `yaml:"angular_drag"`
	Gravity     bool    `yaml:"gravity"`
}

// Load reads and parses a scene file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}

	return Parse(data)
}

// Parse decodes a scene; missing world settings keep their default value
func Parse(data []byte) (*File, error) {
	file := &File{World: galton.DefaultConfig()}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}

	return file, nil
}

// Collider builds the shape of the body
func (b Body) Collider() (actor.Collider, error) {
	switch b.Shape {
	case "sphere":
		return &actor.Sphere{Radius: b.Radius}, nil
	case "aabb":
		return &actor.AABBCube{HalfExtents: b.HalfExtents}, nil
	case "obb":
		return &actor.OBBCube{HalfExtents: b.HalfExtents}, nil
	case "cylinder":
		return &actor.Cylinder{Radius: b.Radius, HalfHeight: b.HalfHeight}, nil
	case "plane":
		if b.Plane == nil {
			return nil, fmt.Errorf("body %q: plane without points: %w", b.Name, actor.ErrDegeneratePlane)
		}
		plane, err := actor.NewPlane(b.Plane.Centre, b.Plane.P1, b.Plane.P2, b.Plane.Offset)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.Name, err)
		}
		return plane, nil
	default:
		return nil, fmt.Errorf("body %q: %w %q", b.Name, ErrUnknownShape, b.Shape)
	}
}

// Def converts the body into the definition of a rigid body
func (b Body) Def() (actor.BodyDef, error) {
	shape, err := b.Collider()
	if err != nil {
		return actor.BodyDef{}, err
	}

	def := actor.BodyDef{
		Position:    b.Position,
		Rotation:    mgl64.AnglesToQuat(b.Rotation.X(), b.Rotation.Y(), b.Rotation.Z(), mgl64.XYZ),
		Velocity:    b.Velocity,
		Shape:       shape,
		BodyType:    actor.BodyTypeStatic,
		Drag:        actor.NoDrag,
		AngularDrag: actor.NoDrag,
		Id:          b.Name,
	}
	if b.Mass > 0 {
		def.BodyType = actor.BodyTypeDynamic
		def.Mass = b.Mass
		def.Drag = b.Drag
		def.AngularDrag = b.AngularDrag
		def.UseGravity = b.Gravity
	}

	return def, nil
}

// NewBody creates the rigid body described by b
func (b Body) NewBody() (*actor.RigidBody, error) {
	def, err := b.Def()
	if err != nil {
		return nil, err
	}

	body, err := actor.NewRigidBody(def)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", b.Name, err)
	}

	return body, nil
}
