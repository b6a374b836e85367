package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidShape is returned for missing shapes, non-positive extents, or shapes that cannot carry mass
	ErrInvalidShape = errors.New("invalid shape")
	// ErrDegeneratePlane is returned when the points defining a plane do not span one
	ErrDegeneratePlane = errors.New("degenerate plane")
)

// ShapeType is the discriminant used to dispatch collision routines
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeAABBCube
	ShapeTypeOBBCube
	ShapeTypePlane
	ShapeTypeCylinder

	// ShapeTypeCount sizes the lookup tables indexed by ShapeType
	ShapeTypeCount
)

func (s ShapeType) String() string {
	switch s {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeAABBCube:
		return "aabb"
	case ShapeTypeOBBCube:
		return "obb"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeCylinder:
		return "cylinder"
	default:
		return fmt.Sprintf("ShapeType(%d)", int(s))
	}
}

// Collider is the closed set of collision shapes: Sphere, AABBCube, OBBCube, Plane and Cylinder.
type Collider interface {
	ShapeType() ShapeType
	// ComputeInertia returns the local inertia tensor for the given mass
	ComputeInertia(mass float64) mgl64.Mat3
	// BoundingRadius is the radius used when the shape is approximated by a sphere
	BoundingRadius() float64
	Validate() error

	collider()
}

// Sphere is a sphere centred on the body position
type Sphere struct {
	Radius float64
}

func (s *Sphere) ShapeType() ShapeType { return ShapeTypeSphere }
func (s *Sphere) collider()            {}

func (s *Sphere) BoundingRadius() float64 {
	return s.Radius
}

func (s *Sphere) Validate() error {
	if !positive(s.Radius) {
		return fmt.Errorf("%w: sphere radius %v", ErrInvalidShape, s.Radius)
	}

	return nil
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = 2/5 * m * r²
	i := 0.4 * mass * s.Radius * s.Radius

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

// AABBCube is a box that stays aligned with the world axes whatever the body rotation
type AABBCube struct {
	HalfExtents mgl64.Vec3
}

func (b *AABBCube) ShapeType() ShapeType { return ShapeTypeAABBCube }
func (b *AABBCube) collider()            {}

func (b *AABBCube) BoundingRadius() float64 {
	return maxComponent(b.HalfExtents)
}

func (b *AABBCube) Validate() error {
	return validateHalfExtents("aabb", b.HalfExtents)
}

func (b *AABBCube) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(b.HalfExtents, mass)
}

// Bounds returns the world space box for a body centred at position
func (b *AABBCube) Bounds(position mgl64.Vec3) AABB {
	return AABB{
		Min: position.Sub(b.HalfExtents),
		Max: position.Add(b.HalfExtents),
	}
}

// OBBCube is a box that follows the body rotation
type OBBCube struct {
	HalfExtents mgl64.Vec3
}

func (b *OBBCube) ShapeType() ShapeType { return ShapeTypeOBBCube }
func (b *OBBCube) collider()            {}

func (b *OBBCube) BoundingRadius() float64 {
	return maxComponent(b.HalfExtents)
}

func (b *OBBCube) Validate() error {
	return validateHalfExtents("obb", b.HalfExtents)
}

func (b *OBBCube) ComputeInertia(mass float64) mgl64.Mat3 {
	return boxInertia(b.HalfExtents, mass)
}

// LocalBounds returns the box in its own frame
func (b *OBBCube) LocalBounds() AABB {
	return AABB{Min: b.HalfExtents.Mul(-1), Max: b.HalfExtents}
}

// Plane is an infinite plane: Normal·p + Offset = 0
// Planes carry no mass and can only be attached to static bodies.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

// NewPlane creates a plane whose normal is (p1-centre)×(p2-centre), normalized
func NewPlane(centre, p1, p2 mgl64.Vec3, offset float64) (*Plane, error) {
	p := &Plane{}
	if err := p.SetNormal(centre, p1, p2); err != nil {
		return nil, err
	}
	p.SetOffset(offset)

	return p, nil
}

func (p *Plane) ShapeType() ShapeType { return ShapeTypePlane }
func (p *Plane) collider()            {}

// SetNormal recomputes the normal from three points of the plane
func (p *Plane) SetNormal(centre, p1, p2 mgl64.Vec3) error {
	normal := p1.Sub(centre).Cross(p2.Sub(centre))
	length := normal.Len()
	if length < 1e-12 || math.IsNaN(length) {
		return fmt.Errorf("%w: points %v %v %v are collinear", ErrDegeneratePlane, centre, p1, p2)
	}

	p.Normal = normal.Mul(1.0 / length)

	return nil
}

func (p *Plane) SetOffset(offset float64) {
	p.Offset = offset
}

func (p *Plane) BoundingRadius() float64 {
	return math.Inf(1)
}

func (p *Plane) Validate() error {
	if math.Abs(p.Normal.Len()-1.0) > 1e-6 {
		return fmt.Errorf("%w: plane normal %v is not unit length", ErrDegeneratePlane, p.Normal)
	}

	return nil
}

// ComputeInertia returns a zero tensor, a plane cannot rotate
func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Cylinder is a solid cylinder whose axis is the local Y axis
type Cylinder struct {
	Radius     float64
	HalfHeight float64
}

func (c *Cylinder) ShapeType() ShapeType { return ShapeTypeCylinder }
func (c *Cylinder) collider()            {}

func (c *Cylinder) BoundingRadius() float64 {
	return math.Hypot(c.Radius, c.HalfHeight)
}

func (c *Cylinder) Validate() error {
	if !positive(c.Radius) || !positive(c.HalfHeight) {
		return fmt.Errorf("%w: cylinder radius %v half height %v", ErrInvalidShape, c.Radius, c.HalfHeight)
	}

	return nil
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	h := c.HalfHeight * 2
	r2 := c.Radius * c.Radius

	// Across the axis: m(3r² + h²)/12, along the axis: m r²/2
	across := mass * (3*r2 + h*h) / 12.0
	along := mass * r2 / 2.0

	return mgl64.Diag3(mgl64.Vec3{across, along, across})
}

func boxInertia(halfExtents mgl64.Vec3, mass float64) mgl64.Mat3 {
	// Full dimensions
	x := halfExtents.X() * 2
	y := halfExtents.Y() * 2
	z := halfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func validateHalfExtents(name string, halfExtents mgl64.Vec3) error {
	for _, v := range halfExtents {
		if !positive(v) {
			return fmt.Errorf("%w: %s half extents %v", ErrInvalidShape, name, halfExtents)
		}
	}

	return nil
}

func maxComponent(v mgl64.Vec3) float64 {
	return math.Max(v.X(), math.Max(v.Y(), v.Z()))
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
