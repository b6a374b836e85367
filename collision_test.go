package galton

import (
	"math"
	"testing"

	"github.com/akmonengine/galton/actor"
	"github.com/akmonengine/galton/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func vec3AlmostEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return almostEqual(a.X(), b.X(), tolerance) &&
		almostEqual(a.Y(), b.Y(), tolerance) &&
		almostEqual(a.Z(), b.Z(), tolerance)
}

func createBody(t *testing.T, def actor.BodyDef) *actor.RigidBody {
	t.Helper()

	rb, err := actor.NewRigidBody(def)
	if err != nil {
		t.Fatalf("NewRigidBody() error = %v", err)
	}

	return rb
}

// createSphere creates a falling sphere
func createSphere(t *testing.T, position mgl64.Vec3, radius float64) *actor.RigidBody {
	t.Helper()

	return createBody(t, actor.BodyDef{
		Position:   position,
		Shape:      &actor.Sphere{Radius: radius},
		Mass:       1,
		UseGravity: true,
	})
}

func createStatic(t *testing.T, position mgl64.Vec3, shape actor.Collider) *actor.RigidBody {
	t.Helper()

	return createBody(t, actor.BodyDef{
		Position: position,
		Shape:    shape,
		BodyType: actor.BodyTypeStatic,
	})
}

// createFloor creates the plane y = height
func createFloor(t *testing.T, height float64) *actor.RigidBody {
	t.Helper()

	plane, err := actor.NewPlane(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, -height)
	if err != nil {
		t.Fatalf("NewPlane() error = %v", err)
	}

	return createStatic(t, mgl64.Vec3{}, plane)
}

func detectPair(t *testing.T, a, b *actor.RigidBody) (constraint.ManifoldPoint, bool) {
	t.Helper()

	manifold := constraint.NewManifold(1)
	NewNarrowPhase(DefaultFriction, DefaultRestitution).Detect([]*actor.RigidBody{a, b}, manifold)

	switch manifold.Len() {
	case 0:
		return constraint.ManifoldPoint{}, false
	case 1:
		return *manifold.Point(0), true
	default:
		t.Fatalf("a pair gave %d contacts", manifold.Len())
		return constraint.ManifoldPoint{}, false
	}
}

// checkNormal verifies the normal points from Bodies[1], or the detected body, toward Bodies[0]
func checkNormal(t *testing.T, p constraint.ManifoldPoint) {
	t.Helper()

	if !almostEqual(p.Normal.Len(), 1, 1e-9) {
		t.Errorf("|Normal| = %v, want 1", p.Normal.Len())
	}

	other := p.Bodies[1]
	if other == nil {
		other = p.Other
	}
	if other == nil || other.Shape.ShapeType() == actor.ShapeTypePlane {
		return
	}

	if p.Bodies[0].Pending.Position.Sub(other.Pending.Position).Dot(p.Normal) <= 0 {
		t.Errorf("Normal %v does not point toward Bodies[0]", p.Normal)
	}
}

// =============================================================================
// Sphere Tests
// =============================================================================

func TestDetect_SphereSphere(t *testing.T) {
	tests := []struct {
		name        string
		positionB   mgl64.Vec3
		wantContact bool
		wantPen     float64
		wantNormal  mgl64.Vec3
		wantPoint   mgl64.Vec3
	}{
		{"overlap on x", mgl64.Vec3{0.8, 0, 0}, true, 0.2, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0.4, 0, 0}},
		{"overlap on y", mgl64.Vec3{0, -0.5, 0}, true, 0.5, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -0.25, 0}},
		{"coincident centres", mgl64.Vec3{0, 0, 0}, true, 1, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 0}},
		{"touching", mgl64.Vec3{1, 0, 0}, false, 0, mgl64.Vec3{}, mgl64.Vec3{}},
		{"apart", mgl64.Vec3{0, 3, 0}, false, 0, mgl64.Vec3{}, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createSphere(t, mgl64.Vec3{0, 0, 0}, 0.5)
			b := createSphere(t, tt.positionB, 0.5)

			p, ok := detectPair(t, a, b)
			if ok != tt.wantContact {
				t.Fatalf("contact = %v, want %v", ok, tt.wantContact)
			}
			if !ok {
				return
			}

			if p.Bodies != [2]*actor.RigidBody{a, b} {
				t.Error("both spheres should be attached to the contact")
			}
			if p.Other != nil {
				t.Error("Other is only set for one-body contacts")
			}
			if !almostEqual(p.Penetration, tt.wantPen, 1e-12) {
				t.Errorf("Penetration = %v, want %v", p.Penetration, tt.wantPen)
			}
			if !vec3AlmostEqual(p.Normal, tt.wantNormal, 1e-12) {
				t.Errorf("Normal = %v, want %v", p.Normal, tt.wantNormal)
			}
			if !vec3AlmostEqual(p.Point, tt.wantPoint, 1e-12) {
				t.Errorf("Point = %v, want %v", p.Point, tt.wantPoint)
			}
		})
	}
}

func TestDetect_SpherePairProperty(t *testing.T) {
	// A contact exists exactly when the centres are closer than the radius sum
	for i := 0; i < 50; i++ {
		offset := mgl64.Vec3{math.Cos(float64(i)), math.Sin(float64(i) * 0.7), math.Sin(float64(i))}.Mul(float64(i) * 0.03)
		a := createSphere(t, mgl64.Vec3{1, 2, 3}, 0.35)
		b := createSphere(t, mgl64.Vec3{1, 2, 3}.Add(offset), 0.4)

		p, ok := detectPair(t, a, b)
		distance := offset.Len()
		if ok != (distance < 0.75) {
			t.Fatalf("distance %v: contact = %v", distance, ok)
		}
		if ok {
			if !almostEqual(p.Penetration, 0.75-distance, 1e-12) {
				t.Errorf("distance %v: Penetration = %v", distance, p.Penetration)
			}
			if distance > 0 {
				checkNormal(t, p)
			}
		}
	}
}

func TestDetect_SpherePlane(t *testing.T) {
	tests := []struct {
		name        string
		height      float64
		position    mgl64.Vec3
		wantContact bool
		wantPen     float64
	}{
		{"sunk", 0, mgl64.Vec3{2, 0.3, -1}, true, 0.2},
		{"touching", 0, mgl64.Vec3{0, 0.5, 0}, true, 0},
		{"centre below", 0, mgl64.Vec3{0, -0.2, 0}, true, 0.7},
		{"above", 0, mgl64.Vec3{0, 0.6, 0}, false, 0},
		{"offset plane", 1, mgl64.Vec3{0, 1.3, 0}, true, 0.2},
		{"above offset plane", 1, mgl64.Vec3{0, 1.6, 0}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floor := createFloor(t, tt.height)
			sphere := createSphere(t, tt.position, 0.5)

			p, ok := detectPair(t, sphere, floor)
			if ok != tt.wantContact {
				t.Fatalf("contact = %v, want %v", ok, tt.wantContact)
			}
			if !ok {
				return
			}

			if p.Bodies[0] != sphere || p.Bodies[1] != nil || p.Other != floor {
				t.Error("the contact should hold the sphere only, against the floor")
			}
			if !almostEqual(p.Penetration, tt.wantPen, 1e-12) {
				t.Errorf("Penetration = %v, want %v", p.Penetration, tt.wantPen)
			}
			if !vec3AlmostEqual(p.Normal, mgl64.Vec3{0, 1, 0}, 1e-12) {
				t.Errorf("Normal = %v, want {0, 1, 0}", p.Normal)
			}
			wantPoint := mgl64.Vec3{tt.position.X(), tt.height, tt.position.Z()}
			if !vec3AlmostEqual(p.Point, wantPoint, 1e-12) {
				t.Errorf("Point = %v, want %v", p.Point, wantPoint)
			}
		})
	}
}

func TestDetect_SphereWallPlane(t *testing.T) {
	// Points ordered like the left wall of the board: the normal faces +X
	plane, err := actor.NewPlane(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}, 7.5)
	if err != nil {
		t.Fatalf("NewPlane() error = %v", err)
	}
	wall := createStatic(t, mgl64.Vec3{}, plane)
	sphere := createSphere(t, mgl64.Vec3{-7.2, 3, 0}, 0.35)

	p, ok := detectPair(t, wall, sphere)
	if !ok {
		t.Fatal("expected a contact with the wall")
	}
	if !vec3AlmostEqual(p.Normal, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Normal = %v, want {1, 0, 0}", p.Normal)
	}
	if !almostEqual(p.Penetration, 0.05, 1e-12) {
		t.Errorf("Penetration = %v, want 0.05", p.Penetration)
	}
}

func TestDetect_SphereAABB(t *testing.T) {
	tests := []struct {
		name       string
		position   mgl64.Vec3
		wantPen    float64
		wantNormal mgl64.Vec3
		wantPoint  mgl64.Vec3
	}{
		{"on top", mgl64.Vec3{0, 1.3, 0}, 0.2, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"on the side", mgl64.Vec3{-1.4, 0.5, 0.2}, 0.1, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{-1, 0.5, 0.2}},
		{"centre inside", mgl64.Vec3{0, 0.9, 0}, 0.6, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := createStatic(t, mgl64.Vec3{0, 0, 0}, &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
			sphere := createSphere(t, tt.position, 0.5)

			p, ok := detectPair(t, sphere, box)
			if !ok {
				t.Fatal("expected a contact")
			}
			if p.Bodies[0] != sphere || p.Bodies[1] != nil || p.Other != box {
				t.Error("the contact should hold the sphere only, against the box")
			}
			if !almostEqual(p.Penetration, tt.wantPen, 1e-12) {
				t.Errorf("Penetration = %v, want %v", p.Penetration, tt.wantPen)
			}
			if !vec3AlmostEqual(p.Normal, tt.wantNormal, 1e-12) {
				t.Errorf("Normal = %v, want %v", p.Normal, tt.wantNormal)
			}
			if !vec3AlmostEqual(p.Point, tt.wantPoint, 1e-12) {
				t.Errorf("Point = %v, want %v", p.Point, tt.wantPoint)
			}
		})
	}

	box := createStatic(t, mgl64.Vec3{0, 0, 0}, &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
	if _, ok := detectPair(t, createSphere(t, mgl64.Vec3{1.4, 1.4, 0}, 0.5), box); ok {
		t.Error("a sphere beyond the box edge should not touch it")
	}

	// Away from the origin
	box = createStatic(t, mgl64.Vec3{10, -2, 0}, &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
	offsets := []struct {
		position  mgl64.Vec3
		wantPen   float64
		wantPoint mgl64.Vec3
	}{
		{mgl64.Vec3{10, -0.7, 0}, 0.2, mgl64.Vec3{10, -1, 0}},
		{mgl64.Vec3{10, -2.1, 0}, 1.4, mgl64.Vec3{10, -3, 0}},
	}
	for _, tt := range offsets {
		p, ok := detectPair(t, createSphere(t, tt.position, 0.5), box)
		if !ok {
			t.Fatalf("expected a contact at %v", tt.position)
		}
		if !almostEqual(p.Penetration, tt.wantPen, 1e-12) || !vec3AlmostEqual(p.Point, tt.wantPoint, 1e-12) {
			t.Errorf("at %v: Penetration = %v, Point = %v, want %v, %v", tt.position, p.Penetration, p.Point, tt.wantPen, tt.wantPoint)
		}
	}
}

func TestDetect_SphereOBB(t *testing.T) {
	// A cube standing on its edge: the top edge is at y = √2
	box := createBody(t, actor.BodyDef{
		Shape:    &actor.OBBCube{HalfExtents: mgl64.Vec3{1, 1, 1}},
		Rotation: mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}),
		BodyType: actor.BodyTypeStatic,
	})

	sphere := createSphere(t, mgl64.Vec3{0, math.Sqrt2 + 0.3, 0}, 0.5)
	p, ok := detectPair(t, sphere, box)
	if !ok {
		t.Fatal("expected a contact on the rotated edge")
	}
	if !almostEqual(p.Penetration, 0.2, 1e-9) {
		t.Errorf("Penetration = %v, want 0.2", p.Penetration)
	}
	if !vec3AlmostEqual(p.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("Normal = %v, want {0, 1, 0}", p.Normal)
	}
	if p.Bodies[1] != nil || p.Other != box {
		t.Error("the box should never be attached to the contact")
	}

	// Against the unrotated box this sphere would be sunk by 0.2
	sphere = createSphere(t, mgl64.Vec3{0.9, 1.3, 0}, 0.5)
	if _, ok := detectPair(t, sphere, box); ok {
		t.Error("the sphere is clear of the rotated box")
	}
}

func TestDetect_SphereOBBWithoutGravity(t *testing.T) {
	box := createStatic(t, mgl64.Vec3{}, &actor.OBBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
	sphere := createBody(t, actor.BodyDef{
		Position: mgl64.Vec3{0, 1.3, 0},
		Shape:    &actor.Sphere{Radius: 0.5},
		Mass:     1,
	})

	if _, ok := detectPair(t, sphere, box); ok {
		t.Error("a sphere that does not use gravity should be ignored by boxes")
	}
}

// =============================================================================
// Cylinder Tests
// =============================================================================

func TestDetect_SphereCylinder(t *testing.T) {
	// Pegs lie along Z: the depth of the sphere does not matter
	peg := createBody(t, actor.BodyDef{
		Position: mgl64.Vec3{0, 0, 5},
		Rotation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0}),
		Shape:    &actor.Cylinder{Radius: 0.2, HalfHeight: 1},
		BodyType: actor.BodyTypeStatic,
	})

	for _, z := range []float64{-3, 0, 0.35, 12} {
		sphere := createSphere(t, mgl64.Vec3{0.6, 0, z}, 0.5)

		p, ok := detectPair(t, sphere, peg)
		if !ok {
			t.Fatalf("z = %v: expected a contact", z)
		}
		if !almostEqual(p.Penetration, 0.1, 1e-12) {
			t.Errorf("z = %v: Penetration = %v, want 0.1", z, p.Penetration)
		}
		if !vec3AlmostEqual(p.Normal, mgl64.Vec3{1, 0, 0}, 1e-12) {
			t.Errorf("z = %v: Normal = %v, want {1, 0, 0}", z, p.Normal)
		}
		if p.Point.Z() != z {
			t.Errorf("z = %v: Point = %v, should stay at the sphere depth", z, p.Point)
		}
		if p.Bodies[1] != nil || p.Other != peg {
			t.Errorf("z = %v: the peg should never be attached to the contact", z)
		}
	}

	sphere := createSphere(t, mgl64.Vec3{0.8, 0, 5}, 0.5)
	if _, ok := detectPair(t, sphere, peg); ok {
		t.Error("a sphere 0.8 away from a peg of radius 0.2 should not touch it")
	}
}

func TestDetect_CylinderOBB(t *testing.T) {
	peg := createStatic(t, mgl64.Vec3{0, 0, 3}, &actor.Cylinder{Radius: 0.3, HalfHeight: 1})
	cube := createBody(t, actor.BodyDef{
		Position:   mgl64.Vec3{0.5, 0, 0},
		Shape:      &actor.OBBCube{HalfExtents: mgl64.Vec3{0.25, 0.25, 0.25}},
		Mass:       0.2,
		UseGravity: true,
	})

	p, ok := detectPair(t, peg, cube)
	if !ok {
		t.Fatal("expected a contact")
	}
	if p.Bodies[0] != cube || p.Bodies[1] != nil || p.Other != peg {
		t.Error("the cube should be the only body of the contact")
	}
	if !almostEqual(p.Penetration, 0.05, 1e-12) {
		t.Errorf("Penetration = %v, want 0.05", p.Penetration)
	}
	if !vec3AlmostEqual(p.Normal, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Normal = %v, want {1, 0, 0}", p.Normal)
	}
	if !vec3AlmostEqual(p.Point, mgl64.Vec3{0.25, 0, 0}, 1e-12) {
		t.Errorf("Point = %v, want {0.25, 0, 0}", p.Point)
	}

	cube.UseGravity = false
	if _, ok := detectPair(t, peg, cube); ok {
		t.Error("a cube that does not use gravity should be ignored by pegs")
	}
}

// =============================================================================
// Box Tests
// =============================================================================

func TestDetect_OBBPlane(t *testing.T) {
	floor := createFloor(t, 0)
	cube := createBody(t, actor.BodyDef{
		Position:   mgl64.Vec3{0, 0.4, 0},
		Shape:      &actor.OBBCube{HalfExtents: mgl64.Vec3{0.45, 0.45, 0.45}},
		Mass:       0.2,
		UseGravity: true,
	})

	p, ok := detectPair(t, floor, cube)
	if !ok {
		t.Fatal("expected a contact")
	}
	if p.Bodies[0] != cube || p.Other != floor {
		t.Error("the cube should be the only body of the contact")
	}
	if !almostEqual(p.Penetration, 0.05, 1e-12) {
		t.Errorf("Penetration = %v, want 0.05", p.Penetration)
	}
}

func TestDetect_OBBOBB(t *testing.T) {
	funnel := createBody(t, actor.BodyDef{
		Position: mgl64.Vec3{0, 0, 0},
		Shape:    &actor.OBBCube{HalfExtents: mgl64.Vec3{2, 0.1, 1}},
		BodyType: actor.BodyTypeStatic,
	})
	cube := createBody(t, actor.BodyDef{
		Position:   mgl64.Vec3{0.5, 0.5, 0},
		Shape:      &actor.OBBCube{HalfExtents: mgl64.Vec3{0.45, 0.45, 0.45}},
		Mass:       0.2,
		UseGravity: true,
	})

	for _, order := range [][2]*actor.RigidBody{{funnel, cube}, {cube, funnel}} {
		p, ok := detectPair(t, order[0], order[1])
		if !ok {
			t.Fatal("expected a contact")
		}
		if p.Bodies[0] != cube || p.Bodies[1] != nil || p.Other != funnel {
			t.Error("the falling cube should be the only body of the contact")
		}
		if !almostEqual(p.Penetration, 0.05, 1e-12) {
			t.Errorf("Penetration = %v, want 0.05", p.Penetration)
		}
		if !vec3AlmostEqual(p.Normal, mgl64.Vec3{0, 1, 0}, 1e-12) {
			t.Errorf("Normal = %v, want {0, 1, 0}", p.Normal)
		}
	}
}

func TestDetect_UnsupportedPairs(t *testing.T) {
	aabb := createBody(t, actor.BodyDef{
		Shape:      &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}},
		Mass:       1,
		UseGravity: true,
	})
	obb := createBody(t, actor.BodyDef{
		Shape:      &actor.OBBCube{HalfExtents: mgl64.Vec3{1, 1, 1}},
		Mass:       1,
		UseGravity: true,
	})
	otherAABB := createStatic(t, mgl64.Vec3{0.5, 0, 0}, &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
	peg := createStatic(t, mgl64.Vec3{0.5, 0, 0}, &actor.Cylinder{Radius: 1, HalfHeight: 1})

	pairs := []struct {
		name string
		a, b *actor.RigidBody
	}{
		{"aabb obb", aabb, obb},
		{"aabb aabb", aabb, otherAABB},
		{"aabb cylinder", aabb, peg},
		{"aabb plane", aabb, createFloor(t, 0)},
	}

	for _, pair := range pairs {
		t.Run(pair.name, func(t *testing.T) {
			if _, ok := detectPair(t, pair.a, pair.b); ok {
				t.Error("overlapping shapes without a routine should not collide")
			}
		})
	}
}

// =============================================================================
// Narrow Phase Tests
// =============================================================================

func TestDetect_OrderDoesNotMatter(t *testing.T) {
	floor := createFloor(t, 0)
	box := createStatic(t, mgl64.Vec3{3, 0, 0}, &actor.AABBCube{HalfExtents: mgl64.Vec3{1, 1, 1}})
	peg := createStatic(t, mgl64.Vec3{-3, 0, 0}, &actor.Cylinder{Radius: 0.2, HalfHeight: 1})

	pairs := []struct {
		name  string
		other *actor.RigidBody
		at    mgl64.Vec3
	}{
		{"plane", floor, mgl64.Vec3{0, 0.3, 0}},
		{"aabb", box, mgl64.Vec3{3, 1.3, 0}},
		{"cylinder", peg, mgl64.Vec3{-3, 0.6, 0}},
	}

	for _, pair := range pairs {
		t.Run(pair.name, func(t *testing.T) {
			sphere := createSphere(t, pair.at, 0.5)

			p1, ok1 := detectPair(t, sphere, pair.other)
			p2, ok2 := detectPair(t, pair.other, sphere)
			if !ok1 || !ok2 {
				t.Fatalf("contacts = %v/%v, want both", ok1, ok2)
			}
			if p1.Bodies != p2.Bodies || p1.Other != p2.Other {
				t.Error("bodies differ with the order of the pair")
			}
			if p1.Normal != p2.Normal || p1.Penetration != p2.Penetration || p1.Point != p2.Point {
				t.Errorf("contacts differ: %+v / %+v", p1, p2)
			}
			checkNormal(t, p1)
		})
	}

	// Both spheres are attached: the normal follows the first one
	a := createSphere(t, mgl64.Vec3{0, 0, 0}, 0.5)
	b := createSphere(t, mgl64.Vec3{0.3, 0.4, 0}, 0.5)
	p1, _ := detectPair(t, a, b)
	p2, _ := detectPair(t, b, a)
	if p1.Penetration != p2.Penetration || !vec3AlmostEqual(p1.Normal, p2.Normal.Mul(-1), 1e-12) {
		t.Errorf("swapped spheres: %+v / %+v", p1, p2)
	}
	checkNormal(t, p1)
	checkNormal(t, p2)
}

func TestDetect_SkipsImmovablePairs(t *testing.T) {
	bodies := []*actor.RigidBody{
		createStatic(t, mgl64.Vec3{}, &actor.Sphere{Radius: 1}),
		createStatic(t, mgl64.Vec3{0.5, 0, 0}, &actor.Sphere{Radius: 1}),
		createFloor(t, 0),
	}

	manifold := constraint.NewManifold(4)
	NewNarrowPhase(DefaultFriction, DefaultRestitution).Detect(bodies, manifold)

	if manifold.Len() != 0 {
		t.Errorf("got %d contacts between static bodies", manifold.Len())
	}
}

func TestDetect_SkipsImmovableSingleBodyContacts(t *testing.T) {
	// The sphere routine attaches the sphere only, which cannot move
	ball := createStatic(t, mgl64.Vec3{0, 0, 0}, &actor.Sphere{Radius: 0.5})
	crate := createBody(t, actor.BodyDef{
		Position:   mgl64.Vec3{0, 0.8, 0},
		Shape:      &actor.AABBCube{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		Mass:       1,
		UseGravity: true,
	})

	for _, bodies := range [][]*actor.RigidBody{{ball, crate}, {crate, ball}} {
		manifold := constraint.NewManifold(1)
		NewNarrowPhase(DefaultFriction, DefaultRestitution).Detect(bodies, manifold)
		if manifold.Len() != 0 {
			t.Errorf("got %d contacts, want 0", manifold.Len())
		}
	}

	// The movable body still collides
	if _, ok := detectPair(t, createSphere(t, mgl64.Vec3{0, 0.8, 0}, 0.5), createStatic(t, mgl64.Vec3{}, &actor.AABBCube{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})); !ok {
		t.Error("a dynamic sphere should touch the static box")
	}
}

func TestDetect_ClearsManifold(t *testing.T) {
	floor := createFloor(t, 0)
	sphere := createSphere(t, mgl64.Vec3{0, 0.3, 0}, 0.5)
	bodies := []*actor.RigidBody{floor, sphere}

	manifold := constraint.NewManifold(4)
	np := NewNarrowPhase(DefaultFriction, DefaultRestitution)
	np.Detect(bodies, manifold)
	np.Detect(bodies, manifold)
	if manifold.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", manifold.Len())
	}

	sphere.SetPosition(mgl64.Vec3{0, 3, 0})
	np.Detect(bodies, manifold)
	if manifold.Len() != 0 {
		t.Errorf("Len() = %d, want 0", manifold.Len())
	}
}

func TestNarrowPhase_Coefficients(t *testing.T) {
	tests := []struct {
		name            string
		friction        float64
		restitution     float64
		wantFriction    float64
		wantRestitution float64
	}{
		{"defaults", DefaultFriction, DefaultRestitution, 0.4, 0.4},
		{"negative", -1, -0.5, 0, 0},
		{"restitution above one", 2, 1.5, 2, 1},
		{"zero", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := NewNarrowPhase(tt.friction, tt.restitution)
			if np.Friction() != tt.wantFriction || np.Restitution() != tt.wantRestitution {
				t.Fatalf("coefficients = %v/%v, want %v/%v", np.Friction(), np.Restitution(), tt.wantFriction, tt.wantRestitution)
			}

			manifold := constraint.NewManifold(1)
			np.Detect([]*actor.RigidBody{createFloor(t, 0), createSphere(t, mgl64.Vec3{0, 0.3, 0}, 0.5)}, manifold)
			p := manifold.Point(0)
			if p.Friction != tt.wantFriction || p.Restitution != tt.wantRestitution {
				t.Errorf("contact coefficients = %v/%v, want %v/%v", p.Friction, p.Restitution, tt.wantFriction, tt.wantRestitution)
			}
		})
	}
}

func BenchmarkDetect(b *testing.B) {
	world, err := NewWorld(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < 200; i++ {
		rb, err := actor.NewRigidBody(actor.BodyDef{
			Position:    mgl64.Vec3{float64(i%10) * 0.9, float64(i/10) * 0.9, 0},
			Shape:       &actor.Sphere{Radius: 0.5},
			Mass:        1,
			Drag:        actor.NoDrag,
			AngularDrag: actor.NoDrag,
			UseGravity:  true,
		})
		if err != nil {
			b.Fatal(err)
		}
		world.AddBody(rb)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.narrowPhase.Detect(world.Bodies, world.manifold)
	}
}
