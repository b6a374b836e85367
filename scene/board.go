package scene

import (
	"fmt"
	"math"

	"github.com/akmonengine/galton"
	"github.com/akmonengine/galton/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Board geometry
const (
	// BinCount is the number of bins between the dividers
	BinCount = 10
	// BinWidth is the distance between two dividers
	BinWidth = 1.5
	// BinLeft is the x of the leftmost divider
	BinLeft = -7.5
	// BinTop is the height of the dividers top
	BinTop = 15.375

	// Sphere diameters the board spawns with
	DefaultSphereDiameter = 0.7
	MinSphereDiameter     = 0.1
	MaxSphereDiameter     = 0.9

	SphereMass         = 0.5
	SphereDrag         = 0.3
	SpheresPerRow      = 6
	DefaultSphereBatch = 200

	CubeHalfExtent = 0.45
	CubeMass       = 0.2
	CubeDrag       = 0.1
)

var (
	sphereOrigin  = mgl64.Vec3{-7.5, 38.75, 0}
	sphereSpacing = 15.0 / 7.0
	cubeSpawn     = mgl64.Vec3{0.3, 42.75, 0}
)

// Layout returns the static bodies of the board: floor and side planes, walls,
// bin dividers, peg rows and the funnel.
func Layout() []Body {
	var bodies []Body

	// Planes
	bodies = append(bodies,
		Body{Name: "floor", Shape: "plane", Plane: &PlaneDef{
			Centre: mgl64.Vec3{0, 1, 0}, P1: mgl64.Vec3{9.375, 1, 0}, P2: mgl64.Vec3{0, 1, 9.375}, Offset: -1,
		}},
		Body{Name: "left plane", Shape: "plane", Plane: &PlaneDef{
			Centre: mgl64.Vec3{-9.375, 45, 0}, P1: mgl64.Vec3{-9.375, 46, 0}, P2: mgl64.Vec3{-9.375, 45, 1}, Offset: 8.5,
		}},
		Body{Name: "right plane", Shape: "plane", Plane: &PlaneDef{
			Centre: mgl64.Vec3{9.375, 0, 0}, P1: mgl64.Vec3{9.375, 0, 1}, P2: mgl64.Vec3{9.375, 1, 0}, Offset: 8.5,
		}},
	)

	// Walls
	sideWall := mgl64.Vec3{0.375, 16.5, 3}
	topWall := mgl64.Vec3{3.75, 0.375, 3}
	bodies = append(bodies,
		Body{Name: "left wall", Shape: "aabb", Position: mgl64.Vec3{-9.375, 16.875, 0}, HalfExtents: sideWall},
		Body{Name: "right wall", Shape: "aabb", Position: mgl64.Vec3{9.375, 16.875, 0}, HalfExtents: sideWall},
		Body{Name: "back wall", Shape: "aabb", Position: mgl64.Vec3{0, 16.875, 3}, HalfExtents: mgl64.Vec3{9, 16.5, 0.375}},
		Body{Name: "top left wall", Shape: "aabb", Position: mgl64.Vec3{-5.25, 33.75, 0}, HalfExtents: topWall},
		Body{Name: "top right wall", Shape: "aabb", Position: mgl64.Vec3{5.25, 33.75, 0}, HalfExtents: topWall},
	)

	// Bin dividers
	for k := 0; k <= BinCount; k++ {
		bodies = append(bodies, Body{
			Name:        fmt.Sprintf("divider %d", k),
			Shape:       "aabb",
			Position:    mgl64.Vec3{BinLeft + BinWidth*float64(k), 7.875, 0},
			HalfExtents: mgl64.Vec3{0.0375, 7.5, 3},
		})
	}

	// Pegs: the cylinder axis goes along the depth of the board
	pegRows := []struct {
		y     float64
		x     float64
		count int
	}{
		{30, -6.75, 10},
		{27, -6, 9},
		{24, -6.75, 10},
		{21, -6, 9},
		{18, -6.75, 10},
	}
	for row, pegRow := range pegRows {
		for k := 0; k < pegRow.count; k++ {
			bodies = append(bodies, Body{
				Name:       fmt.Sprintf("peg %d.%d", row, k),
				Shape:      "cylinder",
				Position:   mgl64.Vec3{pegRow.x + 1.5*float64(k), pegRow.y, 0},
				Rotation:   mgl64.Vec3{math.Pi / 2, 0, 0},
				Radius:     0.075,
				HalfHeight: 3,
			})
		}
	}

	// Funnel
	funnel := mgl64.Vec3{4.5, 0.75, 3}
	bodies = append(bodies,
		Body{Name: "funnel left", Shape: "obb", Position: mgl64.Vec3{-5.75, 36.75, 0}, Rotation: mgl64.Vec3{0, 0, -math.Pi / 6}, HalfExtents: funnel},
		Body{Name: "funnel right", Shape: "obb", Position: mgl64.Vec3{5.75, 36.75, 0}, Rotation: mgl64.Vec3{0, 0, math.Pi / 6}, HalfExtents: funnel},
	)

	return bodies
}

// Board is a world holding a Galton board and the bodies dropped in it
type Board struct {
	World *galton.World
	// SphereDiameter is used by the next AddSpheres calls
	SphereDiameter float64

	movable []*actor.RigidBody
	spawned int
}

// NewBoard creates a world with the default layout
func NewBoard(config galton.Config) (*Board, error) {
	world, err := galton.NewWorld(config)
	if err != nil {
		return nil, err
	}

	board := &Board{World: world, SphereDiameter: DefaultSphereDiameter}
	if err := board.Add(Layout()...); err != nil {
		return nil, err
	}

	return board, nil
}

// Build creates the world described by a scene file
func Build(file *File) (*Board, error) {
	world, err := galton.NewWorld(file.World)
	if err != nil {
		return nil, err
	}

	board := &Board{World: world, SphereDiameter: DefaultSphereDiameter}
	if file.SphereDiameter != 0 {
		board.AddSphereDiameter(file.SphereDiameter - DefaultSphereDiameter)
	}
	if file.Board {
		if err := board.Add(Layout()...); err != nil {
			return nil, err
		}
	}
	if err := board.Add(file.Bodies...); err != nil {
		return nil, err
	}
	if err := board.AddSpheres(file.Spheres); err != nil {
		return nil, err
	}
	for i := 0; i < file.Cubes; i++ {
		if err := board.AddCube(); err != nil {
			return nil, err
		}
	}

	return board, nil
}

// Add creates bodies and adds them to the world
func (b *Board) Add(bodies ...Body) error {
	for _, desc := range bodies {
		body, err := desc.NewBody()
		if err != nil {
			return err
		}

		b.World.AddBody(body)
		if body.UseGravity {
			b.movable = append(b.movable, body)
		}
	}

	return nil
}

// AddSphereDiameter changes the diameter of the next spheres, within [MinSphereDiameter, MaxSphereDiameter]
func (b *Board) AddSphereDiameter(delta float64) {
	b.SphereDiameter = min(max(b.SphereDiameter+delta, MinSphereDiameter), MaxSphereDiameter)
}

// AddSpheres drops count spheres above the funnel, on rows of SpheresPerRow
func (b *Board) AddSpheres(count int) error {
	for i := 0; i < count; i++ {
		column := float64(i%SpheresPerRow + 1)
		row := float64(i / SpheresPerRow)

		err := b.Add(Body{
			Name:        fmt.Sprintf("sphere %d", b.spawned),
			Shape:       "sphere",
			Position:    sphereOrigin.Add(mgl64.Vec3{column * sphereSpacing, row * sphereSpacing, 0}),
			Radius:      b.SphereDiameter / 2,
			Mass:        SphereMass,
			Drag:        SphereDrag,
			AngularDrag: SphereDrag,
			Gravity:     true,
		})
		if err != nil {
			return err
		}
		b.spawned++
	}

	return nil
}

// AddCube drops a cube above the funnel
func (b *Board) AddCube() error {
	err := b.Add(Body{
		Name:        fmt.Sprintf("cube %d", b.spawned),
		Shape:       "obb",
		Position:    cubeSpawn,
		HalfExtents: mgl64.Vec3{CubeHalfExtent, CubeHalfExtent, CubeHalfExtent},
		Mass:        CubeMass,
		Drag:        CubeDrag,
		AngularDrag: CubeDrag,
		Gravity:     true,
	})
	if err != nil {
		return err
	}
	b.spawned++

	return nil
}

// ClearMovable removes every body that uses gravity
func (b *Board) ClearMovable() {
	for _, body := range b.movable {
		b.World.RemoveBody(body)
	}
	b.movable = b.movable[:0]
}

// Movable returns the bodies that use gravity
func (b *Board) Movable() []*actor.RigidBody {
	return b.movable
}

// BinIndex returns the bin holding x, or -1 outside of the bins
func BinIndex(x float64) int {
	if x < BinLeft || x > BinLeft+BinWidth*BinCount {
		return -1
	}

	return min(int((x-BinLeft)/BinWidth), BinCount-1)
}

// Histogram counts the spheres resting in each bin
func (b *Board) Histogram() [BinCount]int {
	var histogram [BinCount]int

	for _, body := range b.movable {
		if body.Shape.ShapeType() != actor.ShapeTypeSphere {
			continue
		}

		position := body.Current.Position
		if position.Y() > BinTop {
			continue
		}
		if bin := BinIndex(position.X()); bin >= 0 {
			histogram[bin]++
		}
	}

	return histogram
}
