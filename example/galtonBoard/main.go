package main

import (
	"flag"
	"log"
	"strings"

	"github.com/akmonengine/galton"
	"github.com/akmonengine/galton/actor"
	"github.com/akmonengine/galton/scene"
)

func main() {
	scenePath := flag.String("scene", "", "scene file, the default board when empty")
	frames := flag.Int("frames", 1200, "number of frames to simulate")
	frameTime := flag.Float64("dt", 1.0/60.0, "frame time in seconds")
	timeScale := flag.Int("timescale", 1, "simulation speed multiplier")
	spheres := flag.Int("spheres", scene.DefaultSphereBatch, "spheres dropped on the default board")
	diameter := flag.Float64("diameter", scene.DefaultSphereDiameter, "sphere diameter on the default board, clamped to [0.1, 0.9]")
	flag.Parse()

	board, err := loadBoard(*scenePath, *spheres, *diameter)
	if err != nil {
		log.Fatalf("Galton: %v", err)
	}
	world := board.World

	// Count the sphere against sphere hits
	hits := 0
	world.Events.Subscribe(galton.COLLISION_ENTER, func(event galton.Event) {
		e := event.(galton.CollisionEnterEvent)
		if isSphere(e.BodyA) && isSphere(e.BodyB) {
			hits++
		}
	})

	clock := galton.NewClock()
	clock.AddTimeScale(*timeScale - 1)

	log.Printf("Galton: %d bodies, %d movable", len(world.Bodies), len(board.Movable()))
	for frame := 1; frame <= *frames; frame++ {
		world.Step(clock.Tick(*frameTime))

		if frame%300 == 0 {
			log.Printf("Galton: frame %d, %d contacts, %d/%d iterations",
				frame, world.Manifold().Len(),
				world.Resolver().PositionIterationsUsed(), world.Resolver().VelocityIterationsUsed())
		}
	}

	log.Printf("Galton: %d sphere collisions", hits)
	for bin, count := range board.Histogram() {
		log.Printf("bin %2d | %3d %s", bin, count, strings.Repeat("#", count))
	}
}

func loadBoard(path string, spheres int, diameter float64) (*scene.Board, error) {
	if path == "" {
		board, err := scene.NewBoard(galton.DefaultConfig())
		if err != nil {
			return nil, err
		}
		board.AddSphereDiameter(diameter - board.SphereDiameter)
		if err := board.AddSpheres(spheres); err != nil {
			return nil, err
		}
		return board, board.AddCube()
	}

	file, err := scene.Load(path)
	if err != nil {
		return nil, err
	}

	return scene.Build(file)
}

func isSphere(body *actor.RigidBody) bool {
	return body != nil && body.Shape.ShapeType() == actor.ShapeTypeSphere
}
