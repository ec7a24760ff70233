package main

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/scene"
)

const gridSize = 8

// Orbit moves an entity around Center
type Orbit struct {
	Center mgl32.Vec2
	Radius float32
	Speed  float32 // degrees per second
	Angle  float32
}

type orbiting struct {
	*scene.Transform
	*Orbit
}

type OrbitSystem struct {
	Bodies ecs.Query[orbiting]
}

func (s *OrbitSystem) Execute(frame *ecs.UpdateFrame) {
	for body := range s.Bodies.Values() {
		o := body.Orbit
		o.Angle = float32(math.Mod(float64(o.Angle+o.Speed*float32(frame.DeltaTime)), 360))
		rad := mgl32.DegToRad(o.Angle)
		body.Position[0] = o.Center.X() + o.Radius*cos(rad)
		body.Position[1] = o.Center.Y() + o.Radius*sin(rad)
	}
}

// newDemoScene registers the demo's components and systems
func newDemoScene(name string, opts ...scene.Option) *scene.Scene {
	s := scene.New(name, append(opts, scene.WithSystems(&OrbitSystem{}))...)
	ecs.RegisterComponent[Orbit](s.Registry())
	return s
}

// populate fills s with a camera, a checkered floor, a ring of orbiting
// circles and a scripted player
func populate(s *scene.Scene) {
	storage := s.Storage()
	add := func(id ecs.EntityId, components ...any) {
		for _, c := range components {
			set := storage.AddComponent
			if storage.HasComponent(id, reflect.TypeOf(c)) {
				set = storage.SetComponent
			}
			if err := set(id, c); err != nil {
				panic(err)
			}
		}
	}

	camera := s.CreateEntity("camera")
	add(camera, scene.NewTransform(mgl32.Vec3{}), scene.NewCamera(12, true))

	for y := range gridSize {
		for x := range gridSize {
			shade := float32(0.25)
			if (x+y)%2 == 0 {
				shade = 0.35
			}
			pos := mgl32.Vec3{float32(x-gridSize/2) + 0.5, float32(y-gridSize/2) + 0.5, -0.1}
			storage.Spawn(scene.NewTransform(pos), scene.Sprite{Color: mgl32.Vec4{shade, shade, shade + 0.05, 1}})
		}
	}

	for i := range 6 {
		orbit := s.CreateEntity(fmt.Sprintf("orbit-%d", i))
		t := scene.NewTransform(mgl32.Vec3{})
		t.Scale = mgl32.Vec2{0.6, 0.6}
		hue := float32(i) / 6
		add(orbit, t,
			scene.Circle{Color: mgl32.Vec4{1 - hue, 0.4, hue, 1}, Thickness: 0.3},
			Orbit{Radius: 5, Speed: 30, Angle: float32(i) * 60},
		)
	}

	player := s.CreateEntity("player")
	add(player,
		scene.NewTransform(mgl32.Vec3{0, 0, 0.1}),
		scene.Sprite{Color: mgl32.Vec4{0.9, 0.6, 0.2, 1}},
		scene.ScriptRef{Path: "player.lua"},
	)

	title := s.CreateEntity("title")
	t := scene.NewTransform(mgl32.Vec3{-4.5, 5, 0.2})
	add(title, t, scene.Text{Value: "quadforge sandbox - F1 toggles the overlay", Size: 0.4})
}

func cos(rad float32) float32 { return float32(math.Cos(float64(rad))) }
func sin(rad float32) float32 { return float32(math.Sin(float64(rad))) }
