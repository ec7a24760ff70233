package scene

import (
	"github.com/plus3/quadforge/ecs"
)

type moving struct {
	*Transform
	*Movement
}

// MovementSystem integrates Movement into Transform
type MovementSystem struct {
	Movers ecs.Query[moving]
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for item := range s.Movers.Values() {
		item.Transform.Position[0] += item.Velocity.X() * dt
		item.Transform.Position[1] += item.Velocity.Y() * dt
		item.Transform.Rotation += item.AngularVelocity * dt
	}
}

// Viewport is the singleton holding the size cameras project onto
type Viewport struct {
	Width, Height int
}

type placedCamera struct {
	Entity ecs.EntityId
	*Transform
	*Camera
}

// CameraSystem keeps every camera's projection in step with the viewport
// and its view with the entity's Transform
type CameraSystem struct {
	Cameras  ecs.Query[placedCamera]
	Viewport ecs.Singleton[Viewport]
}

func (s *CameraSystem) Execute(frame *ecs.UpdateFrame) {
	vp := s.Viewport.Get()
	for item := range s.Cameras.Values() {
		if vp != nil {
			item.Camera.SetViewport(vp.Width, vp.Height)
		}
		item.Camera.updateProjection()
		item.Camera.Place(*item.Transform)
	}
}
