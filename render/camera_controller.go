package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/quadforge/event"
)

// KeyState reports whether a key is currently held down
type KeyState interface {
	IsKeyPressed(key event.Key) bool
}

const minZoom = 0.25

// OrthographicCameraController drives an orthographic camera from input:
// WASD pans, Q/E rotates (when enabled), the scroll wheel zooms and window
// resizes keep the aspect ratio. Bounds are aspect × zoom.
type OrthographicCameraController struct {
	aspect   float32
	zoom     float32
	rotation bool

	camera   Camera
	position mgl32.Vec3
	angle    float32

	TranslationSpeed float32 // world units per second at zoom 1
	RotationSpeed    float32 // degrees per second
}

func NewOrthographicCameraController(aspect float32, rotation bool) *OrthographicCameraController {
	c := &OrthographicCameraController{
		aspect:           aspect,
		zoom:             1,
		rotation:         rotation,
		TranslationSpeed: 5,
		RotationSpeed:    180,
	}
	c.camera = NewOrthographicCamera(-aspect, aspect, -1, 1)
	return c
}

func (c *OrthographicCameraController) Camera() *Camera {
	return &c.camera
}

func (c *OrthographicCameraController) Position() mgl32.Vec3 {
	return c.position
}

func (c *OrthographicCameraController) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.camera.RecalculateViewMatrix(c.position, c.angle)
}

func (c *OrthographicCameraController) Rotation() float32 {
	return c.angle
}

func (c *OrthographicCameraController) Zoom() float32 {
	return c.zoom
}

func (c *OrthographicCameraController) SetZoom(zoom float32) {
	c.zoom = max(zoom, minZoom)
	c.updateProjection()
}

func (c *OrthographicCameraController) AspectRatio() float32 {
	return c.aspect
}

// OnUpdate applies held movement keys over dt seconds
func (c *OrthographicCameraController) OnUpdate(dt float64, keys KeyState) {
	step := c.TranslationSpeed * c.zoom * float32(dt)
	rad := mgl32.DegToRad(c.angle)
	right := mgl32.Vec3{cos(rad), sin(rad), 0}
	up := mgl32.Vec3{-sin(rad), cos(rad), 0}

	if keys.IsKeyPressed(event.KeyA) {
		c.position = c.position.Sub(right.Mul(step))
	}
	if keys.IsKeyPressed(event.KeyD) {
		c.position = c.position.Add(right.Mul(step))
	}
	if keys.IsKeyPressed(event.KeyW) {
		c.position = c.position.Add(up.Mul(step))
	}
	if keys.IsKeyPressed(event.KeyS) {
		c.position = c.position.Sub(up.Mul(step))
	}

	if c.rotation {
		if keys.IsKeyPressed(event.KeyQ) {
			c.angle += c.RotationSpeed * float32(dt)
		}
		if keys.IsKeyPressed(event.KeyE) {
			c.angle -= c.RotationSpeed * float32(dt)
		}
		switch {
		case c.angle > 180:
			c.angle -= 360
		case c.angle <= -180:
			c.angle += 360
		}
	}

	c.camera.RecalculateViewMatrix(c.position, c.angle)
}

// OnEvent handles scroll and resize events. It never marks them handled so
// other consumers still see them.
func (c *OrthographicCameraController) OnEvent(ev event.Event) {
	event.Dispatch(ev, func(e *event.MouseScroll) bool {
		c.SetZoom(c.zoom - e.YOffset*0.25)
		return false
	})
	event.Dispatch(ev, func(e *event.WindowResize) bool {
		c.Resize(float32(e.Width), float32(e.Height))
		return false
	})
}

// Resize updates the aspect ratio for a new viewport size
func (c *OrthographicCameraController) Resize(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = width / height
	c.updateProjection()
}

func (c *OrthographicCameraController) updateProjection() {
	c.camera.SetProjection(-c.aspect*c.zoom, c.aspect*c.zoom, -c.zoom, c.zoom)
}
