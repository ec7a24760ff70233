package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/render"
	"github.com/plus3/quadforge/script"
)

// ID is a persistent identity that survives save and load, unlike EntityId
type ID struct {
	UUID uuid.UUID
}

type Tag struct {
	Name string
}

type Transform struct {
	Position mgl32.Vec3
	Rotation float32 // degrees around Z
	Scale    mgl32.Vec2
}

// NewTransform returns a transform at position with unit scale
func NewTransform(position mgl32.Vec3) Transform {
	return Transform{Position: position, Scale: mgl32.Vec2{1, 1}}
}

// Matrix returns translate × rotateZ × scale
func (t Transform) Matrix() mgl32.Mat4 {
	return render.ModelTransform(t.Position, t.Scale, t.Rotation)
}

// Movement is integrated into Transform by MovementSystem
type Movement struct {
	Velocity        mgl32.Vec2
	AngularVelocity float32 // degrees per second
}

// Sprite draws a quad. Texture names an asset; empty draws a flat colour.
// A zero Color draws white.
type Sprite struct {
	Color        mgl32.Vec4
	Texture      string
	TilingFactor float32
}

// Circle draws a disc, or a ring when Thickness is in (0, 1). A zero Color
// draws white.
type Circle struct {
	Color     mgl32.Vec4
	Thickness float32
	Segments  int
}

// Text is drawn with the scene font. Size is the line height in world units
// and a zero Color draws white.
type Text struct {
	Value string
	Color mgl32.Vec4
	Size  float32
}

// Camera is an orthographic camera placed by the entity's Transform.
// Size is the visible height in world units.
type Camera struct {
	Primary     bool
	Size        float32
	FixedAspect bool

	aspect float32
	camera render.Camera
}

// NewCamera returns a camera showing size world units vertically
func NewCamera(size float32, primary bool) Camera {
	half := size / 2
	return Camera{
		Primary: primary,
		Size:    size,
		aspect:  1,
		camera:  render.NewOrthographicCamera(-half, half, -half, half),
	}
}

// SetViewport updates the aspect ratio unless FixedAspect is set
func (c *Camera) SetViewport(width, height int) {
	if c.FixedAspect || width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
	c.updateProjection()
}

func (c *Camera) updateProjection() {
	if c.aspect == 0 {
		c.aspect = 1
	}
	half := c.Size / 2
	c.camera.SetProjection(-half*c.aspect, half*c.aspect, -half, half)
}

// Place recomputes the view matrix from a transform
func (c *Camera) Place(t Transform) {
	c.camera.RecalculateViewMatrix(t.Position, t.Rotation)
}

func (c *Camera) Render() *render.Camera {
	return &c.camera
}

// ScriptRef names a Lua script to bind when a scene is loaded
type ScriptRef struct {
	Path string
}

// Register adds every scene component and the script component to registry
func Register(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ID](registry)
	ecs.RegisterComponent[Tag](registry)
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Movement](registry)
	ecs.RegisterComponent[Sprite](registry)
	ecs.RegisterComponent[Circle](registry)
	ecs.RegisterComponent[Text](registry)
	ecs.RegisterComponent[Camera](registry)
	ecs.RegisterComponent[ScriptRef](registry)
	script.Register(registry)
}
