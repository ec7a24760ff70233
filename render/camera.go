package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ViewProjector is anything that can supply the matrix uploaded at BeginScene
type ViewProjector interface {
	ViewProjection() mgl32.Mat4
}

// Camera holds projection and view matrices plus their cached product.
// It is a value type so it can live inside a component.
//
// The view matrix is only refreshed by RecalculateViewMatrix; callers must
// invoke it after changing the position or rotation they track.
type Camera struct {
	projection     mgl32.Mat4
	view           mgl32.Mat4
	viewProjection mgl32.Mat4
}

// NewOrthographicCamera creates a camera looking down -Z with the given bounds
// and an identity view.
func NewOrthographicCamera(left, right, bottom, top float32) Camera {
	c := Camera{view: mgl32.Ident4()}
	c.SetProjection(left, right, bottom, top)
	return c
}

// NewPerspectiveCamera creates a camera with a vertical field of view in degrees
func NewPerspectiveCamera(fovDeg, aspect, near, far float32) Camera {
	c := Camera{view: mgl32.Ident4()}
	c.SetPerspective(fovDeg, aspect, near, far)
	return c
}

// SetProjection switches to an orthographic projection with depth range
// [-1, 1]. On a zero Camera the view starts as identity.
func (c *Camera) SetProjection(left, right, bottom, top float32) {
	c.projection = mgl32.Ortho(left, right, bottom, top, -1, 1)
	c.updateViewProjection()
}

// SetPerspective switches to a perspective projection
func (c *Camera) SetPerspective(fovDeg, aspect, near, far float32) {
	c.projection = mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, near, far)
	c.updateViewProjection()
}

func (c *Camera) updateViewProjection() {
	if c.view == (mgl32.Mat4{}) {
		c.view = mgl32.Ident4()
	}
	c.viewProjection = c.projection.Mul4(c.view)
}

// RecalculateViewMatrix rebuilds the view from a camera position and a
// rotation around Z in degrees.
func (c *Camera) RecalculateViewMatrix(position mgl32.Vec3, rotationDeg float32) {
	transform := mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotationDeg)))
	c.view = transform.Inv()
	c.viewProjection = c.projection.Mul4(c.view)
}

// SetView installs an externally computed view matrix
func (c *Camera) SetView(view mgl32.Mat4) {
	c.view = view
	c.viewProjection = c.projection.Mul4(c.view)
}

func (c Camera) Projection() mgl32.Mat4     { return c.projection }
func (c Camera) View() mgl32.Mat4           { return c.view }
func (c Camera) ViewProjection() mgl32.Mat4 { return c.viewProjection }

// ScreenToWorld maps normalised device coordinates back to world space.
// ndc is in [-1, 1] on both axes.
func (c Camera) ScreenToWorld(ndc mgl32.Vec2) mgl32.Vec3 {
	inv := c.viewProjection.Inv()
	p := inv.Mul4x1(mgl32.Vec4{ndc.X(), ndc.Y(), 0, 1})
	if p.W() != 0 {
		return p.Vec3().Mul(1 / p.W())
	}
	return p.Vec3()
}
