package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Quad describes a rectangle centred on Position.
// A non-nil Transform replaces Position/Size/Rotation.
type Quad struct {
	Position     mgl32.Vec3
	Size         mgl32.Vec2
	Rotation     float32 // degrees
	Color        mgl32.Vec4
	Texture      *Texture2D
	TexCoords    *[4]mgl32.Vec2 // bottom-left, bottom-right, top-right, top-left
	TilingFactor float32
	Transform    *mgl32.Mat4
}

// Triangle describes a triangle whose local Points are scaled by Size, rotated
// and moved to Position. Zero Points default to an isosceles unit triangle.
type Triangle struct {
	Points       [3]mgl32.Vec2
	Position     mgl32.Vec3
	Size         mgl32.Vec2
	Rotation     float32
	Color        mgl32.Vec4
	Texture      *Texture2D
	TilingFactor float32
	Transform    *mgl32.Mat4
}

// Circle is tessellated into Segments slices. Thickness in (0, 1) draws a
// ring whose width is that fraction of the radius; 0 or 1 draws a disc.
type Circle struct {
	Position  mgl32.Vec3
	Radius    float32
	Color     mgl32.Vec4
	Thickness float32
	Segments  int
	Transform *mgl32.Mat4
}

// TextParams positions a string. Position is the top-left of the first line;
// Size is the line height in world units.
type TextParams struct {
	Position    mgl32.Vec3
	Size        float32
	Rotation    float32
	Color       mgl32.Vec4
	Kerning     float32 // extra advance per glyph, in line heights
	LineSpacing float32 // extra space between lines, in line heights
	Transform   *mgl32.Mat4
}

const defaultCircleSegments = 32

var (
	quadPositions = [4]mgl32.Vec4{
		{-0.5, -0.5, 0, 1},
		{0.5, -0.5, 0, 1},
		{0.5, 0.5, 0, 1},
		{-0.5, 0.5, 0, 1},
	}
	quadTexCoords = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	quadIndices   = [6]uint32{0, 1, 2, 2, 3, 0}

	defaultTrianglePoints = [3]mgl32.Vec2{{-0.5, -0.5}, {0.5, -0.5}, {0, 0.5}}
	triangleTexCoords     = [3]mgl32.Vec2{{0, 0}, {1, 0}, {0.5, 1}}
)

// ModelTransform builds translate × rotateZ × scale
func ModelTransform(position mgl32.Vec3, size mgl32.Vec2, rotationDeg float32) mgl32.Mat4 {
	m := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	if rotationDeg != 0 {
		m = m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotationDeg)))
	}
	return m.Mul4(mgl32.Scale3D(size.X(), size.Y(), 1))
}

func (q *Quad) transform() mgl32.Mat4 {
	if q.Transform != nil {
		return *q.Transform
	}
	return ModelTransform(q.Position, q.Size, q.Rotation)
}

func (t *Triangle) transform() mgl32.Mat4 {
	if t.Transform != nil {
		return *t.Transform
	}
	return ModelTransform(t.Position, t.Size, t.Rotation)
}

func (c *Circle) transform() mgl32.Mat4 {
	if c.Transform != nil {
		return *c.Transform
	}
	d := c.Radius * 2
	return ModelTransform(c.Position, mgl32.Vec2{d, d}, 0)
}

func (c *Circle) segments() int {
	if c.Segments < 3 {
		return defaultCircleSegments
	}
	return c.Segments
}

func (c *Circle) ring() bool {
	return c.Thickness > 0 && c.Thickness < 1
}

// vertexCount and indexCount give the batch space a circle needs
func (c *Circle) vertexCount() int {
	if c.ring() {
		return 2 * c.segments()
	}
	return c.segments() + 1
}

func (c *Circle) indexCount() int {
	if c.ring() {
		return 6 * c.segments()
	}
	return 3 * c.segments()
}

func tiling(f float32) float32 {
	if f == 0 {
		return 1
	}
	return f
}

func cos(x float32) float32 { return float32(math.Cos(float64(x))) }
func sin(x float32) float32 { return float32(math.Sin(float64(x))) }
