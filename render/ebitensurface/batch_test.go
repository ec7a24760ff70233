package ebitensurface

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/quadforge/render"
)

func quad(x, y float32, slot float32) []render.Vertex {
	return []render.Vertex{
		{Position: mgl32.Vec3{x - 0.5, y - 0.5, 0}, TexCoord: mgl32.Vec2{0, 0}, TexIndex: slot, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{x + 0.5, y - 0.5, 0}, TexCoord: mgl32.Vec2{1, 0}, TexIndex: slot, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{x + 0.5, y + 0.5, 0}, TexCoord: mgl32.Vec2{1, 1}, TexIndex: slot, Color: mgl32.Vec4{1, 1, 1, 1}},
		{Position: mgl32.Vec3{x - 0.5, y + 0.5, 0}, TexCoord: mgl32.Vec2{0, 1}, TexIndex: slot, Color: mgl32.Vec4{1, 1, 1, 1}},
	}
}

func quadIndices(base uint32) []uint32 {
	return []uint32{base, base + 1, base + 2, base + 2, base + 3, base}
}

func fixedSize(slot int) (float32, float32) {
	return 16, 8
}

func TestProjectMapsNDCToPixels(t *testing.T) {
	v := viewport{vp: mgl32.Ident4(), width: 200, height: 100}

	x, y := v.project(mgl32.Vec3{-1, 1, 0})
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(0), y)

	x, y = v.project(mgl32.Vec3{1, -1, 0})
	assert.Equal(t, float32(200), x)
	assert.Equal(t, float32(100), y)

	x, y = v.project(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, float32(100), x)
	assert.Equal(t, float32(50), y)
}

func TestConvertFlipsTextureOrigin(t *testing.T) {
	v := viewport{vp: mgl32.Ident4(), width: 2, height: 2}

	bottomLeft := convert(v, render.Vertex{TexCoord: mgl32.Vec2{0, 0}}, 16, 8)
	assert.Equal(t, float32(0), bottomLeft.SrcX)
	assert.Equal(t, float32(8), bottomLeft.SrcY, "v=0 is the last pixel row")

	topRight := convert(v, render.Vertex{TexCoord: mgl32.Vec2{1, 1}}, 16, 8)
	assert.Equal(t, float32(16), topRight.SrcX)
	assert.Equal(t, float32(0), topRight.SrcY)

	tiled := convert(v, render.Vertex{TexCoord: mgl32.Vec2{1, 0}, TilingFactor: 3}, 16, 8)
	assert.Equal(t, float32(48), tiled.SrcX)
}

func TestSplitGroupsRunsByTextureSlot(t *testing.T) {
	var vertices []render.Vertex
	vertices = append(vertices, quad(0, 0, 0)...)
	vertices = append(vertices, quad(1, 0, 0)...)
	vertices = append(vertices, quad(2, 0, 1)...)
	vertices = append(vertices, quad(3, 0, 0)...)

	var indices []uint32
	for i := uint32(0); i < 4; i++ {
		indices = append(indices, quadIndices(i*4)...)
	}

	var s splitter
	runs := s.split(viewport{vp: mgl32.Ident4(), width: 10, height: 10}, vertices, indices, fixedSize)

	require.Len(t, runs, 3)
	assert.Equal(t, 0, runs[0].slot)
	assert.Len(t, runs[0].vertices, 8, "vertices referenced twice are emitted once")
	assert.Len(t, runs[0].indices, 12)
	assert.Equal(t, 1, runs[1].slot)
	assert.Equal(t, []uint16{0, 1, 2, 2, 3, 0}, runs[1].indices, "indices are rebased per run")
	assert.Equal(t, 0, runs[2].slot)
	assert.Len(t, runs[2].vertices, 4)

	// the remap table is clean for the next frame
	runs = s.split(viewport{vp: mgl32.Ident4(), width: 10, height: 10}, vertices[:4], indices[:6], fixedSize)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].vertices, 4)
}

func TestSplitChunksLargeRuns(t *testing.T) {
	const quads = maxRunVertices/4 + 10
	vertices := make([]render.Vertex, 0, quads*4)
	indices := make([]uint32, 0, quads*6)
	for i := 0; i < quads; i++ {
		indices = append(indices, quadIndices(uint32(len(vertices)))...)
		vertices = append(vertices, quad(0, 0, 0)...)
	}

	var s splitter
	runs := s.split(viewport{vp: mgl32.Ident4(), width: 10, height: 10}, vertices, indices, fixedSize)
	require.Greater(t, len(runs), 1)

	total := 0
	for _, r := range runs {
		assert.LessOrEqual(t, len(r.vertices), maxRunVertices)
		var highest uint16
		for _, idx := range r.indices {
			highest = max(highest, idx)
		}
		assert.Less(t, int(highest), len(r.vertices))
		total += len(r.indices)
	}
	assert.Equal(t, len(indices), total, "no triangle is dropped")
}

func TestPremultiply(t *testing.T) {
	out := premultiply([]byte{255, 128, 0, 128, 10, 20, 30, 255})
	assert.Equal(t, []byte{128, 64, 0, 128, 10, 20, 30, 255}, out)
}
