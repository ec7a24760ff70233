package ebitensurface

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/quadforge/render"
)

// maxRunVertices keeps every run addressable by uint16 indices
const maxRunVertices = math.MaxUint16

// run is a slice of a batch that samples one texture slot and fits one
// DrawTriangles call
type run struct {
	slot     int
	vertices []ebiten.Vertex
	indices  []uint16
}

// viewport maps clip space onto a target image
type viewport struct {
	vp            mgl32.Mat4
	width, height float32
}

func (v viewport) project(p mgl32.Vec3) (x, y float32) {
	clip := v.vp.Mul4x1(p.Vec4(1))
	w := clip.W()
	if w == 0 {
		w = 1
	}
	ndcX, ndcY := clip.X()/w, clip.Y()/w
	return (ndcX + 1) / 2 * v.width, (1 - ndcY) / 2 * v.height
}

// splitter turns the renderer's uint32 triangle lists into uint16 runs.
// Its buffers are reused between calls.
type splitter struct {
	runs  []run
	remap []int32
	dirty []uint32
}

// sourceSize returns the pixel size of the image bound to slot
type sourceSize func(slot int) (w, h float32)

func (s *splitter) split(v viewport, vertices []render.Vertex, indices []uint32, size sourceSize) []run {
	s.runs = s.runs[:0]
	if cap(s.remap) < len(vertices) {
		s.remap = make([]int32, len(vertices))
		for i := range s.remap {
			s.remap[i] = -1
		}
	}
	s.remap = s.remap[:len(vertices)]

	var cur *run
	for t := 0; t+2 < len(indices); t += 3 {
		tri := indices[t : t+3]
		if int(tri[0]) >= len(vertices) || int(tri[1]) >= len(vertices) || int(tri[2]) >= len(vertices) {
			continue
		}
		slot := int(vertices[tri[0]].TexIndex)
		if cur == nil || cur.slot != slot || len(cur.vertices)+3 > maxRunVertices {
			s.reset()
			s.runs = append(s.runs, run{slot: slot})
			cur = &s.runs[len(s.runs)-1]
		}
		w, h := size(slot)
		for _, idx := range tri {
			local := s.remap[idx]
			if local < 0 {
				local = int32(len(cur.vertices))
				s.remap[idx] = local
				s.dirty = append(s.dirty, idx)
				cur.vertices = append(cur.vertices, convert(v, vertices[idx], w, h))
			}
			cur.indices = append(cur.indices, uint16(local))
		}
	}
	s.reset()
	return s.runs
}

func (s *splitter) reset() {
	for _, idx := range s.dirty {
		s.remap[idx] = -1
	}
	s.dirty = s.dirty[:0]
}

// convert projects a batch vertex to target pixels and maps its bottom-left
// origin texture coordinate to top-left origin source pixels
func convert(v viewport, vert render.Vertex, texW, texH float32) ebiten.Vertex {
	x, y := v.project(vert.Position)
	tiling := vert.TilingFactor
	if tiling == 0 {
		tiling = 1
	}
	u := vert.TexCoord.X() * tiling
	t := vert.TexCoord.Y() * tiling
	return ebiten.Vertex{
		DstX:   x,
		DstY:   y,
		SrcX:   u * texW,
		SrcY:   (1 - t) * texH,
		ColorR: vert.Color.X(),
		ColorG: vert.Color.Y(),
		ColorB: vert.Color.Z(),
		ColorA: vert.Color.W(),
	}
}

// premultiply converts straight-alpha RGBA8 pixels to the premultiplied
// form ebiten images store
func premultiply(pixels []byte) []byte {
	out := make([]byte, len(pixels))
	for i := 0; i+3 < len(pixels); i += 4 {
		a := uint16(pixels[i+3])
		out[i] = byte(uint16(pixels[i]) * a / 255)
		out[i+1] = byte(uint16(pixels[i+1]) * a / 255)
		out[i+2] = byte(uint16(pixels[i+2]) * a / 255)
		out[i+3] = pixels[i+3]
	}
	return out
}
