// Package ebitensurface implements render.Surface on top of ebiten.
//
// Ebiten owns the GPU, so shaders are recorded by name only: vertices are
// projected on the CPU with the bound shader's u_ViewProjection and submitted
// through Image.DrawTriangles, one call per run of triangles sharing a
// texture slot.
package ebitensurface

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/render"
)

const viewProjectionUniform = "u_ViewProjection"

type Surface struct {
	log *zap.Logger

	next  render.Handle
	kinds map[render.Handle]render.ResourceKind

	vertexBuffers map[render.Handle][]render.Vertex
	indexBuffers  map[render.Handle][]uint32
	arrays        map[render.Handle][2]render.Handle
	images        map[render.Handle]*ebiten.Image
	framebuffers  map[render.Handle]render.Handle // framebuffer -> color image
	shaders       map[render.Handle]string
	matrices      map[render.Handle]mgl32.Mat4

	screen           *ebiten.Image
	boundShader      render.Handle
	boundFramebuffer render.Handle
	slots            map[int]render.Handle

	// Filter is used for every textured draw. Nearest keeps pixel art crisp.
	Filter ebiten.Filter

	splitter splitter
}

func New(log *zap.Logger) *Surface {
	if log == nil {
		log = zap.NewNop()
	}
	return &Surface{
		log:           log,
		kinds:         make(map[render.Handle]render.ResourceKind),
		vertexBuffers: make(map[render.Handle][]render.Vertex),
		indexBuffers:  make(map[render.Handle][]uint32),
		arrays:        make(map[render.Handle][2]render.Handle),
		images:        make(map[render.Handle]*ebiten.Image),
		framebuffers:  make(map[render.Handle]render.Handle),
		shaders:       make(map[render.Handle]string),
		matrices:      make(map[render.Handle]mgl32.Mat4),
		slots:         make(map[int]render.Handle),
		Filter:        ebiten.FilterNearest,
	}
}

// SetScreen sets the image drawn to while no framebuffer is bound.
// Call it at the start of every ebiten Draw.
func (s *Surface) SetScreen(screen *ebiten.Image) {
	s.screen = screen
}

// Image returns the ebiten image behind a texture handle, or nil
func (s *Surface) Image(tex render.Handle) *ebiten.Image {
	return s.images[tex]
}

func (s *Surface) alloc(kind render.ResourceKind) render.Handle {
	s.next++
	s.kinds[s.next] = kind
	return s.next
}

func (s *Surface) CreateVertexBuffer(capacity int) render.Handle {
	h := s.alloc(render.KindVertexBuffer)
	s.vertexBuffers[h] = make([]render.Vertex, 0, capacity)
	return h
}

func (s *Surface) CreateIndexBuffer(capacity int) render.Handle {
	h := s.alloc(render.KindIndexBuffer)
	s.indexBuffers[h] = make([]uint32, 0, capacity)
	return h
}

func (s *Surface) CreateVertexArray(_ render.VertexLayout, vertices, indices render.Handle) render.Handle {
	if s.kinds[vertices] != render.KindVertexBuffer || s.kinds[indices] != render.KindIndexBuffer {
		s.log.Warn("vertex array references unknown buffers",
			zap.Uint32("vertices", uint32(vertices)), zap.Uint32("indices", uint32(indices)))
		return 0
	}
	h := s.alloc(render.KindVertexArray)
	s.arrays[h] = [2]render.Handle{vertices, indices}
	return h
}

func (s *Surface) CreateTexture(width, height int, pixels []byte) render.Handle {
	if width <= 0 || height <= 0 {
		return 0
	}
	img := ebiten.NewImage(width, height)
	if pixels != nil {
		img.WritePixels(premultiply(pixels))
	}
	h := s.alloc(render.KindTexture)
	s.images[h] = img
	return h
}

func (s *Surface) CreateShader(src render.ShaderSource) render.Handle {
	h := s.alloc(render.KindShader)
	s.shaders[h] = src.Name
	s.log.Debug("shader registered", zap.String("shader", src.Name))
	return h
}

func (s *Surface) CreateFramebuffer(spec render.FramebufferSpec) (render.Handle, render.Handle) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return 0, 0
	}
	attachment := s.CreateTexture(spec.Width, spec.Height, nil)
	fb := s.alloc(render.KindFramebuffer)
	s.framebuffers[fb] = attachment
	return fb, attachment
}

func (s *Surface) Destroy(kind render.ResourceKind, h render.Handle) {
	if s.kinds[h] != kind {
		s.log.Warn("destroy of unknown resource", zap.Stringer("kind", kind), zap.Uint32("handle", uint32(h)))
		return
	}
	delete(s.kinds, h)

	switch kind {
	case render.KindVertexBuffer:
		delete(s.vertexBuffers, h)
	case render.KindIndexBuffer:
		delete(s.indexBuffers, h)
	case render.KindVertexArray:
		delete(s.arrays, h)
	case render.KindTexture:
		s.images[h].Deallocate()
		delete(s.images, h)
	case render.KindShader:
		delete(s.shaders, h)
		delete(s.matrices, h)
	case render.KindFramebuffer:
		attachment := s.framebuffers[h]
		delete(s.framebuffers, h)
		if s.boundFramebuffer == h {
			s.boundFramebuffer = 0
		}
		s.Destroy(render.KindTexture, attachment)
	}
}

func (s *Surface) UploadVertices(vb render.Handle, vertices []render.Vertex) {
	s.vertexBuffers[vb] = append(s.vertexBuffers[vb][:0], vertices...)
}

func (s *Surface) UploadIndices(ib render.Handle, indices []uint32) {
	s.indexBuffers[ib] = append(s.indexBuffers[ib][:0], indices...)
}

func (s *Surface) UploadTexture(tex render.Handle, pixels []byte) {
	if img, ok := s.images[tex]; ok {
		img.WritePixels(premultiply(pixels))
	}
}

func (s *Surface) BindVertexArray(render.Handle) {}

func (s *Surface) BindShader(sh render.Handle) {
	s.boundShader = sh
}

func (s *Surface) BindTexture(tex render.Handle, slot int) {
	s.slots[slot] = tex
}

func (s *Surface) BindFramebuffer(fb render.Handle) {
	s.boundFramebuffer = fb
}

func (s *Surface) SetUniformInt(render.Handle, string, int32)        {}
func (s *Surface) SetUniformIntArray(render.Handle, string, []int32) {}
func (s *Surface) SetUniformFloat4(render.Handle, string, mgl32.Vec4) {}

func (s *Surface) SetUniformMat4(sh render.Handle, name string, v mgl32.Mat4) {
	if name == viewProjectionUniform {
		s.matrices[sh] = v
	}
}

func (s *Surface) target() *ebiten.Image {
	if s.boundFramebuffer != 0 {
		return s.images[s.framebuffers[s.boundFramebuffer]]
	}
	return s.screen
}

func (s *Surface) Clear(c mgl32.Vec4) {
	target := s.target()
	if target == nil {
		return
	}
	target.Fill(color.NRGBA{
		R: unit8(c.X()),
		G: unit8(c.Y()),
		B: unit8(c.Z()),
		A: unit8(c.W()),
	})
}

func (s *Surface) DrawIndexed(va render.Handle, indexCount int) {
	target := s.target()
	if target == nil {
		s.log.Warn("draw without a target image")
		return
	}
	buffers, ok := s.arrays[va]
	if !ok {
		return
	}
	vertices := s.vertexBuffers[buffers[0]]
	indices := s.indexBuffers[buffers[1]]
	indices = indices[:min(indexCount, len(indices))]

	bounds := target.Bounds()
	vp, ok := s.matrices[s.boundShader]
	if !ok {
		vp = mgl32.Ident4()
	}
	view := viewport{vp: vp, width: float32(bounds.Dx()), height: float32(bounds.Dy())}

	size := func(slot int) (float32, float32) {
		img := s.images[s.slots[slot]]
		if img == nil {
			return 1, 1
		}
		b := img.Bounds()
		return float32(b.Dx()), float32(b.Dy())
	}

	opts := &ebiten.DrawTrianglesOptions{
		Address:        ebiten.AddressRepeat,
		Filter:         s.Filter,
		ColorScaleMode: ebiten.ColorScaleModeStraightAlpha,
	}
	for _, r := range s.splitter.split(view, vertices, indices, size) {
		src := s.images[s.slots[r.slot]]
		if src == nil {
			s.log.Warn("draw samples an unbound texture slot", zap.Int("slot", r.slot))
			continue
		}
		target.DrawTriangles(r.vertices, r.indices, src, opts)
	}
}

func unit8(f float32) uint8 {
	return uint8(mgl32.Clamp(f, 0, 1)*255 + 0.5)
}

var _ render.Surface = (*Surface)(nil)
