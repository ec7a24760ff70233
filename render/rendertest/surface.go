// Package rendertest provides an in-memory render.Surface that records every
// request so renderer behaviour can be asserted without a GPU.
package rendertest

import (
	"maps"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/quadforge/render"
)

// DrawCall is a snapshot of the state at one DrawIndexed request
type DrawCall struct {
	VertexArray    render.Handle
	Shader         render.Handle
	Framebuffer    render.Handle
	Vertices       []render.Vertex
	Indices        []uint32
	Textures       map[int]render.Handle
	ViewProjection mgl32.Mat4
}

// Surface implements render.Surface in memory
type Surface struct {
	mu sync.Mutex

	next      render.Handle
	live      map[render.Handle]render.ResourceKind
	destroyed []render.Handle

	// Fail makes Create calls for the listed kinds return the zero handle
	Fail map[render.ResourceKind]bool

	vertexData  map[render.Handle][]render.Vertex
	indexData   map[render.Handle][]uint32
	vertexArray map[render.Handle][2]render.Handle
	textures    map[render.Handle]*Texture
	shaders     map[render.Handle]render.ShaderSource
	uniforms    map[render.Handle]map[string]any

	boundArray       render.Handle
	boundShader      render.Handle
	boundFramebuffer render.Handle
	boundTextures    map[int]render.Handle

	Draws  []DrawCall
	Clears []mgl32.Vec4
}

// Texture is the recorded state of a texture
type Texture struct {
	Width, Height int
	Pixels        []byte
	Framebuffer   render.Handle // non-zero for color attachments
}

func NewSurface() *Surface {
	return &Surface{
		live:          make(map[render.Handle]render.ResourceKind),
		Fail:          make(map[render.ResourceKind]bool),
		vertexData:    make(map[render.Handle][]render.Vertex),
		indexData:     make(map[render.Handle][]uint32),
		vertexArray:   make(map[render.Handle][2]render.Handle),
		textures:      make(map[render.Handle]*Texture),
		shaders:       make(map[render.Handle]render.ShaderSource),
		uniforms:      make(map[render.Handle]map[string]any),
		boundTextures: make(map[int]render.Handle),
	}
}

func (s *Surface) create(kind render.ResourceKind) render.Handle {
	if s.Fail[kind] {
		return 0
	}
	s.next++
	s.live[s.next] = kind
	return s.next
}

func (s *Surface) CreateVertexBuffer(capacity int) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.create(render.KindVertexBuffer)
	if h != 0 {
		s.vertexData[h] = make([]render.Vertex, 0, capacity)
	}
	return h
}

func (s *Surface) CreateIndexBuffer(capacity int) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.create(render.KindIndexBuffer)
	if h != 0 {
		s.indexData[h] = make([]uint32, 0, capacity)
	}
	return h
}

func (s *Surface) CreateVertexArray(layout render.VertexLayout, vertices, indices render.Handle) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.create(render.KindVertexArray)
	if h != 0 {
		s.vertexArray[h] = [2]render.Handle{vertices, indices}
	}
	return h
}

func (s *Surface) CreateTexture(width, height int, pixels []byte) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.create(render.KindTexture)
	if h != 0 {
		s.textures[h] = &Texture{Width: width, Height: height, Pixels: slices.Clone(pixels)}
	}
	return h
}

func (s *Surface) CreateShader(src render.ShaderSource) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.create(render.KindShader)
	if h != 0 {
		s.shaders[h] = src
		s.uniforms[h] = make(map[string]any)
	}
	return h
}

func (s *Surface) CreateFramebuffer(spec render.FramebufferSpec) (render.Handle, render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb := s.create(render.KindFramebuffer)
	if fb == 0 {
		return 0, 0
	}
	s.next++
	color := s.next
	s.textures[color] = &Texture{Width: spec.Width, Height: spec.Height, Framebuffer: fb}
	return fb, color
}

func (s *Surface) Destroy(kind render.ResourceKind, h render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[h] != kind {
		panic("rendertest: destroy of unknown or mismatched " + kind.String())
	}
	delete(s.live, h)
	s.destroyed = append(s.destroyed, h)

	if kind == render.KindFramebuffer {
		for th, tex := range s.textures {
			if tex.Framebuffer == h {
				delete(s.textures, th)
			}
		}
	}
}

func (s *Surface) UploadVertices(vb render.Handle, vertices []render.Vertex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vertexData[vb] = append(s.vertexData[vb][:0], vertices...)
}

func (s *Surface) UploadIndices(ib render.Handle, indices []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexData[ib] = append(s.indexData[ib][:0], indices...)
}

func (s *Surface) UploadTexture(tex render.Handle, pixels []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.textures[tex]; ok {
		t.Pixels = slices.Clone(pixels)
	}
}

func (s *Surface) BindVertexArray(va render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundArray = va
}

func (s *Surface) BindShader(sh render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundShader = sh
}

func (s *Surface) BindTexture(tex render.Handle, slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundTextures[slot] = tex
}

func (s *Surface) BindFramebuffer(fb render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundFramebuffer = fb
}

func (s *Surface) setUniform(sh render.Handle, name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.uniforms[sh]; ok {
		u[name] = v
	}
}

func (s *Surface) SetUniformInt(sh render.Handle, name string, v int32) {
	s.setUniform(sh, name, v)
}

func (s *Surface) SetUniformIntArray(sh render.Handle, name string, v []int32) {
	s.setUniform(sh, name, slices.Clone(v))
}

func (s *Surface) SetUniformFloat4(sh render.Handle, name string, v mgl32.Vec4) {
	s.setUniform(sh, name, v)
}

func (s *Surface) SetUniformMat4(sh render.Handle, name string, v mgl32.Mat4) {
	s.setUniform(sh, name, v)
}

func (s *Surface) Clear(color mgl32.Vec4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Clears = append(s.Clears, color)
}

func (s *Surface) DrawIndexed(va render.Handle, indexCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffers := s.vertexArray[va]
	indices := s.indexData[buffers[1]]
	call := DrawCall{
		VertexArray: va,
		Shader:      s.boundShader,
		Framebuffer: s.boundFramebuffer,
		Vertices:    slices.Clone(s.vertexData[buffers[0]]),
		Indices:     slices.Clone(indices[:min(indexCount, len(indices))]),
		Textures:    maps.Clone(s.boundTextures),
	}
	if vp, ok := s.uniforms[s.boundShader]["u_ViewProjection"].(mgl32.Mat4); ok {
		call.ViewProjection = vp
	}
	s.Draws = append(s.Draws, call)
}

// Live returns the number of resources not yet destroyed
func (s *Surface) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// LiveOf returns the number of live resources of kind
func (s *Surface) LiveOf(kind render.ResourceKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Destroyed returns every handle destroyed so far, in order
func (s *Surface) Destroyed() []render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.destroyed)
}

// Texture returns the recorded state of a texture handle
func (s *Surface) Texture(h render.Handle) (*Texture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.textures[h]
	return t, ok
}

// Shader returns the source a shader handle was created from
func (s *Surface) Shader(h render.Handle) (render.ShaderSource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.shaders[h]
	return src, ok
}

// Uniform returns the last value uploaded to a shader uniform
func (s *Surface) Uniform(sh render.Handle, name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.uniforms[sh][name]
	return v, ok
}

// Reset forgets recorded draws and clears but keeps resources
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Draws = nil
	s.Clears = nil
}

var _ render.Surface = (*Surface)(nil)
