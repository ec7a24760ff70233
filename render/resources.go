package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// noCopy makes `go vet` reject copies of the structs embedding it.
// GPU resources own a backend handle and must only be passed by pointer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// resource is the shared core of every GPU resource wrapper
type resource struct {
	_       noCopy
	surface Surface
	kind    ResourceKind
	handle  Handle
}

func (r *resource) Handle() Handle {
	return r.handle
}

// Valid reports whether the resource still owns a backend handle
func (r *resource) Valid() bool {
	return r.handle != 0
}

// Release destroys the backend resource. Calling it again is a no-op.
func (r *resource) Release() {
	if r.handle == 0 {
		return
	}
	r.surface.Destroy(r.kind, r.handle)
	r.handle = 0
}

func created(log *zap.Logger, kind ResourceKind, h Handle, fields ...zap.Field) error {
	if h != 0 {
		return nil
	}
	if log != nil {
		log.Warn("gpu resource creation failed", append(fields, zap.Stringer("kind", kind))...)
	}
	return fmt.Errorf("%w: %s", ErrResourceCreationFailed, kind)
}

type VertexBuffer struct {
	resource
	capacity int
}

// NewVertexBuffer allocates room for capacity vertices
func NewVertexBuffer(s Surface, capacity int, log *zap.Logger) (*VertexBuffer, error) {
	h := s.CreateVertexBuffer(capacity)
	if err := created(log, KindVertexBuffer, h, zap.Int("capacity", capacity)); err != nil {
		return nil, err
	}
	return &VertexBuffer{resource: resource{surface: s, kind: KindVertexBuffer, handle: h}, capacity: capacity}, nil
}

func (b *VertexBuffer) Capacity() int {
	return b.capacity
}

// SetData uploads vertices, which must fit the buffer's capacity
func (b *VertexBuffer) SetData(vertices []Vertex) error {
	if len(vertices) > b.capacity {
		return fmt.Errorf("render: %d vertices exceed buffer capacity %d", len(vertices), b.capacity)
	}
	b.surface.UploadVertices(b.handle, vertices)
	return nil
}

type IndexBuffer struct {
	resource
	capacity int
}

func NewIndexBuffer(s Surface, capacity int, log *zap.Logger) (*IndexBuffer, error) {
	h := s.CreateIndexBuffer(capacity)
	if err := created(log, KindIndexBuffer, h, zap.Int("capacity", capacity)); err != nil {
		return nil, err
	}
	return &IndexBuffer{resource: resource{surface: s, kind: KindIndexBuffer, handle: h}, capacity: capacity}, nil
}

func (b *IndexBuffer) Capacity() int {
	return b.capacity
}

func (b *IndexBuffer) SetData(indices []uint32) error {
	if len(indices) > b.capacity {
		return fmt.Errorf("render: %d indices exceed buffer capacity %d", len(indices), b.capacity)
	}
	b.surface.UploadIndices(b.handle, indices)
	return nil
}

// VertexArray binds a vertex buffer layout to an index buffer.
// It does not own the buffers.
type VertexArray struct {
	resource
	vertices *VertexBuffer
	indices  *IndexBuffer
}

func NewVertexArray(s Surface, layout VertexLayout, vb *VertexBuffer, ib *IndexBuffer, log *zap.Logger) (*VertexArray, error) {
	h := s.CreateVertexArray(layout, vb.Handle(), ib.Handle())
	if err := created(log, KindVertexArray, h); err != nil {
		return nil, err
	}
	return &VertexArray{resource: resource{surface: s, kind: KindVertexArray, handle: h}, vertices: vb, indices: ib}, nil
}

func (va *VertexArray) Bind() {
	va.surface.BindVertexArray(va.handle)
}

type Texture2D struct {
	resource
	width, height int
	owned         bool
}

// NewTexture2D creates a texture from RGBA8 pixels, top row first.
// pixels may be nil to allocate an uninitialised texture.
func NewTexture2D(s Surface, width, height int, pixels []byte, log *zap.Logger) (*Texture2D, error) {
	if pixels != nil && len(pixels) != width*height*4 {
		return nil, fmt.Errorf("render: texture %dx%d needs %d bytes, got %d", width, height, width*height*4, len(pixels))
	}
	h := s.CreateTexture(width, height, pixels)
	if err := created(log, KindTexture, h, zap.Int("width", width), zap.Int("height", height)); err != nil {
		return nil, err
	}
	return &Texture2D{resource: resource{surface: s, kind: KindTexture, handle: h}, width: width, height: height, owned: true}, nil
}

func (t *Texture2D) Width() int  { return t.width }
func (t *Texture2D) Height() int { return t.height }

func (t *Texture2D) SetData(pixels []byte) error {
	if len(pixels) != t.width*t.height*4 {
		return fmt.Errorf("render: texture %dx%d needs %d bytes, got %d", t.width, t.height, t.width*t.height*4, len(pixels))
	}
	t.surface.UploadTexture(t.handle, pixels)
	return nil
}

func (t *Texture2D) Bind(slot int) {
	t.surface.BindTexture(t.handle, slot)
}

// Release destroys the texture unless it belongs to a framebuffer
func (t *Texture2D) Release() {
	if !t.owned {
		t.handle = 0
		return
	}
	t.resource.Release()
}

type Shader struct {
	resource
	name string
}

func NewShader(s Surface, src ShaderSource, log *zap.Logger) (*Shader, error) {
	h := s.CreateShader(src)
	if err := created(log, KindShader, h, zap.String("shader", src.Name)); err != nil {
		return nil, err
	}
	return &Shader{resource: resource{surface: s, kind: KindShader, handle: h}, name: src.Name}, nil
}

func (sh *Shader) Name() string { return sh.name }

func (sh *Shader) Bind() {
	sh.surface.BindShader(sh.handle)
}

func (sh *Shader) SetInt(name string, v int32) {
	sh.surface.SetUniformInt(sh.handle, name, v)
}

func (sh *Shader) SetIntArray(name string, v []int32) {
	sh.surface.SetUniformIntArray(sh.handle, name, v)
}

func (sh *Shader) SetFloat4(name string, v mgl32.Vec4) {
	sh.surface.SetUniformFloat4(sh.handle, name, v)
}

func (sh *Shader) SetMat4(name string, v mgl32.Mat4) {
	sh.surface.SetUniformMat4(sh.handle, name, v)
}

// Framebuffer is an offscreen render target with one color attachment
type Framebuffer struct {
	resource
	spec  FramebufferSpec
	color *Texture2D
	log   *zap.Logger
}

func NewFramebuffer(s Surface, spec FramebufferSpec, log *zap.Logger) (*Framebuffer, error) {
	fb := &Framebuffer{resource: resource{surface: s, kind: KindFramebuffer}, log: log}
	if err := fb.create(spec); err != nil {
		return nil, err
	}
	return fb, nil
}

func (fb *Framebuffer) create(spec FramebufferSpec) error {
	h, color := fb.surface.CreateFramebuffer(spec)
	if err := created(fb.log, KindFramebuffer, h, zap.Int("width", spec.Width), zap.Int("height", spec.Height)); err != nil {
		return err
	}
	fb.handle = h
	fb.spec = spec
	fb.color = &Texture2D{
		resource: resource{surface: fb.surface, kind: KindTexture, handle: color},
		width:    spec.Width,
		height:   spec.Height,
	}
	return nil
}

func (fb *Framebuffer) Spec() FramebufferSpec {
	return fb.spec
}

// ColorAttachment returns the texture the framebuffer renders into.
// It is owned by the framebuffer and invalid after Resize or Release.
func (fb *Framebuffer) ColorAttachment() *Texture2D {
	return fb.color
}

// Resize recreates the backend framebuffer when the size changes
func (fb *Framebuffer) Resize(width, height int) error {
	if width <= 0 || height <= 0 || (width == fb.spec.Width && height == fb.spec.Height) {
		return nil
	}
	fb.Release()
	return fb.create(FramebufferSpec{Width: width, Height: height})
}

func (fb *Framebuffer) Bind() {
	fb.surface.BindFramebuffer(fb.handle)
}

func (fb *Framebuffer) Unbind() {
	fb.surface.BindFramebuffer(0)
}

func (fb *Framebuffer) Release() {
	if fb.color != nil {
		fb.color.Release()
	}
	fb.resource.Release()
}
