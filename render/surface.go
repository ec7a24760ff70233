package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Handle names a backend resource. The zero Handle means creation failed
// or the resource has been released.
type Handle uint32

type ResourceKind uint8

const (
	KindVertexBuffer ResourceKind = iota + 1
	KindIndexBuffer
	KindVertexArray
	KindTexture
	KindShader
	KindFramebuffer
)

func (k ResourceKind) String() string {
	switch k {
	case KindVertexBuffer:
		return "vertex buffer"
	case KindIndexBuffer:
		return "index buffer"
	case KindVertexArray:
		return "vertex array"
	case KindTexture:
		return "texture"
	case KindShader:
		return "shader"
	case KindFramebuffer:
		return "framebuffer"
	}
	return "unknown resource"
}

// Vertex is the layout every batched primitive is emitted in.
// TexCoord has its origin at the bottom-left of the texture.
type Vertex struct {
	Position     mgl32.Vec3
	Color        mgl32.Vec4
	TexCoord     mgl32.Vec2
	TexIndex     float32
	TilingFactor float32
}

type AttributeType uint8

const (
	Float1 AttributeType = iota + 1
	Float2
	Float3
	Float4
)

// Components returns the number of float32 values in the attribute
func (t AttributeType) Components() int {
	return int(t)
}

type VertexAttribute struct {
	Name   string
	Type   AttributeType
	Offset int // bytes from the start of the vertex
}

type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// NewVertexLayout computes offsets and stride for tightly packed float attributes
func NewVertexLayout(attrs ...VertexAttribute) VertexLayout {
	layout := VertexLayout{Attributes: make([]VertexAttribute, len(attrs))}
	for i, attr := range attrs {
		attr.Offset = layout.Stride
		layout.Attributes[i] = attr
		layout.Stride += attr.Type.Components() * 4
	}
	return layout
}

// QuadVertexLayout describes Vertex
var QuadVertexLayout = NewVertexLayout(
	VertexAttribute{Name: "a_Position", Type: Float3},
	VertexAttribute{Name: "a_Color", Type: Float4},
	VertexAttribute{Name: "a_TexCoord", Type: Float2},
	VertexAttribute{Name: "a_TexIndex", Type: Float1},
	VertexAttribute{Name: "a_TilingFactor", Type: Float1},
)

type ShaderSource struct {
	Name     string
	Vertex   string
	Fragment string
}

type FramebufferSpec struct {
	Width, Height int
}

// Surface is the GPU command surface the renderer issues requests to.
// Implementations translate these requests to a concrete graphics backend.
// Create calls return the zero Handle on failure.
type Surface interface {
	CreateVertexBuffer(capacity int) Handle
	CreateIndexBuffer(capacity int) Handle
	CreateVertexArray(layout VertexLayout, vertices, indices Handle) Handle
	CreateTexture(width, height int, pixels []byte) Handle
	CreateShader(src ShaderSource) Handle
	// CreateFramebuffer returns the framebuffer and its color attachment texture
	CreateFramebuffer(spec FramebufferSpec) (fb Handle, color Handle)
	Destroy(kind ResourceKind, h Handle)

	UploadVertices(vb Handle, vertices []Vertex)
	UploadIndices(ib Handle, indices []uint32)
	UploadTexture(tex Handle, pixels []byte)

	BindVertexArray(va Handle)
	BindShader(sh Handle)
	BindTexture(tex Handle, slot int)
	// BindFramebuffer redirects draws to fb; the zero Handle selects the default target
	BindFramebuffer(fb Handle)

	SetUniformInt(sh Handle, name string, v int32)
	SetUniformIntArray(sh Handle, name string, v []int32)
	SetUniformFloat4(sh Handle, name string, v mgl32.Vec4)
	SetUniformMat4(sh Handle, name string, v mgl32.Mat4)

	Clear(color mgl32.Vec4)
	DrawIndexed(va Handle, indexCount int)
}
