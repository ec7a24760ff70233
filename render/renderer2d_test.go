package render_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/quadforge/render"
	"github.com/plus3/quadforge/render/rendertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var red = mgl32.Vec4{1, 0, 0, 1}

func newRenderer(t *testing.T, cfg render.BatchConfig) (*render.Renderer2D, *rendertest.Surface) {
	t.Helper()
	surface := rendertest.NewSurface()
	r, err := render.NewRenderer2D(surface, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, surface
}

func newTexture(t *testing.T, surface render.Surface) *render.Texture2D {
	t.Helper()
	tex, err := render.NewTexture2D(surface, 2, 2, make([]byte, 16), nil)
	require.NoError(t, err)
	return tex
}

func TestThreeUntexturedQuadsFlushOnce(t *testing.T) {
	r, surface := newRenderer(t, render.DefaultBatchConfig())
	camera := render.NewOrthographicCamera(-1, 1, -1, 1)

	require.NoError(t, r.BeginScene(camera))
	for i := 0; i < 3; i++ {
		require.NoError(t, r.DrawQuad(render.Quad{
			Position: mgl32.Vec3{0, 0, 0},
			Size:     mgl32.Vec2{0.2, 0.2},
			Color:    red,
		}))
	}
	assert.Empty(t, surface.Draws, "nothing is submitted before EndScene")
	require.NoError(t, r.EndScene())

	require.Len(t, surface.Draws, 1)
	draw := surface.Draws[0]
	assert.Len(t, draw.Vertices, 12)
	assert.Len(t, draw.Indices, 18)
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, draw.Indices[:6])
	assert.Equal(t, []uint32{8, 9, 10, 10, 11, 8}, draw.Indices[12:])
	assert.Equal(t, camera.ViewProjection(), draw.ViewProjection)

	for _, v := range draw.Vertices {
		assert.Equal(t, red, v.Color)
		assert.Equal(t, float32(0), v.TexIndex)
		assert.InDelta(t, 0.1, abs(v.Position.X()), 1e-6)
		assert.InDelta(t, 0.1, abs(v.Position.Y()), 1e-6)
	}

	stats := r.Stats()
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 3, stats.Quads)
	assert.Equal(t, 12, stats.Vertices)
	assert.Equal(t, 18, stats.Indices)
}

func TestTextureSlotOverflowFlushesOnce(t *testing.T) {
	const slots = 4
	r, surface := newRenderer(t, render.BatchConfig{MaxQuads: 100, MaxTextureSlots: slots})

	// slot 0 is the white texture, so slots-1 user textures fit
	textures := make([]*render.Texture2D, slots)
	for i := range textures {
		textures[i] = newTexture(t, surface)
	}

	require.NoError(t, r.BeginScene(render.NewOrthographicCamera(-1, 1, -1, 1)))
	for _, tex := range textures[:slots-1] {
		require.NoError(t, r.DrawQuad(render.Quad{Size: mgl32.Vec2{1, 1}, Texture: tex}))
		require.NoError(t, r.DrawQuad(render.Quad{Size: mgl32.Vec2{1, 1}, Texture: tex}))
	}
	require.NoError(t, r.DrawQuad(render.Quad{Size: mgl32.Vec2{1, 1}}))
	assert.Empty(t, surface.Draws, "K <= capacity distinct textures share one batch")

	require.NoError(t, r.DrawQuad(render.Quad{Size: mgl32.Vec2{1, 1}, Texture: textures[slots-1]}))
	require.Len(t, surface.Draws, 1, "the extra texture flushes exactly once")
	assert.Len(t, surface.Draws[0].Vertices, 7*4)

	require.NoError(t, r.EndScene())
	require.Len(t, surface.Draws, 2)

	second := surface.Draws[1]
	assert.Len(t, second.Vertices, 4)
	assert.Equal(t, float32(1), second.Vertices[0].TexIndex)
	assert.Equal(t, textures[slots-1].Handle(), second.Textures[1])
	assert.Equal(t, r.WhiteTexture().Handle(), second.Textures[0])
}

func TestReusedTextureKeepsItsSlot(t *testing.T) {
	r, surface := newRenderer(t, render.DefaultBatchConfig())
	a, b := newTexture(t, surface), newTexture(t, surface)

	require.NoError(t, r.BeginScene(render.NewOrthographicCamera(-1, 1, -1, 1)))
	require.NoError(t, r.DrawQuad(render.Quad{Texture: a}))
	require.NoError(t, r.DrawQuad(render.Quad{Texture: b}))
	require.NoError(t, r.DrawQuad(render.Quad{Texture: a}))
	require.NoError(t, r.EndScene())

	require.Len(t, surface.Draws, 1)
	v := surface.Draws[0].Vertices
	assert.Equal(t, float32(1), v[0].TexIndex)
	assert.Equal(t, float32(2), v[4].TexIndex)
	assert.Equal(t, float32(1), v[8].TexIndex)
}

func TestVertexCapacityFlushAndContinue(t *testing.T) {
	r, surface := newRenderer(t, render.BatchConfig{MaxQuads: 2, MaxTextureSlots: 8})

	require.NoError(t, r.BeginScene(render.NewOrthographicCamera(-1, 1, -1, 1)))
	for i := 0; i < 5; i++ {
		require.NoError(t, r.DrawQuad(render.Quad{Size: mgl32.Vec2{1, 1}}))
	}
	require.NoError(t, r.EndScene())

	require.Len(t, surface.Draws, 3)
	assert.Len(t, surface.Draws[0].Vertices, 8)
	assert.Len(t, surface.Draws[1].Vertices, 8)
	assert.Len(t, surface.Draws[2].Vertices, 4)
	assert.Equal(t, 5, r.Stats().Quads, "no primitive is dropped")
	for _, draw := range surface.Draws {
		assert.LessOrEqual(t, len(draw.Indices), 12)
	}
}

func TestSceneStateErrors(t *testing.T) {
	r, surface := newRenderer(t, render.DefaultBatchConfig())
	camera := render.NewOrthographicCamera(-1, 1, -1, 1)

	assert.ErrorIs(t, r.DrawQuad(render.Quad{}), render.ErrSceneNotOpen)
	assert.ErrorIs(t, r.DrawTri(render.Triangle{}), render.ErrSceneNotOpen)
	assert.ErrorIs(t, r.DrawCircle(render.Circle{}), render.ErrSceneNotOpen)
	assert.ErrorIs(t, r.EndScene(), render.ErrSceneNotOpen)

	require.NoError(t, r.BeginScene(camera))
	assert.ErrorIs(t, r.BeginScene(camera), render.ErrSceneAlreadyOpen)
	require.NoError(t, r.EndScene())

	assert.Empty(t, surface.Draws, "an empty scene submits nothing")

	r.Close()
	assert.ErrorIs(t, r.BeginScene(camera), render.ErrRendererClosed)
}

func TestDrawTriAndCircle(t *testing.T) {
	r, surface := newRenderer(t, render.DefaultBatchConfig())

	require.NoError(t, r.BeginScene(render.NewOrthographicCamera(-1, 1, -1, 1)))
	require.NoError(t, r.DrawTri(render.Triangle{Size: mgl32.Vec2{1, 1}, Color: red}))
	require.NoError(t, r.DrawCircle(render.Circle{Radius: 1, Segments: 8, Color: red}))
	require.NoError(t, r.DrawCircle(render.Circle{Radius: 1, Segments: 8, Thickness: 0.5}))
	require.NoError(t, r.EndScene())

	require.Len(t, surface.Draws, 1)
	draw := surface.Draws[0]
	// triangle 3, disc 8+1, ring 2*8
	assert.Len(t, draw.Vertices, 3+9+16)
	assert.Len(t, draw.Indices, 3+24+48)

	for _, idx := range draw.Indices {
		assert.Less(t, int(idx), len(draw.Vertices))
	}

	// disc rim vertices sit on the radius
	for _, v := range draw.Vertices[4:12] {
		assert.InDelta(t, 1.0, v.Position.Vec2().Len(), 1e-5)
	}

	stats := r.Stats()
	assert.Equal(t, 1, stats.Triangles)
	assert.Equal(t, 2, stats.Circles)

	r.ResetStats()
	assert.Equal(t, render.Stats{}, r.Stats())
}

func TestCloseReleasesResources(t *testing.T) {
	surface := rendertest.NewSurface()
	r, err := render.NewRenderer2D(surface, render.DefaultBatchConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, surface.Live())

	r.Close()
	assert.Equal(t, 0, surface.Live())
	assert.NotPanics(t, r.Close)
}

func TestRendererCreationFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	surface := rendertest.NewSurface()
	surface.Fail[render.KindShader] = true

	r, err := render.NewRenderer2D(surface, render.DefaultBatchConfig(), zap.New(core))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, render.ErrResourceCreationFailed)
	assert.Equal(t, 0, surface.Live(), "partially created resources are released")
	assert.Equal(t, 1, logs.FilterMessage("gpu resource creation failed").Len())
}

func TestShaderUniformsUploaded(t *testing.T) {
	r, surface := newRenderer(t, render.BatchConfig{MaxQuads: 10, MaxTextureSlots: 3})
	camera := render.NewOrthographicCamera(-2, 2, -1, 1)

	require.NoError(t, r.BeginScene(camera))
	require.NoError(t, r.DrawQuad(render.Quad{}))
	require.NoError(t, r.EndScene())

	shader := surface.Draws[0].Shader
	samplers, ok := surface.Uniform(shader, "u_Textures")
	require.True(t, ok)
	assert.Equal(t, []int32{0, 1, 2}, samplers)

	src, ok := surface.Shader(shader)
	require.True(t, ok)
	assert.Contains(t, src.Fragment, "u_Textures[3]")
	assert.Contains(t, src.Vertex, "u_ViewProjection")
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
