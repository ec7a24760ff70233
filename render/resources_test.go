package render_test

import (
	"testing"

	"github.com/plus3/quadforge/render"
	"github.com/plus3/quadforge/render/rendertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseIsIdempotent(t *testing.T) {
	surface := rendertest.NewSurface()
	vb, err := render.NewVertexBuffer(surface, 16, nil)
	require.NoError(t, err)
	assert.True(t, vb.Valid())

	vb.Release()
	assert.False(t, vb.Valid())
	assert.NotPanics(t, vb.Release)
	assert.Len(t, surface.Destroyed(), 1, "the backend handle is destroyed exactly once")
}

func TestResourceCreationFailure(t *testing.T) {
	surface := rendertest.NewSurface()
	surface.Fail[render.KindTexture] = true

	tex, err := render.NewTexture2D(surface, 1, 1, nil, nil)
	assert.Nil(t, tex)
	assert.ErrorIs(t, err, render.ErrResourceCreationFailed)
	assert.Contains(t, err.Error(), "texture")
}

func TestBufferCapacity(t *testing.T) {
	surface := rendertest.NewSurface()
	vb, err := render.NewVertexBuffer(surface, 2, nil)
	require.NoError(t, err)
	defer vb.Release()

	assert.NoError(t, vb.SetData(make([]render.Vertex, 2)))
	assert.Error(t, vb.SetData(make([]render.Vertex, 3)))

	ib, err := render.NewIndexBuffer(surface, 3, nil)
	require.NoError(t, err)
	defer ib.Release()
	assert.NoError(t, ib.SetData([]uint32{0, 1, 2}))
	assert.Error(t, ib.SetData([]uint32{0, 1, 2, 3}))
}

func TestTexturePixelValidation(t *testing.T) {
	surface := rendertest.NewSurface()
	_, err := render.NewTexture2D(surface, 2, 2, make([]byte, 15), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, surface.Live())

	tex, err := render.NewTexture2D(surface, 2, 1, make([]byte, 8), nil)
	require.NoError(t, err)
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, tex.SetData(pixels))

	recorded, ok := surface.Texture(tex.Handle())
	require.True(t, ok)
	assert.Equal(t, pixels, recorded.Pixels)
	assert.Error(t, tex.SetData(pixels[:4]))
}

func TestFramebufferResize(t *testing.T) {
	surface := rendertest.NewSurface()
	fb, err := render.NewFramebuffer(surface, render.FramebufferSpec{Width: 320, Height: 180}, nil)
	require.NoError(t, err)

	color := fb.ColorAttachment()
	require.True(t, color.Valid())
	_, ok := surface.Texture(color.Handle())
	assert.True(t, ok)

	require.NoError(t, fb.Resize(640, 360))
	assert.Equal(t, render.FramebufferSpec{Width: 640, Height: 360}, fb.Spec())
	assert.False(t, color.Valid(), "the old attachment is invalidated")
	assert.Equal(t, 640, fb.ColorAttachment().Width())
	assert.Equal(t, 1, surface.LiveOf(render.KindFramebuffer))

	// same size and degenerate sizes are ignored
	before := fb.Handle()
	require.NoError(t, fb.Resize(640, 360))
	require.NoError(t, fb.Resize(0, 10))
	assert.Equal(t, before, fb.Handle())

	fb.Release()
	fb.Release()
	assert.Equal(t, 0, surface.Live())
}
