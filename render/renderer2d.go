package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// BatchConfig bounds a single batch. A draw that would exceed either limit
// flushes the current batch first.
type BatchConfig struct {
	MaxQuads        int // vertex capacity is MaxQuads*4, index capacity MaxQuads*6
	MaxTextureSlots int // slot 0 always holds the white texture, so at least 2
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{MaxQuads: 10000, MaxTextureSlots: 32}
}

// Stats counts renderer work since the last ResetStats
type Stats struct {
	DrawCalls int
	Quads     int
	Triangles int
	Circles   int
	Glyphs    int
	Vertices  int
	Indices   int
}

// Renderer2D accumulates primitives into one vertex/index batch and submits
// it to the surface as a single indexed draw. It is not safe for concurrent use.
type Renderer2D struct {
	surface Surface
	cfg     BatchConfig
	log     *zap.Logger

	shader       *Shader
	vertexBuffer *VertexBuffer
	indexBuffer  *IndexBuffer
	vertexArray  *VertexArray
	whiteTexture *Texture2D

	vertices    []Vertex
	indices     []uint32
	vertexCount int
	indexCount  int

	slots     []*Texture2D
	slotCount int

	sceneOpen bool
	closed    bool
	stats     Stats
}

// NewRenderer2D creates the batch shader, buffers and white texture on surface
func NewRenderer2D(surface Surface, cfg BatchConfig, log *zap.Logger) (*Renderer2D, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxQuads <= 0 {
		cfg.MaxQuads = DefaultBatchConfig().MaxQuads
	}
	if cfg.MaxTextureSlots < 2 {
		cfg.MaxTextureSlots = DefaultBatchConfig().MaxTextureSlots
	}

	r := &Renderer2D{
		surface:  surface,
		cfg:      cfg,
		log:      log,
		vertices: make([]Vertex, cfg.MaxQuads*4),
		indices:  make([]uint32, cfg.MaxQuads*6),
		slots:    make([]*Texture2D, cfg.MaxTextureSlots),
	}

	if err := r.createResources(); err != nil {
		r.releaseResources()
		return nil, fmt.Errorf("create renderer2d: %w", err)
	}

	log.Info("renderer2d ready",
		zap.Int("max_quads", cfg.MaxQuads),
		zap.Int("max_texture_slots", cfg.MaxTextureSlots),
	)
	return r, nil
}

func (r *Renderer2D) createResources() error {
	var err error
	if r.vertexBuffer, err = NewVertexBuffer(r.surface, len(r.vertices), r.log); err != nil {
		return err
	}
	if r.indexBuffer, err = NewIndexBuffer(r.surface, len(r.indices), r.log); err != nil {
		return err
	}
	if r.vertexArray, err = NewVertexArray(r.surface, QuadVertexLayout, r.vertexBuffer, r.indexBuffer, r.log); err != nil {
		return err
	}
	if r.whiteTexture, err = NewTexture2D(r.surface, 1, 1, []byte{0xff, 0xff, 0xff, 0xff}, r.log); err != nil {
		return err
	}
	if r.shader, err = NewShader(r.surface, quadShaderSource(r.cfg.MaxTextureSlots), r.log); err != nil {
		return err
	}

	samplers := make([]int32, r.cfg.MaxTextureSlots)
	for i := range samplers {
		samplers[i] = int32(i)
	}
	r.shader.Bind()
	r.shader.SetIntArray("u_Textures", samplers)

	r.slots[0] = r.whiteTexture
	r.slotCount = 1
	return nil
}

func (r *Renderer2D) releaseResources() {
	if r.shader != nil {
		r.shader.Release()
	}
	if r.whiteTexture != nil {
		r.whiteTexture.Release()
	}
	if r.vertexArray != nil {
		r.vertexArray.Release()
	}
	if r.indexBuffer != nil {
		r.indexBuffer.Release()
	}
	if r.vertexBuffer != nil {
		r.vertexBuffer.Release()
	}
}

// Close releases every GPU resource the renderer owns
func (r *Renderer2D) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.sceneOpen = false
	r.releaseResources()
}

func (r *Renderer2D) Config() BatchConfig {
	return r.cfg
}

// WhiteTexture is the 1x1 texture bound to slot 0
func (r *Renderer2D) WhiteTexture() *Texture2D {
	return r.whiteTexture
}

// SceneOpen reports whether BeginScene has been called without a matching EndScene
func (r *Renderer2D) SceneOpen() bool {
	return r.sceneOpen
}

// BeginScene resets the batch and uploads the camera's view-projection matrix
func (r *Renderer2D) BeginScene(camera ViewProjector) error {
	if r.closed {
		return ErrRendererClosed
	}
	if r.sceneOpen {
		return ErrSceneAlreadyOpen
	}
	r.sceneOpen = true

	r.shader.Bind()
	r.shader.SetMat4("u_ViewProjection", camera.ViewProjection())
	r.startBatch()
	return nil
}

// EndScene submits whatever is left in the batch
func (r *Renderer2D) EndScene() error {
	if !r.sceneOpen {
		return ErrSceneNotOpen
	}
	r.flush()
	r.sceneOpen = false
	return nil
}

func (r *Renderer2D) startBatch() {
	r.vertexCount = 0
	r.indexCount = 0
	for i := 1; i < r.slotCount; i++ {
		r.slots[i] = nil
	}
	r.slotCount = 1
}

func (r *Renderer2D) flush() {
	if r.indexCount == 0 {
		return
	}

	// capacity is guaranteed by reserve
	_ = r.vertexBuffer.SetData(r.vertices[:r.vertexCount])
	_ = r.indexBuffer.SetData(r.indices[:r.indexCount])

	for i := 0; i < r.slotCount; i++ {
		r.slots[i].Bind(i)
	}
	r.shader.Bind()
	r.vertexArray.Bind()
	r.surface.DrawIndexed(r.vertexArray.Handle(), r.indexCount)

	r.stats.DrawCalls++
	r.stats.Vertices += r.vertexCount
	r.stats.Indices += r.indexCount
}

func (r *Renderer2D) nextBatch() {
	r.flush()
	r.startBatch()
}

// reserve makes room for a primitive and returns the texture slot it samples.
// Capacity is checked before the texture table so a flush for either reason
// happens before the primitive is appended.
func (r *Renderer2D) reserve(vertices, indices int, texture *Texture2D) (float32, error) {
	if vertices > len(r.vertices) || indices > len(r.indices) {
		return 0, fmt.Errorf("render: primitive needs %d vertices/%d indices, batch holds %d/%d",
			vertices, indices, len(r.vertices), len(r.indices))
	}
	if r.vertexCount+vertices > len(r.vertices) || r.indexCount+indices > len(r.indices) {
		r.nextBatch()
	}
	if texture == nil || texture == r.whiteTexture {
		return 0, nil
	}

	for i := 1; i < r.slotCount; i++ {
		if r.slots[i] == texture {
			return float32(i), nil
		}
	}
	if r.slotCount == len(r.slots) {
		r.nextBatch()
	}
	slot := r.slotCount
	r.slots[slot] = texture
	r.slotCount++
	return float32(slot), nil
}

func (r *Renderer2D) checkOpen() error {
	if !r.sceneOpen {
		return ErrSceneNotOpen
	}
	return nil
}

// DrawQuad appends a quad to the batch
func (r *Renderer2D) DrawQuad(q Quad) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	texIndex, err := r.reserve(4, 6, q.Texture)
	if err != nil {
		return err
	}

	transform := q.transform()
	texCoords := &quadTexCoords
	if q.TexCoords != nil {
		texCoords = q.TexCoords
	}
	r.appendQuad(transform, q.Color, texCoords, texIndex, tiling(q.TilingFactor))
	r.stats.Quads++
	return nil
}

func (r *Renderer2D) appendQuad(transform mgl32.Mat4, color mgl32.Vec4, texCoords *[4]mgl32.Vec2, texIndex, tilingFactor float32) {
	base := uint32(r.vertexCount)
	for i, p := range quadPositions {
		r.vertices[r.vertexCount] = Vertex{
			Position:     transform.Mul4x1(p).Vec3(),
			Color:        color,
			TexCoord:     texCoords[i],
			TexIndex:     texIndex,
			TilingFactor: tilingFactor,
		}
		r.vertexCount++
	}
	for _, idx := range quadIndices {
		r.indices[r.indexCount] = base + idx
		r.indexCount++
	}
}

// DrawTri appends a triangle to the batch
func (r *Renderer2D) DrawTri(t Triangle) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	texIndex, err := r.reserve(3, 3, t.Texture)
	if err != nil {
		return err
	}

	points := t.Points
	if points == [3]mgl32.Vec2{} {
		points = defaultTrianglePoints
	}
	transform := t.transform()
	tf := tiling(t.TilingFactor)

	base := uint32(r.vertexCount)
	for i, p := range points {
		r.vertices[r.vertexCount] = Vertex{
			Position:     transform.Mul4x1(mgl32.Vec4{p.X(), p.Y(), 0, 1}).Vec3(),
			Color:        t.Color,
			TexCoord:     triangleTexCoords[i],
			TexIndex:     texIndex,
			TilingFactor: tf,
		}
		r.vertexCount++
		r.indices[r.indexCount] = base + uint32(i)
		r.indexCount++
	}
	r.stats.Triangles++
	return nil
}

// DrawCircle appends a tessellated disc or ring to the batch
func (r *Renderer2D) DrawCircle(c Circle) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if _, err := r.reserve(c.vertexCount(), c.indexCount(), nil); err != nil {
		return err
	}

	transform := c.transform()
	segments := c.segments()
	base := uint32(r.vertexCount)
	step := 2 * math.Pi / float32(segments)

	emit := func(x, y float32) {
		r.vertices[r.vertexCount] = Vertex{
			Position:     transform.Mul4x1(mgl32.Vec4{x, y, 0, 1}).Vec3(),
			Color:        c.Color,
			TexCoord:     mgl32.Vec2{x + 0.5, y + 0.5},
			TilingFactor: 1,
		}
		r.vertexCount++
	}
	index := func(ids ...uint32) {
		for _, id := range ids {
			r.indices[r.indexCount] = base + id
			r.indexCount++
		}
	}

	if c.ring() {
		inner := 0.5 * (1 - c.Thickness)
		for i := 0; i < segments; i++ {
			a := step * float32(i)
			emit(0.5*cos(a), 0.5*sin(a))
			emit(inner*cos(a), inner*sin(a))
		}
		n := uint32(segments)
		for i := uint32(0); i < n; i++ {
			j := (i + 1) % n
			index(2*i, 2*j, 2*j+1, 2*j+1, 2*i+1, 2*i)
		}
	} else {
		emit(0, 0)
		for i := 0; i < segments; i++ {
			a := step * float32(i)
			emit(0.5*cos(a), 0.5*sin(a))
		}
		n := uint32(segments)
		for i := uint32(0); i < n; i++ {
			index(0, 1+i, 1+(i+1)%n)
		}
	}

	r.stats.Circles++
	return nil
}

// DrawString lays out text with font and appends one textured quad per glyph.
// Newlines start a new line; runes the font lacks are skipped.
func (r *Renderer2D) DrawString(font Font, text string, p TextParams) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if font == nil {
		return errors.New("render: nil font")
	}

	size := p.Size
	if size == 0 {
		size = 1
	}
	var transform mgl32.Mat4
	if p.Transform != nil {
		transform = *p.Transform
	} else {
		transform = ModelTransform(p.Position, mgl32.Vec2{size, size}, p.Rotation)
	}

	// layout happens in line-height units with the first baseline's top at y=0
	var x, y float32
	for _, ch := range text {
		if ch == '\n' {
			x = 0
			y -= font.LineHeight() + p.LineSpacing
			continue
		}
		glyph, ok := font.Glyph(ch)
		if !ok {
			continue
		}
		if glyph.Visible {
			texIndex, err := r.reserve(4, 6, font.Atlas())
			if err != nil {
				return err
			}
			x0, x1 := x+glyph.Bounds[0], x+glyph.Bounds[2]
			y0, y1 := y-glyph.Bounds[3], y-glyph.Bounds[1]
			local := mgl32.Translate3D((x0+x1)/2, (y0+y1)/2, 0).Mul4(mgl32.Scale3D(x1-x0, y1-y0, 1))
			r.appendQuad(transform.Mul4(local), p.Color, &glyph.TexCoords, texIndex, 1)
			r.stats.Glyphs++
		}
		x += glyph.Advance + p.Kerning
	}
	return nil
}

func (r *Renderer2D) Stats() Stats {
	return r.stats
}

func (r *Renderer2D) ResetStats() {
	r.stats = Stats{}
}
