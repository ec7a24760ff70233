// Package scene ties the ECS, scripts and the 2D renderer together: it owns a
// storage with the built-in components, runs the per-frame systems and walks
// renderable components into a Renderer2D.
package scene

import (
	"errors"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/render"
	"github.com/plus3/quadforge/script"
)

var ErrNoCamera = errors.New("scene has no primary camera")

var white = mgl32.Vec4{1, 1, 1, 1}

// TextureSource resolves Sprite texture names
type TextureSource interface {
	Texture(name string) (*render.Texture2D, bool)
}

type Scene struct {
	Name string

	log       *zap.Logger
	registry  *ecs.ComponentRegistry
	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	viewport  *ecs.Singleton[Viewport]
	scripts   *script.Dispatcher

	sprites *ecs.Query[spriteView]
	circles *ecs.Query[circleView]
	texts   *ecs.Query[textView]
	cameras *ecs.Query[placedCamera]
	named   *ecs.Query[namedView]
}

type Option func(*options)

type options struct {
	log     *zap.Logger
	debug   bool
	systems []ecs.System
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDebug makes structural ECS errors panic
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithSystems registers extra systems after scripts and before the built-in
// movement and camera systems
func WithSystems(systems ...ecs.System) Option {
	return func(o *options) { o.systems = append(o.systems, systems...) }
}

// New creates an empty scene. Systems run in the order scripts, extra
// systems, movement, cameras.
func New(name string, opts ...Option) *Scene {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	registry := ecs.NewComponentRegistry()
	Register(registry)
	storage := ecs.NewStorage(registry, ecs.WithLogger(o.log), ecs.WithDebug(o.debug))

	s := &Scene{
		Name:      name,
		log:       o.log.With(zap.String("scene", name)),
		registry:  registry,
		storage:   storage,
		scheduler: ecs.NewScheduler(storage),
		viewport:  ecs.NewSingleton(storage, Viewport{Width: 1, Height: 1}),
		scripts:   script.NewDispatcher(storage),
		sprites:   ecs.NewQuery[spriteView](storage),
		circles:   ecs.NewQuery[circleView](storage),
		texts:     ecs.NewQuery[textView](storage),
		cameras:   ecs.NewQuery[placedCamera](storage),
		named:     ecs.NewQuery[namedView](storage),
	}

	s.scheduler.MustRegister(&script.System{})
	s.scheduler.MustRegister(o.systems...)
	s.scheduler.MustRegister(&MovementSystem{}, &CameraSystem{})
	return s
}

func (s *Scene) Registry() *ecs.ComponentRegistry { return s.registry }
func (s *Scene) Storage() *ecs.Storage            { return s.storage }
func (s *Scene) Scheduler() *ecs.Scheduler        { return s.scheduler }
func (s *Scene) Logger() *zap.Logger              { return s.log }

// CreateEntity spawns an entity with a fresh ID, a Tag and a unit Transform
func (s *Scene) CreateEntity(name string) ecs.EntityId {
	return s.CreateEntityWithID(uuid.New(), name)
}

func (s *Scene) CreateEntityWithID(id uuid.UUID, name string) ecs.EntityId {
	return s.storage.Spawn(ID{UUID: id}, Tag{Name: name}, NewTransform(mgl32.Vec3{}))
}

func (s *Scene) DestroyEntity(id ecs.EntityId) error {
	return s.storage.Destroy(id)
}

type namedView struct {
	Entity ecs.EntityId
	*ID
	Tag *Tag `ecs:"optional"`
}

// FindByName returns the first entity whose Tag matches name
func (s *Scene) FindByName(name string) (ecs.EntityId, bool) {
	for id, item := range s.named.Iter() {
		if item.Tag != nil && item.Tag.Name == name {
			return id, true
		}
	}
	return 0, false
}

func (s *Scene) FindByUUID(u uuid.UUID) (ecs.EntityId, bool) {
	for id, item := range s.named.Iter() {
		if item.ID.UUID == u {
			return id, true
		}
	}
	return 0, false
}

// Update runs one frame of systems
func (s *Scene) Update(dt float64) {
	s.scheduler.Once(dt)
}

// OnViewportResize records the size cameras project onto
func (s *Scene) OnViewportResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	vp := s.viewport.Get()
	vp.Width, vp.Height = width, height
	for item := range s.cameras.Values() {
		item.Camera.SetViewport(width, height)
	}
}

// OnEvent forwards ev to scripts and reports whether one handled it
func (s *Scene) OnEvent(ev event.Event) bool {
	event.Dispatch(ev, func(e *event.WindowResize) bool {
		s.OnViewportResize(e.Width, e.Height)
		return false
	})
	return s.scripts.Dispatch(ev)
}

// TextureNames lists the distinct textures sprites refer to, sorted
func (s *Scene) TextureNames() []string {
	names := make(map[string]struct{})
	for item := range s.sprites.Values() {
		if item.Texture != "" {
			names[item.Texture] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(names))
}

// PrimaryCamera returns the first camera marked Primary
func (s *Scene) PrimaryCamera() (*render.Camera, ecs.EntityId, bool) {
	for id, item := range s.cameras.Iter() {
		if item.Camera.Primary {
			return item.Camera.Render(), id, true
		}
	}
	return nil, 0, false
}

type spriteView struct {
	*Transform
	*Sprite
}

type circleView struct {
	*Transform
	*Circle
}

type textView struct {
	*Transform
	*Text
}

// Render draws the scene through its primary camera
func (s *Scene) Render(r *render.Renderer2D, textures TextureSource, font render.Font) error {
	camera, _, ok := s.PrimaryCamera()
	if !ok {
		return ErrNoCamera
	}
	return s.RenderWith(r, camera, textures, font)
}

// RenderWith draws sprites, then circles, then text through camera.
// textures and font may be nil.
func (s *Scene) RenderWith(r *render.Renderer2D, camera render.ViewProjector, textures TextureSource, font render.Font) error {
	if err := r.BeginScene(camera); err != nil {
		return err
	}
	err := s.draw(r, textures, font)
	return errors.Join(err, r.EndScene())
}

func (s *Scene) draw(r *render.Renderer2D, textures TextureSource, font render.Font) error {
	for item := range s.sprites.Values() {
		m := item.Transform.Matrix()
		q := render.Quad{
			Color:        item.Sprite.Color,
			TilingFactor: item.TilingFactor,
			Transform:    &m,
		}
		if q.Color == (mgl32.Vec4{}) {
			q.Color = white
		}
		if item.Texture != "" && textures != nil {
			if tex, ok := textures.Texture(item.Texture); ok {
				q.Texture = tex
			}
		}
		if err := r.DrawQuad(q); err != nil {
			return err
		}
	}

	for item := range s.circles.Values() {
		m := item.Transform.Matrix()
		c := render.Circle{
			Color:     item.Circle.Color,
			Thickness: item.Thickness,
			Segments:  item.Segments,
			Transform: &m,
		}
		if c.Color == (mgl32.Vec4{}) {
			c.Color = white
		}
		if err := r.DrawCircle(c); err != nil {
			return err
		}
	}

	if font == nil {
		return nil
	}
	for item := range s.texts.Values() {
		size := item.Text.Size
		if size == 0 {
			size = 1
		}
		color := item.Text.Color
		if color == (mgl32.Vec4{}) {
			color = white
		}
		if err := r.DrawString(font, item.Value, render.TextParams{
			Position: item.Position,
			Size:     size * item.Scale.Y(),
			Rotation: item.Rotation,
			Color:    color,
		}); err != nil {
			return err
		}
	}
	return nil
}
