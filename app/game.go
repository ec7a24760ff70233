// Package app runs a scene inside an Ebiten window: it polls input into
// event records, steps scripts and systems at a fixed tick, streams textures
// through the asset manager and draws the scene and the debug overlay.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/assets"
	"github.com/plus3/quadforge/config"
	"github.com/plus3/quadforge/ecs/debugui"
	debugebiten "github.com/plus3/quadforge/ecs/debugui/ebiten"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/jobs"
	"github.com/plus3/quadforge/render"
	"github.com/plus3/quadforge/render/ebitensurface"
	"github.com/plus3/quadforge/scene"
	"github.com/plus3/quadforge/script/lua"
)

var clearColor = mgl32.Vec4{0.1, 0.1, 0.12, 1}

type Game struct {
	cfg *config.Config
	log *zap.Logger

	surface  render.Surface
	renderer *render.Renderer2D
	font     *render.BasicFont
	stats    render.Stats

	scene      *scene.Scene
	controller *render.OrthographicCameraController
	input      *Input

	pool    *jobs.Pool
	assets  *assets.Manager
	scripts *lua.Engine
	watcher *lua.Watcher

	imgui   *debugebiten.ImguiBackend
	overlay *debugui.Overlay

	width, height int
}

type Option func(*options)

type options struct {
	scene   *scene.Scene
	files   fs.FS
	surface render.Surface
	input   InputSource
}

// WithScene runs s instead of an empty scene
func WithScene(s *scene.Scene) Option {
	return func(o *options) { o.scene = s }
}

// WithAssets sets where textures are read from. Defaults to the working directory.
func WithAssets(files fs.FS) Option {
	return func(o *options) { o.files = files }
}

// WithSurface replaces the Ebiten GPU surface
func WithSurface(surface render.Surface) Option {
	return func(o *options) { o.surface = surface }
}

// WithInput replaces polling of the Ebiten input state
func WithInput(source InputSource) Option {
	return func(o *options) { o.input = source }
}

// New builds the game from cfg. The ImGui overlay, which opens the window,
// is created only when cfg.Debug.Enabled is set.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.surface == nil {
		o.surface = ebitensurface.New(log.Named("surface"))
	}
	if o.files == nil {
		o.files = os.DirFS(".")
	}
	if o.scene == nil {
		o.scene = scene.New(cfg.Window.Title, scene.WithLogger(log), scene.WithDebug(cfg.Debug.PanicOnError))
	}

	g := &Game{
		cfg:     cfg,
		log:     log,
		surface: o.surface,
		scene:   o.scene,
		input:   NewInput(o.input),
		width:   cfg.Window.Width,
		height:  cfg.Window.Height,
	}

	var err error
	g.renderer, err = render.NewRenderer2D(g.surface, render.BatchConfig{
		MaxQuads:        cfg.Renderer.MaxQuads,
		MaxTextureSlots: cfg.Renderer.MaxTextureSlots,
	}, log.Named("renderer"))
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	g.font, err = render.NewBasicFont(g.surface, log)
	if err != nil {
		g.renderer.Close()
		return nil, fmt.Errorf("create font: %w", err)
	}

	g.pool = jobs.NewPool(cfg.Jobs.Workers, log.Named("jobs"))
	g.assets = assets.NewManager(o.files, g.surface, g.pool, assets.WithLogger(log.Named("assets")))

	g.scripts = lua.NewEngine(cfg.Scripts.Dir, log)
	if cfg.Scripts.HotReload {
		if g.watcher, err = g.scripts.Watch(); err != nil {
			log.Warn("script hot reload disabled", zap.String("dir", cfg.Scripts.Dir), zap.Error(err))
		}
	}

	aspect := float32(g.width) / float32(g.height)
	g.controller = render.NewOrthographicCameraController(aspect, true)
	g.controller.SetZoom(cfg.Window.Zoom)
	g.scene.OnViewportResize(g.width, g.height)

	if cfg.Debug.Enabled {
		g.imgui = debugebiten.New(cfg.Window.Title, cfg.Window.Width, cfg.Window.Height)
		g.overlay = debugui.NewOverlay()
		g.overlay.Scheduler = g.scene.Scheduler()
	}
	return g, nil
}

func (g *Game) Scene() *scene.Scene                             { return g.scene }
func (g *Game) Assets() *assets.Manager                         { return g.assets }
func (g *Game) Scripts() *lua.Engine                            { return g.scripts }
func (g *Game) Controller() *render.OrthographicCameraController { return g.controller }

// Stats returns the renderer counters of the last drawn frame
func (g *Game) Stats() render.Stats {
	return g.stats
}

// Run opens the window and blocks until it closes
func (g *Game) Run() error {
	if g.imgui == nil {
		ebiten.SetWindowTitle(g.cfg.Window.Title)
		ebiten.SetWindowSize(g.cfg.Window.Width, g.cfg.Window.Height)
	}
	if g.cfg.Window.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetVsyncEnabled(g.cfg.Window.VSync)
	ebiten.SetTPS(g.cfg.Window.TPS)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game. It returns ebiten.Termination on Escape.
func (g *Game) Update() error {
	dt := 1 / float64(g.cfg.Window.TPS)

	if g.imgui != nil {
		g.imgui.BeginFrame()
		defer g.imgui.EndFrame()
	}

	for _, ev := range g.input.Poll() {
		if quit := g.handle(ev); quit {
			return ebiten.Termination
		}
	}

	if g.watcher != nil {
		g.scripts.ReloadChanged(g.watcher)
	}
	if _, err := lua.BindRefs(g.scripts, g.scene.Storage()); err != nil {
		g.log.Warn("script binding failed", zap.Error(err))
	}
	g.streamTextures()

	g.scene.Update(dt)
	if _, _, ok := g.scene.PrimaryCamera(); !ok {
		g.controller.OnUpdate(dt, g.input)
	}

	if g.overlay != nil {
		g.overlay.Draw(g.scene.Storage(), dt, g.stats)
	}
	return nil
}

// handle routes one input event and reports whether the game should quit
func (g *Game) handle(ev event.Event) bool {
	if g.imgui != nil {
		capture := debugebiten.Capture()
		keyboard, mouse := keyboardOrMouse(ev)
		if (keyboard && capture.WantCaptureKeyboard) || (mouse && capture.WantCaptureMouse) {
			return false
		}
	}

	if key, ok := ev.(*event.KeyEvent); ok && key.Pressed && !key.Repeat {
		switch key.Key {
		case event.KeyEscape:
			return true
		case event.KeyF1:
			if g.overlay != nil {
				g.overlay.Toggle()
			}
			return false
		}
	}

	if !g.scene.OnEvent(ev) {
		g.controller.OnEvent(ev)
	}
	return false
}

func (g *Game) streamTextures() {
	for _, name := range g.scene.TextureNames() {
		if err := g.assets.LoadTextureAsync(name); err != nil {
			g.log.Warn("texture request failed", zap.String("name", name), zap.Error(err))
		}
	}
	// failures are logged by the manager
	_, _ = g.assets.Integrate()
}

// Draw implements ebiten.Game
func (g *Game) Draw(screen *ebiten.Image) {
	if s, ok := g.surface.(*ebitensurface.Surface); ok {
		s.SetScreen(screen)
	}
	if err := g.Render(); err != nil {
		g.log.Error("render failed", zap.Error(err))
	}
	if g.imgui != nil {
		g.imgui.Present(screen)
	}
}

// Render clears the target and draws the scene through its primary camera,
// or through the free camera controller when it has none
func (g *Game) Render() error {
	g.renderer.ResetStats()
	g.surface.Clear(clearColor)

	var err error
	if _, _, ok := g.scene.PrimaryCamera(); ok {
		err = g.scene.Render(g.renderer, g.assets, g.font)
	} else {
		err = g.scene.RenderWith(g.renderer, g.controller.Camera(), g.assets, g.font)
	}
	g.stats = g.renderer.Stats()
	return err
}

// Layout implements ebiten.Game. Size changes reach the scene and the free
// camera as a WindowResize event.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.imgui != nil {
		g.imgui.Layout(outsideWidth, outsideHeight)
	}
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		ev := &event.WindowResize{Width: outsideWidth, Height: outsideHeight}
		g.scene.OnEvent(ev)
		g.controller.OnEvent(ev)
	}
	return outsideWidth, outsideHeight
}

// Close releases scripts, textures and renderer resources
func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.scripts.Close()
	g.pool.Wait()
	g.pool.Close()
	g.assets.Close()
	g.font.Release()
	g.renderer.Close()
}
