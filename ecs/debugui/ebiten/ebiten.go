// Package ebiten hosts the debug overlay on the Ebiten Dear ImGui backend.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/ecs/debugui"
	"github.com/plus3/quadforge/render"
)

// ImguiBackend owns the ImGui context for one Ebiten window
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// New creates the window and the ImGui context. Layout state is not
// persisted to imgui.ini.
func New(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Frame runs the overlay windows inside one ImGui frame. Call it from
// ebiten.Game.Update.
func (b *ImguiBackend) Frame(overlay *debugui.Overlay, storage *ecs.Storage, dt float64, stats render.Stats) {
	b.BeginFrame()
	overlay.Draw(storage, dt, stats)
	b.EndFrame()
}

// Capture reports whether ImGui wants the mouse or keyboard this frame
func Capture() debugui.ImguiInputState {
	io := imgui.CurrentIO()
	return debugui.ImguiInputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}

// Present draws the ImGui output over screen
func (b *ImguiBackend) Present(screen *ebiten.Image) {
	b.Draw(screen)
}
