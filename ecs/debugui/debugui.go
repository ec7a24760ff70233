// Package debugui draws Dear ImGui windows for inspecting a running ECS world:
// an entity browser, a component inspector with live editing, an archetype
// viewer, a query debugger and frame statistics. The imgui-free model behind
// the windows lives in model.go.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
)

// ImguiItem is a component holding a render function called every frame
type ImguiItem struct {
	Render func()
}

// ImguiInputState is a singleton recording whether ImGui wants the input.
// Game input handlers skip events ImGui has captured.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem refreshes ImguiInputState and defers every ImguiItem render
// to the end of the update frame
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]
}

func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	if state := i.InputState.Get(); state != nil {
		io := imgui.CurrentIO()
		state.WantCaptureMouse = io.WantCaptureMouse()
		state.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for item := range i.Items.Values() {
		if item.Render != nil {
			frame.Commands.Defer(item.Render)
		}
	}
}
