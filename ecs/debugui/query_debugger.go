package debugui

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
)

// QueryDebugger previews which archetypes a set of component types would match
type QueryDebugger struct {
	selected map[string]bool
}

func NewQueryDebugger() *QueryDebugger {
	return &QueryDebugger{selected: make(map[string]bool)}
}

func (qd *QueryDebugger) Render(storage *ecs.Storage) {
	defer imgui.End()
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		return
	}

	types := ComponentTypes(storage)
	imgui.Text("Required components:")
	imgui.SameLine()
	if imgui.Button("Clear All") {
		clear(qd.selected)
	}
	imgui.Separator()

	var required []reflect.Type
	for _, name := range slices.Sorted(maps.Keys(types)) {
		on := qd.selected[name]
		if imgui.Checkbox(name, &on) {
			qd.selected[name] = on
		}
		if on {
			required = append(required, types[name])
		}
	}
	imgui.Separator()

	if len(required) == 0 {
		imgui.Text("No component types selected")
		return
	}

	matched, entities := MatchArchetypes(storage, required)
	imgui.Text(fmt.Sprintf("Matching archetypes: %d", len(matched)))
	imgui.Text(fmt.Sprintf("Matching entities: %d", entities))

	if !imgui.TreeNodeStr("Archetype Details") {
		return
	}
	if imgui.BeginTableV("QueryArchTable", 3, imgui.TableFlagsBorders|imgui.TableFlagsRowBg, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()
		for _, archetype := range matched {
			imgui.TableNextRow()
			imgui.TableSetColumnIndex(0)
			imgui.Text(fmt.Sprintf("0x%X", archetype.ID()))
			imgui.TableSetColumnIndex(1)
			imgui.Text(strings.Join(typeNames(archetype.Types()), ", "))
			imgui.TableSetColumnIndex(2)
			imgui.Text(fmt.Sprintf("%d", archetype.Len()))
		}
		imgui.EndTable()
	}
	imgui.TreePop()
}
