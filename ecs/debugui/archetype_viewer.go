package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
)

// ArchetypeViewer lists populated archetypes with a bar per entity count.
// Clicking a row selects it for the entity browser filter.
type ArchetypeViewer struct {
	selected  *uint32
	sortBy    int
	ascending bool
}

func NewArchetypeViewer() *ArchetypeViewer {
	return &ArchetypeViewer{sortBy: ArchetypeColumnEntities}
}

func (av *ArchetypeViewer) Selected() *uint32 {
	return av.selected
}

// Render draws the window and returns the clicked archetype, if any
func (av *ArchetypeViewer) Render(storage *ecs.Storage) *uint32 {
	defer imgui.End()
	if !imgui.BeginV("Archetypes", nil, imgui.WindowFlagsNone) {
		return nil
	}

	rows := ArchetypeRows(storage)
	SortArchetypes(rows, av.sortBy, av.ascending)
	largest := 0
	for _, row := range rows {
		largest = max(largest, row.Entities)
	}

	var clicked *uint32
	const flags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ArchetypeTable", 4, flags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Size")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Entities")
		imgui.TableHeadersRow()

		if specs := imgui.TableGetSortSpecs(); specs.SpecsDirty() && specs.SpecsCount() > 0 {
			spec := specs.Specs()
			av.sortBy = int(spec.ColumnIndex())
			av.ascending = spec.SortDirection() == imgui.SortDirectionAscending
			SortArchetypes(rows, av.sortBy, av.ascending)
			specs.SetSpecsDirty(false)
		}

		for _, row := range rows {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			selected := av.selected != nil && *av.selected == row.ID
			if imgui.SelectableBoolV(fmt.Sprintf("0x%X", row.ID), selected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				id := row.ID
				if selected {
					av.selected = nil
				} else {
					av.selected = &id
				}
				clicked = &id
			}
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(row.Components)))
			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.Components, ", "))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Entities))
			if largest > 0 {
				imgui.SameLine()
				pos := imgui.CursorScreenPos()
				width := float32(row.Entities) / float32(largest) * 80
				imgui.WindowDrawList().AddRectFilled(pos, imgui.NewVec2(pos.X+width, pos.Y+10),
					imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6)))
			}
		}
		imgui.EndTable()
	}
	return clicked
}
