package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
)

// EntityBrowser lists entities with a text filter, sortable columns and paging
type EntityBrowser struct {
	PerPage int

	rows      []EntityRow
	archetype *uint32
	filter    string
	selected  ecs.EntityId
	page      int
	sortBy    int
	ascending bool
}

func NewEntityBrowser(perPage int) *EntityBrowser {
	return &EntityBrowser{PerPage: max(perPage, 1), ascending: true}
}

func (eb *EntityBrowser) Selected() ecs.EntityId {
	return eb.selected
}

func (eb *EntityBrowser) Select(id ecs.EntityId) {
	eb.selected = id
}

// FilterArchetype narrows the list to one archetype; nil clears it
func (eb *EntityBrowser) FilterArchetype(id *uint32) {
	eb.archetype = id
	eb.page = 0
}

func (eb *EntityBrowser) Render(storage *ecs.Storage) {
	defer imgui.End()
	if !imgui.BeginV("Entities", nil, imgui.WindowFlagsNone) {
		return
	}

	eb.rows = EntityRows(storage)
	SortEntities(eb.rows, eb.sortBy, eb.ascending)
	if eb.selected != 0 && !storage.IsAlive(eb.selected) {
		eb.selected = 0
	}

	imgui.InputTextWithHint("##search", "Search...", &eb.filter, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filter = ""
		eb.FilterArchetype(nil)
	}
	visible := FilterEntities(eb.rows, eb.filter, eb.archetype)

	const flags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, flags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Archetype")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		if specs := imgui.TableGetSortSpecs(); specs.SpecsDirty() && specs.SpecsCount() > 0 {
			spec := specs.Specs()
			eb.sortBy = int(spec.ColumnIndex())
			eb.ascending = spec.SortDirection() == imgui.SortDirectionAscending
			SortEntities(visible, eb.sortBy, eb.ascending)
			specs.SetSpecsDirty(false)
		}

		pages := max(1, (len(visible)+eb.PerPage-1)/eb.PerPage)
		eb.page = min(eb.page, pages-1)
		start := eb.page * eb.PerPage
		for _, row := range visible[start:min(start+eb.PerPage, len(visible))] {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			if imgui.SelectableBoolV(row.ID.String(), eb.selected == row.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selected = row.ID
			}
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("0x%X", row.ArchetypeID))
			imgui.TableNextColumn()
			imgui.Text(strings.Join(row.Components, ", "))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(row.Components)))
		}
		imgui.EndTable()

		if pages > 1 {
			imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.page+1, pages, len(visible)))
			imgui.SameLine()
			if imgui.Button("Prev") && eb.page > 0 {
				eb.page--
			}
			imgui.SameLine()
			if imgui.Button("Next") && eb.page < pages-1 {
				eb.page++
			}
			return
		}
	}
	imgui.Text(fmt.Sprintf("Total: %d entities", len(visible)))
}
