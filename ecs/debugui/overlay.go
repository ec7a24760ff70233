package debugui

import (
	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/render"
)

// Overlay groups the debug windows and links their selections
type Overlay struct {
	Browser     *EntityBrowser
	Inspector   *Inspector
	Archetypes  *ArchetypeViewer
	Queries     *QueryDebugger
	Performance *PerformanceStats

	// Scheduler, when set, adds per-system timings to the performance window
	Scheduler *ecs.Scheduler
	Visible   bool
}

func NewOverlay() *Overlay {
	return &Overlay{
		Browser:     NewEntityBrowser(50),
		Inspector:   NewInspector(),
		Archetypes:  NewArchetypeViewer(),
		Queries:     NewQueryDebugger(),
		Performance: NewPerformanceStats(120),
		Visible:     true,
	}
}

func (o *Overlay) Toggle() {
	o.Visible = !o.Visible
}

// Draw renders every window. Call between the backend's BeginFrame and EndFrame.
func (o *Overlay) Draw(storage *ecs.Storage, dt float64, stats render.Stats) {
	if !o.Visible {
		o.Performance.History().Push(dt)
		return
	}
	var systems []SystemRow
	if o.Scheduler != nil {
		systems = SystemRows(o.Scheduler.GetStats())
	}
	o.Performance.Render(storage, dt, stats, systems)
	if o.Archetypes.Render(storage) != nil {
		o.Browser.FilterArchetype(o.Archetypes.Selected())
	}
	o.Browser.Render(storage)
	o.Inspector.Render(storage, o.Browser.Selected())
	o.Queries.Render(storage)
}
