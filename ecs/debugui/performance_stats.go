package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/render"
)

// PerformanceStats plots frame time and lists storage, renderer and
// per-system counters
type PerformanceStats struct {
	history *FrameHistory
}

func NewPerformanceStats(historyFrames int) *PerformanceStats {
	return &PerformanceStats{history: NewFrameHistory(historyFrames)}
}

func (ps *PerformanceStats) History() *FrameHistory {
	return ps.history
}

func (ps *PerformanceStats) Render(storage *ecs.Storage, dt float64, renderer render.Stats, systems []SystemRow) {
	ps.history.Push(dt)

	defer imgui.End()
	if !imgui.BeginV("Performance", nil, imgui.WindowFlagsNone) {
		return
	}

	samples := ps.history.Samples()
	imgui.Text(fmt.Sprintf("%.2f ms  %.0f fps", ps.history.Average(), ps.history.FPS()))
	imgui.PlotLinesFloatPtr("##frametime", &samples[0], int32(len(samples)))

	stats := storage.CollectStats()
	imgui.Text(fmt.Sprintf("%d entities  %d archetypes  %d singletons",
		stats.TotalEntityCount, stats.ArchetypeCount, stats.SingletonCount))

	if imgui.TreeNodeStr("Renderer") {
		imgui.Text(fmt.Sprintf("draw calls %d", renderer.DrawCalls))
		imgui.Text(fmt.Sprintf("quads %d  triangles %d  circles %d  glyphs %d",
			renderer.Quads, renderer.Triangles, renderer.Circles, renderer.Glyphs))
		imgui.Text(fmt.Sprintf("vertices %d  indices %d", renderer.Vertices, renderer.Indices))
		imgui.TreePop()
	}

	if len(systems) > 0 && imgui.TreeNodeStr("Systems") {
		flags := imgui.TableFlagsRowBg | imgui.TableFlagsBorders | imgui.TableFlagsSizingFixedFit
		if imgui.BeginTableV("##systems", 5, flags, imgui.NewVec2(0, 0), 0) {
			for _, h := range []string{"system", "runs", "last ms", "mean ms", "worst ms"} {
				imgui.TableSetupColumn(h)
			}
			imgui.TableHeadersRow()
			for _, row := range systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.ProgressBarV(float32(row.ShareOfTick), imgui.NewVec2(160, 0), row.Name)
				for _, cell := range []string{
					fmt.Sprint(row.Runs),
					fmt.Sprintf("%.3f", row.Last),
					fmt.Sprintf("%.3f", row.Mean),
					fmt.Sprintf("%.3f", row.Worst),
				} {
					imgui.TableNextColumn()
					imgui.Text(cell)
				}
			}
			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if len(stats.SingletonTypes) > 0 && imgui.TreeNodeStr("Singletons") {
		for _, name := range stats.SingletonTypes {
			imgui.BulletText(name)
		}
		imgui.TreePop()
	}
}

// FrameTimer measures wall time between calls
type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

// Tick returns seconds since the previous Tick
func (ft *FrameTimer) Tick() float64 {
	now := time.Now()
	dt := now.Sub(ft.last).Seconds()
	ft.last = now
	return dt
}
