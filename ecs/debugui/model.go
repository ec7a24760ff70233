package debugui

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/plus3/quadforge/ecs"
)

// EntityRow is one line of the entity browser
type EntityRow struct {
	ID          ecs.EntityId
	ArchetypeID uint32
	Components  []string
}

// ArchetypeRow is one line of the archetype viewer
type ArchetypeRow struct {
	ID         uint32
	Components []string
	Entities   int
}

// Entity browser columns
const (
	ColumnID = iota
	ColumnArchetype
	ColumnComponents
	ColumnCount
)

// Archetype viewer columns
const (
	ArchetypeColumnID = iota
	ArchetypeColumnSize
	ArchetypeColumnComponents
	ArchetypeColumnEntities
)

func typeNames(types []reflect.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

// EntityRows lists every live entity with its archetype
func EntityRows(storage *ecs.Storage) []EntityRow {
	var rows []EntityRow
	for _, archetype := range storage.GetArchetypes() {
		names := typeNames(archetype.Types())
		for id := range archetype.Iter() {
			rows = append(rows, EntityRow{ID: id, ArchetypeID: archetype.ID(), Components: names})
		}
	}
	return rows
}

// FilterEntities keeps rows whose id, archetype or component names contain
// text, case-insensitively. archetype narrows to one archetype when non-nil.
func FilterEntities(rows []EntityRow, text string, archetype *uint32) []EntityRow {
	if text == "" && archetype == nil {
		return rows
	}
	needle := strings.ToLower(text)
	out := make([]EntityRow, 0, len(rows))
	for _, row := range rows {
		if archetype != nil && row.ArchetypeID != *archetype {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(row.ID.String()), needle) &&
			!strings.Contains(fmt.Sprintf("0x%x", row.ArchetypeID), needle) &&
			!strings.Contains(strings.ToLower(strings.Join(row.Components, " ")), needle) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// SortEntities orders rows in place by column
func SortEntities(rows []EntityRow, column int, ascending bool) {
	slices.SortStableFunc(rows, func(a, b EntityRow) int {
		var c int
		switch column {
		case ColumnArchetype:
			c = cmp.Compare(a.ArchetypeID, b.ArchetypeID)
		case ColumnComponents:
			c = cmp.Compare(strings.Join(a.Components, ","), strings.Join(b.Components, ","))
		case ColumnCount:
			c = cmp.Compare(len(a.Components), len(b.Components))
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if !ascending {
			c = -c
		}
		return c
	})
}

// ArchetypeRows lists archetypes that hold at least one entity
func ArchetypeRows(storage *ecs.Storage) []ArchetypeRow {
	var rows []ArchetypeRow
	for _, archetype := range storage.GetArchetypes() {
		if archetype.Len() == 0 {
			continue
		}
		rows = append(rows, ArchetypeRow{
			ID:         archetype.ID(),
			Components: typeNames(archetype.Types()),
			Entities:   archetype.Len(),
		})
	}
	return rows
}

// SortArchetypes orders rows in place by an archetype viewer column
func SortArchetypes(rows []ArchetypeRow, column int, ascending bool) {
	slices.SortStableFunc(rows, func(a, b ArchetypeRow) int {
		var c int
		switch column {
		case ArchetypeColumnID:
			c = cmp.Compare(a.ID, b.ID)
		case ArchetypeColumnSize:
			c = cmp.Compare(len(a.Components), len(b.Components))
		case ArchetypeColumnComponents:
			c = cmp.Compare(strings.Join(a.Components, ","), strings.Join(b.Components, ","))
		default:
			c = cmp.Compare(a.Entities, b.Entities)
		}
		if !ascending {
			c = -c
		}
		return c
	})
}

// ComponentTypes returns every component type present in storage by name
func ComponentTypes(storage *ecs.Storage) map[string]reflect.Type {
	types := make(map[string]reflect.Type)
	for _, archetype := range storage.GetArchetypes() {
		for _, t := range archetype.Types() {
			types[t.String()] = t
		}
	}
	return types
}

// MatchArchetypes returns the archetypes containing every type in required
// and the number of entities they hold
func MatchArchetypes(storage *ecs.Storage, required []reflect.Type) ([]*ecs.Archetype, int) {
	var matched []*ecs.Archetype
	entities := 0
	for _, archetype := range storage.GetArchetypes() {
		if !slices.ContainsFunc(required, func(t reflect.Type) bool { return !archetype.HasComponent(t) }) {
			matched = append(matched, archetype)
			entities += archetype.Len()
		}
	}
	return matched, entities
}

// SystemRow is one line of the scheduler timing table, durations in ms
type SystemRow struct {
	Name        string
	Runs        int64
	Last, Mean  float64
	Worst       float64
	ShareOfTick float64
}

// SystemRows orders systems by mean cost, slowest first. ShareOfTick is
// each system's fraction of the summed means.
func SystemRows(stats *ecs.SchedulerStats) []SystemRow {
	if stats == nil {
		return nil
	}
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

	rows := make([]SystemRow, len(stats.Systems))
	var total float64
	for i, st := range stats.Systems {
		rows[i] = SystemRow{
			Name:  st.Name,
			Runs:  st.ExecutionCount,
			Last:  ms(st.LastDuration),
			Mean:  ms(st.AvgDuration),
			Worst: ms(st.MaxDuration),
		}
		total += rows[i].Mean
	}
	for i := range rows {
		if total > 0 {
			rows[i].ShareOfTick = rows[i].Mean / total
		}
	}
	slices.SortStableFunc(rows, func(a, b SystemRow) int { return cmp.Compare(b.Mean, a.Mean) })
	return rows
}

// FrameHistory is a ring of frame times in milliseconds
type FrameHistory struct {
	samples []float32
	next    int
	filled  int
}

func NewFrameHistory(frames int) *FrameHistory {
	return &FrameHistory{samples: make([]float32, max(frames, 1))}
}

func (h *FrameHistory) Push(dt float64) {
	h.samples[h.next] = float32(dt * 1000)
	h.next = (h.next + 1) % len(h.samples)
	h.filled = min(h.filled+1, len(h.samples))
}

// Average returns the mean frame time over recorded samples
func (h *FrameHistory) Average() float32 {
	if h.filled == 0 {
		return 0
	}
	var sum float32
	for _, s := range h.samples[:h.filled] {
		sum += s
	}
	return sum / float32(h.filled)
}

// FPS derives frames per second from the average frame time
func (h *FrameHistory) FPS() float32 {
	avg := h.Average()
	if avg == 0 {
		return 0
	}
	return 1000 / avg
}

func (h *FrameHistory) Samples() []float32 {
	return h.samples
}

// SetField assigns value to field index of the entity's component of
// compType, converting between numeric kinds. It reports whether the
// component existed and the field accepted the value.
func SetField(storage *ecs.Storage, id ecs.EntityId, compType reflect.Type, index []int, value any) bool {
	component := storage.GetComponent(id, compType)
	if component == nil {
		return false
	}
	field := reflect.ValueOf(component).Elem().FieldByIndex(index)
	if !field.CanSet() {
		return false
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(field.Type()):
		field.Set(v)
	case v.CanConvert(field.Type()) && numeric(v.Kind()) && numeric(field.Kind()):
		if field.Kind() >= reflect.Uint && field.Kind() <= reflect.Uint64 && v.Kind() <= reflect.Int64 && v.Int() < 0 {
			return false
		}
		field.Set(v.Convert(field.Type()))
	default:
		return false
	}
	return true
}

func numeric(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64
}
