package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/quadforge/ecs"
)

// Inspector shows and edits the components of one entity. Numeric, bool,
// string and float vector fields are editable; other kinds are shown read-only.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (in *Inspector) Render(storage *ecs.Storage, id ecs.EntityId) {
	defer imgui.End()
	if !imgui.BeginV("Inspector", nil, imgui.WindowFlagsNone) {
		return
	}
	if id == 0 {
		imgui.Text("No entity selected")
		return
	}
	archetype := storage.ArchetypeOf(id)
	if archetype == nil {
		imgui.Text(fmt.Sprintf("Entity %s is gone", id))
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", id))
	imgui.Text(fmt.Sprintf("Archetype: 0x%X", archetype.ID()))
	imgui.Separator()

	for _, t := range storage.Signature(id) {
		component := storage.GetComponent(id, t)
		if component == nil || !imgui.TreeNodeStr(t.String()) {
			continue
		}
		value := reflect.ValueOf(component).Elem()
		if value.Kind() == reflect.Struct {
			in.fields(storage, id, t, value, nil)
		} else {
			imgui.Text(fmt.Sprintf("%v", value.Interface()))
		}
		imgui.TreePop()
	}
}

func (in *Inspector) fields(storage *ecs.Storage, id ecs.EntityId, compType reflect.Type, v reflect.Value, path []int) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		index := append(append([]int(nil), path...), i)
		in.field(storage, id, compType, f.Name, v.Field(i), index)
	}
}

func (in *Inspector) field(storage *ecs.Storage, id ecs.EntityId, compType reflect.Type, name string, v reflect.Value, index []int) {
	label := fmt.Sprintf("##%s%v", name, index)
	set := func(value any) { SetField(storage, id, compType, index, value) }

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := int32(toInt(v))
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &n) {
			set(n)
		}
	case reflect.Float32, reflect.Float64:
		f := float32(v.Float())
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &f) {
			set(f)
		}
	case reflect.Bool:
		b := v.Bool()
		if imgui.Checkbox(name, &b) {
			set(b)
		}
	case reflect.String:
		s := v.String()
		imgui.Text(name + ":")
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &s, imgui.InputTextFlagsNone, nil) {
			set(s)
		}
	case reflect.Array:
		if v.Type().Elem().Kind() != reflect.Float32 {
			imgui.Text(fmt.Sprintf("%s: %v", name, v.Interface()))
			return
		}
		if !imgui.TreeNodeStr(name) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			f := float32(v.Index(i).Float())
			imgui.SetNextItemWidth(150)
			if imgui.InputFloat(fmt.Sprintf("[%d]%s", i, label), &f) {
				updated := reflect.New(v.Type()).Elem()
				updated.Set(v)
				updated.Index(i).SetFloat(float64(f))
				set(updated.Interface())
			}
		}
		imgui.TreePop()
	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			in.fields(storage, id, compType, v, index)
			imgui.TreePop()
		}
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			imgui.Text(name + ": nil")
			return
		}
		imgui.Text(fmt.Sprintf("%s: %T", name, v.Interface()))
	case reflect.Slice, reflect.Map:
		imgui.Text(fmt.Sprintf("%s: %d items", name, v.Len()))
	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, v.Interface()))
	}
}

func toInt(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}
