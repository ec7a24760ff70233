package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

// viewField is one pointer field of a view struct
type viewField struct {
	typ      reflect.Type
	offset   uintptr
	optional bool
}

// binding maps each view field to its column in one archetype, -1 when an
// optional component is absent
type binding struct {
	archetype *Archetype
	columns   []int
}

// View reads entities through a struct of component pointers.
//
// Every field of T is a pointer to a component type, or an EntityId that
// receives the visited entity. Embedded fields are required; named fields
// may carry the tag `ecs:"optional"` and are nil when the entity lacks
// the component.
type View[T any] struct {
	storage  *Storage
	fields   []viewField
	required []reflect.Type

	idField  bool
	idOffset uintptr
}

// NewView builds a view over storage. It panics when T is not a struct of
// component pointers.
func NewView[T any](storage *Storage) *View[T] {
	st := reflect.TypeFor[T]()
	if st.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ecs: view type %s is not a struct", st))
	}

	v := &View[T]{storage: storage}
	for i := range st.NumField() {
		f := st.Field(i)
		switch {
		case f.Type == entityIdType:
			v.idField = true
			v.idOffset = f.Offset
			continue
		case f.Type.Kind() != reflect.Pointer:
			panic(fmt.Sprintf("ecs: view field %s.%s must be a pointer or EntityId", st, f.Name))
		}

		optional := false
		if tag, ok := f.Tag.Lookup("ecs"); ok && !f.Anonymous {
			if tag != "optional" {
				panic(fmt.Sprintf("ecs: invalid tag %q on %s.%s", tag, st, f.Name))
			}
			optional = true
		}
		v.fields = append(v.fields, viewField{typ: f.Type.Elem(), offset: f.Offset, optional: optional})
		if !optional {
			v.required = append(v.required, f.Type.Elem())
		}
	}
	return v
}

// bind returns the column layout for archetype, or false when a required
// component is missing
func (v *View[T]) bind(archetype *Archetype) (binding, bool) {
	if !archetype.matches(v.required) {
		return binding{}, false
	}
	b := binding{archetype: archetype, columns: make([]int, len(v.fields))}
	for i, f := range v.fields {
		b.columns[i] = archetype.columnIndex(f.typ)
	}
	return b, true
}

// fill points the fields of out at row
func (v *View[T]) fill(b binding, row int, out *T) {
	base := unsafe.Pointer(out)
	if v.idField {
		*(*EntityId)(unsafe.Add(base, v.idOffset)) = b.archetype.entities[row]
	}
	for i, col := range b.columns {
		slot := (*unsafe.Pointer)(unsafe.Add(base, v.fields[i].offset))
		if col < 0 {
			*slot = nil
		} else {
			*slot = b.archetype.storages[col].Pointer(row)
		}
	}
}

// each yields every row of b. The row count is re-read each step so
// in-place writes are safe; structural changes during iteration may skip
// or repeat entities.
func (v *View[T]) each(b binding, yield func(EntityId, T) bool) bool {
	var out T
	for row := 0; row < b.archetype.Len(); row++ {
		v.fill(b, row, &out)
		if !yield(b.archetype.entities[row], out) {
			return false
		}
	}
	return true
}

// Fill populates out for id and reports whether the entity has every
// required component
func (v *View[T]) Fill(id EntityId, out *T) bool {
	archetype := v.storage.ArchetypeOf(id)
	if archetype == nil {
		return false
	}
	b, ok := v.bind(archetype)
	if !ok {
		return false
	}
	v.fill(b, v.storage.locations[id.Index()].row, out)
	return true
}

// Get returns the view of id, or nil when it does not match
func (v *View[T]) Get(id EntityId) *T {
	out := new(T)
	if !v.Fill(id, out) {
		return nil
	}
	return out
}

// Iter visits matching entities, archetypes in creation order and rows in
// storage order
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, archetype := range v.storage.archetypes {
			if b, ok := v.bind(archetype); ok && !v.each(b, yield) {
				return
			}
		}
	}
}

func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Count returns the number of matching entities
func (v *View[T]) Count() int {
	n := 0
	for _, archetype := range v.storage.archetypes {
		if archetype.matches(v.required) {
			n += archetype.Len()
		}
	}
	return n
}

// Spawn creates an entity from the non-nil fields of data. It panics when
// a required field is nil.
func (v *View[T]) Spawn(data T) EntityId {
	base := unsafe.Pointer(&data)
	components := make([]any, 0, len(v.fields))
	for _, f := range v.fields {
		ptr := *(*unsafe.Pointer)(unsafe.Add(base, f.offset))
		if ptr == nil {
			if !f.optional {
				panic(fmt.Sprintf("ecs: required component %s is nil", f.typ))
			}
			continue
		}
		components = append(components, reflect.NewAt(f.typ, ptr).Elem().Interface())
	}
	return v.storage.Spawn(components...)
}
