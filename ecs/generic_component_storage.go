package ecs

import (
	"reflect"
	"unsafe"
)

// ComponentId is the dense identifier a ComponentRegistry assigns to each component type.
type ComponentId uint16

type componentInfo struct {
	id       ComponentId
	typ      reflect.Type
	factory  func() iComponentStorage
	onRemove func(s *Storage, id EntityId, component any)
}

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own ComponentRegistry, allowing multiple
// independent ECS systems to coexist without interference.
type ComponentRegistry struct {
	byType map[reflect.Type]*componentInfo
	byId   []*componentInfo
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]*componentInfo),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
// Registering the same type twice is a no-op.
func RegisterComponent[T any](r *ComponentRegistry) ComponentId {
	t := reflect.TypeFor[T]()
	if info, ok := r.byType[t]; ok {
		return info.id
	}
	validateComponentType(t)

	info := &componentInfo{
		id:  ComponentId(len(r.byId)),
		typ: t,
		factory: func() iComponentStorage {
			return &genericComponentStorage[T]{}
		},
	}
	r.byType[t] = info
	r.byId = append(r.byId, info)
	return info.id
}

// OnRemove installs a hook that runs whenever a component of type T leaves an
// entity, either through RemoveComponent or because the entity is destroyed.
// The hook sees the component value before its row is dropped.
func OnRemove[T any](r *ComponentRegistry, fn func(s *Storage, id EntityId, component *T)) {
	info := r.lookup(reflect.TypeFor[T]())
	if info == nil {
		RegisterComponent[T](r)
		info = r.lookup(reflect.TypeFor[T]())
	}
	info.onRemove = func(s *Storage, id EntityId, component any) {
		fn(s, id, component.(*T))
	}
}

// ComponentIdOf returns the id assigned to a registered type.
func (r *ComponentRegistry) ComponentIdOf(t reflect.Type) (ComponentId, bool) {
	info := r.lookup(t)
	if info == nil {
		return 0, false
	}
	return info.id, true
}

// Types returns every registered component type in registration order.
func (r *ComponentRegistry) Types() []reflect.Type {
	types := make([]reflect.Type, len(r.byId))
	for i, info := range r.byId {
		types[i] = info.typ
	}
	return types
}

func (r *ComponentRegistry) lookup(t reflect.Type) *componentInfo {
	return r.byType[t]
}

func validateComponentType(t reflect.Type) {
	// Components can be structs or primitives (int, string, etc.)
	// But not pointers, maps, channels, or functions (those aren't value types)
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func:
		panic("components cannot be pointers, maps, channels, or functions: " + t.String())
	}
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is a dense column of components of type T.
// Components live in fixed-size blocks so appending never moves existing rows.
type genericComponentStorage[T any] struct {
	blocks []*[genericBlockSize]T
	length int
}

func (cs *genericComponentStorage[T]) at(row int) *T {
	return &cs.blocks[row/genericBlockSize][row%genericBlockSize]
}

func (cs *genericComponentStorage[T]) push(item T) int {
	row := cs.length
	if row/genericBlockSize >= len(cs.blocks) {
		cs.blocks = append(cs.blocks, new([genericBlockSize]T))
	}
	*cs.at(row) = item
	cs.length++
	return row
}

// Append adds a component to the end of the column and returns its row.
// Returns -1 if item is neither T nor *T.
func (cs *genericComponentStorage[T]) Append(item any) int {
	switch v := item.(type) {
	case T:
		return cs.push(v)
	case *T:
		return cs.push(*v)
	}
	return -1
}

// AppendFrom copies row from a column of the same type.
func (cs *genericComponentStorage[T]) AppendFrom(src iComponentStorage, row int) int {
	other := src.(*genericComponentStorage[T])
	return cs.push(*other.at(row))
}

// Set overwrites the component at row.
func (cs *genericComponentStorage[T]) Set(row int, item any) bool {
	if row < 0 || row >= cs.length {
		return false
	}
	switch v := item.(type) {
	case T:
		*cs.at(row) = v
	case *T:
		*cs.at(row) = *v
	default:
		return false
	}
	return true
}

// Get returns a pointer to the component at the given row.
func (cs *genericComponentStorage[T]) Get(row int) any {
	if row < 0 || row >= cs.length {
		return nil
	}
	return cs.at(row)
}

// Pointer returns the raw address of the component at row.
func (cs *genericComponentStorage[T]) Pointer(row int) unsafe.Pointer {
	return unsafe.Pointer(cs.at(row))
}

// SwapRemove moves the last row into row and shrinks the column by one.
func (cs *genericComponentStorage[T]) SwapRemove(row int) {
	last := cs.length - 1
	if row != last {
		*cs.at(row) = *cs.at(last)
	}
	var zero T
	*cs.at(last) = zero
	cs.length--

	// release trailing blocks once they are entirely unused
	if needed := (cs.length + genericBlockSize - 1) / genericBlockSize; len(cs.blocks) > needed+1 {
		for i := needed + 1; i < len(cs.blocks); i++ {
			cs.blocks[i] = nil
		}
		cs.blocks = cs.blocks[:needed+1]
	}
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.length
}

func (cs *genericComponentStorage[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}
