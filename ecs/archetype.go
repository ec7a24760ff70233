package ecs

import (
	"iter"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// Archetype groups every entity that has exactly the same set of component types.
// Component data is stored column-wise: one dense column per type, all columns
// and the entity list kept in lockstep so the same row names the same entity.
type Archetype struct {
	id       uint32
	order    int
	types    []reflect.Type
	ids      []ComponentId
	storages []iComponentStorage
	entities []EntityId

	// transition caches: component id -> archetype reached by adding/removing it
	addEdges    *intmap.Map[ComponentId, *Archetype]
	removeEdges *intmap.Map[ComponentId, *Archetype]
}

// newArchetype creates an archetype for the given component infos, which must
// already be sorted by component id.
func newArchetype(id uint32, order int, infos []*componentInfo) *Archetype {
	a := &Archetype{
		id:          id,
		order:       order,
		types:       make([]reflect.Type, len(infos)),
		ids:         make([]ComponentId, len(infos)),
		storages:    make([]iComponentStorage, len(infos)),
		addEdges:    intmap.New[ComponentId, *Archetype](8),
		removeEdges: intmap.New[ComponentId, *Archetype](8),
	}

	for idx, info := range infos {
		a.types[idx] = info.typ
		a.ids[idx] = info.id
		a.storages[idx] = info.factory()
	}

	return a
}

// ID returns the archetype's signature hash
func (a *Archetype) ID() uint32 {
	return a.id
}

// Order returns the position at which the archetype was registered in its Storage
func (a *Archetype) Order() int {
	return a.order
}

// Types returns the component types for this archetype, ordered by component id
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of entities stored in this archetype
func (a *Archetype) Len() int {
	return len(a.entities)
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

func (a *Archetype) hasId(id ComponentId) bool {
	_, found := slices.BinarySearch(a.ids, id)
	return found
}

// columnIndex returns the storage index for compType, or -1
func (a *Archetype) columnIndex(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// GetComponent returns a pointer to the component of the given type at row
func (a *Archetype) GetComponent(row int, compType reflect.Type) any {
	idx := a.columnIndex(compType)
	if idx == -1 {
		return nil
	}
	return a.storages[idx].Get(row)
}

// Entity returns the entity stored at row
func (a *Archetype) Entity(row int) EntityId {
	return a.entities[row]
}

// Iter returns an iterator over the entities of this archetype in row order
func (a *Archetype) Iter() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for row := 0; row < len(a.entities); row++ {
			if !yield(a.entities[row]) {
				return
			}
		}
	}
}

// swapRemove drops row from every column. If another entity was moved into
// the freed row it is returned so the caller can patch its location.
func (a *Archetype) swapRemove(row int) (EntityId, bool) {
	for _, storage := range a.storages {
		storage.SwapRemove(row)
	}

	last := len(a.entities) - 1
	moved := a.entities[last]
	a.entities[row] = moved
	a.entities = a.entities[:last]

	if row == last {
		return 0, false
	}
	return moved, true
}

// matches reports whether every type in required belongs to this archetype
func (a *Archetype) matches(required []reflect.Type) bool {
	for _, typ := range required {
		if !a.HasComponent(typ) {
			return false
		}
	}
	return true
}
