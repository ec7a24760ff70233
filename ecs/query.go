package ecs

import "iter"

// Query is a View that remembers its matching archetypes and their column
// layout. Archetypes are never removed, so only those created since the
// last call need checking.
type Query[T any] struct {
	view     *View[T]
	storage  *Storage
	bindings []binding
	seen     int
}

func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init binds the query to storage, dropping any cached layout. The
// Scheduler calls it on Register.
func (q *Query[T]) Init(storage *Storage) {
	q.view = NewView[T](storage)
	q.storage = storage
	q.bindings = nil
	q.seen = 0
}

func (q *Query[T]) refresh() {
	for _, archetype := range q.storage.archetypes[q.seen:] {
		if b, ok := q.view.bind(archetype); ok {
			q.bindings = append(q.bindings, b)
		}
	}
	q.seen = len(q.storage.archetypes)
}

// Archetypes returns the archetypes currently matching the query
func (q *Query[T]) Archetypes() []*Archetype {
	q.refresh()
	archetypes := make([]*Archetype, len(q.bindings))
	for i, b := range q.bindings {
		archetypes[i] = b.archetype
	}
	return archetypes
}

// Iter visits matching entities. Archetypes created after the sequence was
// obtained are included each time it is ranged.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		q.refresh()
		for _, b := range q.bindings {
			if !q.view.each(b, yield) {
				return
			}
		}
	}
}

func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range q.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Get returns the view of one entity, or nil
func (q *Query[T]) Get(id EntityId) *T {
	return q.view.Get(id)
}

func (q *Query[T]) Count() int {
	q.refresh()
	n := 0
	for _, b := range q.bindings {
		n += b.archetype.Len()
	}
	return n
}
