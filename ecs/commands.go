package ecs

import (
	"errors"
	"reflect"
)

type spawn struct {
	components []any
	then       func(EntityId)
}

type componentChange struct {
	entity    EntityId
	component any          // set for adds
	compType  reflect.Type // set for removes
}

// Commands buffers structural changes requested while systems iterate.
// The scheduler applies them after the last system of the frame.
type Commands struct {
	deletes []EntityId
	removes []componentChange
	adds    []componentChange
	spawns  []spawn
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer runs fn after every other buffered command
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawn{components: components})
}

// SpawnThen spawns and passes the new id to then
func (c *Commands) SpawnThen(then func(EntityId), components ...any) {
	c.spawns = append(c.spawns, spawn{components: components, then: then})
}

// Delete destroys entity; stale ids are ignored
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, componentChange{entity: entity, component: component})
}

func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, componentChange{entity: entity, compType: compType})
}

// RemoveLater buffers removal of the entity's T
func RemoveLater[T any](c *Commands, entity EntityId) {
	c.RemoveComponent(entity, reflect.TypeFor[T]())
}

// Len counts buffered commands
func (c *Commands) Len() int {
	return len(c.deletes) + len(c.removes) + len(c.adds) + len(c.spawns) + len(c.defers)
}

// Flush applies deletes, removes, adds, spawns and then defers, and empties
// the buffer. Changes to entities deleted in the same flush are dropped.
// Failed adds and removes are joined into the returned error.
func (c *Commands) Flush(storage *Storage) error {
	var errs []error
	deleted := make(map[EntityId]struct{}, len(c.deletes))
	for _, id := range c.deletes {
		storage.Delete(id)
		deleted[id] = struct{}{}
	}

	for _, r := range c.removes {
		if _, gone := deleted[r.entity]; !gone {
			errs = append(errs, storage.RemoveComponent(r.entity, r.compType))
		}
	}
	for _, a := range c.adds {
		if _, gone := deleted[a.entity]; !gone {
			errs = append(errs, storage.AddComponent(a.entity, a.component))
		}
	}
	for _, sp := range c.spawns {
		id := storage.Spawn(sp.components...)
		if sp.then != nil {
			sp.then(id)
		}
	}
	for _, fn := range c.defers {
		fn()
	}

	clear(c.spawns)
	clear(c.defers)
	clear(c.adds)
	c.deletes, c.removes, c.adds = c.deletes[:0], c.removes[:0], c.adds[:0]
	c.spawns, c.defers = c.spawns[:0], c.defers[:0]
	return errors.Join(errs...)
}
