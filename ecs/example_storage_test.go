package ecs_test

import (
	"errors"
	"fmt"

	"github.com/plus3/quadforge/ecs"
)

// Entities sharing a component set share an archetype; pointers returned by
// the storage write straight into its columns.
func ExampleStorage() {
	storage := ecs.NewStorage(newTestRegistry())

	ship := storage.Spawn(Position{X: 3}, Health{Current: 5, Max: 5})
	pos := ecs.ReadComponent[Position](storage, ship)
	pos.Y = 7

	fmt.Println(ship, *ecs.ReadComponent[Position](storage, ship))
	fmt.Println("destroyed:", storage.Destroy(ship) == nil, "alive:", storage.IsAlive(ship))

	// Output:
	// 0:1 {3 7}
	// destroyed: true alive: false
}

// Adding or removing a component moves the entity to another archetype
// without changing its id.
func ExampleStorage_reshape() {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{})
	before := storage.ArchetypeOf(id).ID()

	_ = ecs.Add(storage, id, Velocity{DX: 2})
	vel, _ := ecs.Get[Velocity](storage, id)
	fmt.Println("velocity:", vel.DX, "moved:", storage.ArchetypeOf(id).ID() != before)

	_ = ecs.Remove[Velocity](storage, id)
	fmt.Println("velocity:", ecs.Has[Velocity](storage, id), "back:", storage.ArchetypeOf(id).ID() == before)

	// Output:
	// velocity: 2 moved: true
	// velocity: false back: true
}

// A destroyed id never resolves to the entity that reuses its slot.
func ExampleStorage_staleHandle() {
	storage := ecs.NewStorage(newTestRegistry())

	old := storage.Spawn(Name{Value: "old"})
	_ = storage.Destroy(old)
	fresh := storage.Spawn(Name{Value: "fresh"})

	fmt.Println(old, fresh, storage.IsAlive(old))
	err := ecs.Add(storage, old, Velocity{})
	fmt.Println(errors.Is(err, ecs.ErrInvalidEntity))

	// Output:
	// 0:1 0:2 false
	// true
}
