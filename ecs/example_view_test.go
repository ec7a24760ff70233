package ecs_test

import (
	"fmt"

	"github.com/plus3/quadforge/ecs"
)

// Named fields tagged optional are nil when the entity lacks the component;
// an EntityId field receives the visited entity.
func ExampleView() {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Name{Value: "crate"})
	storage.Spawn(Name{Value: "guard"}, Health{Current: 3, Max: 4})

	view := ecs.NewView[struct {
		ID ecs.EntityId
		*Name
		Health *Health `ecs:"optional"`
	}](storage)

	for e := range view.Values() {
		if e.Health == nil {
			fmt.Println(e.ID, e.Name.Value, "indestructible")
			continue
		}
		fmt.Println(e.ID, e.Name.Value, e.Health.Current)
	}
	// Output:
	// 0:1 crate indestructible
	// 1:1 guard 3
}

// A Query remembers matching archetypes; ones created later are picked up
// on the next iteration.
func ExampleQuery() {
	storage := ecs.NewStorage(newTestRegistry())
	moving := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)

	storage.Spawn(Position{}, Velocity{DX: 1})
	fmt.Println(moving.Count(), len(moving.Archetypes()))

	storage.Spawn(Position{}, Velocity{DX: 1}, Tag("boss"))
	fmt.Println(moving.Count(), len(moving.Archetypes()))
	// Output:
	// 1 1
	// 2 2
}
