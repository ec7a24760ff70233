package ecs

import "errors"

var (
	// ErrInvalidEntity is returned for stale or unknown entity handles.
	ErrInvalidEntity = errors.New("ecs: invalid entity")

	// ErrDuplicateComponent is returned when adding a component type the entity already has.
	ErrDuplicateComponent = errors.New("ecs: duplicate component")

	// ErrMissingComponent is returned when reading or removing a component the entity lacks.
	ErrMissingComponent = errors.New("ecs: missing component")

	// ErrUnregisteredComponent is returned for component types absent from the ComponentRegistry.
	ErrUnregisteredComponent = errors.New("ecs: component type not registered")

	// ErrSchedulerBusy is returned when systems are registered while a frame is running.
	ErrSchedulerBusy = errors.New("ecs: scheduler is executing a frame")
)
