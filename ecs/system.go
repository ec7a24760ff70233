package ecs

// System is run once per Scheduler frame. Exported Query and Singleton
// fields are bound to the storage on Register; other fields keep their
// state between frames.
type System interface {
	Execute(frame *UpdateFrame)
}

// SystemFunc adapts a function to System
type SystemFunc func(frame *UpdateFrame)

func (f SystemFunc) Execute(frame *UpdateFrame) { f(frame) }
