package ecs

// UpdateFrame is what a system sees during one Scheduler frame. Commands
// are flushed after the last system has run.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	Storage   *Storage
}
