package script

import (
	"go.uber.org/zap"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
)

// Register adds NativeScript to registry and installs the hook that destroys
// a script instance when its component leaves an entity.
func Register(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[NativeScript](registry)
	ecs.OnRemove(registry, func(s *ecs.Storage, id ecs.EntityId, ns *NativeScript) {
		name, state := ns.Name(), ns.state
		ns.destroy()
		if state == Created {
			s.Logger().Debug("script destroyed", zap.String("script", name), zap.Stringer("entity", id))
		}
	})
}

type scripted struct {
	Entity ecs.EntityId
	*NativeScript
}

// snapshot collects script entities so hooks may mutate the storage while
// the caller walks the result
func snapshot(q *ecs.Query[scripted], ids []ecs.EntityId) []ecs.EntityId {
	ids = ids[:0]
	for id := range q.Iter() {
		ids = append(ids, id)
	}
	return ids
}

// Update runs OnUpdate for one entity, creating its instance first if needed
func Update(storage *ecs.Storage, id ecs.EntityId, dt float64) error {
	ns, err := ecs.Get[NativeScript](storage, id)
	if err != nil {
		return err
	}
	return ns.update(Entity{ID: id, Storage: storage}, dt)
}

// System drives OnUpdate on every bound script once per frame
type System struct {
	Scripts ecs.Query[scripted]

	ids []ecs.EntityId
}

func (s *System) Execute(frame *ecs.UpdateFrame) {
	s.ids = snapshot(&s.Scripts, s.ids)
	for _, id := range s.ids {
		// an earlier script may have destroyed this entity or its script
		ns := ecs.ReadComponent[NativeScript](frame.Storage, id)
		if ns == nil || ns.state == Unbound || ns.state == Destroyed {
			continue
		}
		if err := ns.update(Entity{ID: id, Storage: frame.Storage}, frame.DeltaTime); err != nil {
			frame.Storage.Logger().Warn("script update failed", zap.Stringer("entity", id), zap.Error(err))
		}
	}
}

// Dispatcher delivers events to scripts, reusing its query between calls
type Dispatcher struct {
	query   *ecs.Query[scripted]
	storage *ecs.Storage
	ids     []ecs.EntityId
}

func NewDispatcher(storage *ecs.Storage) *Dispatcher {
	return &Dispatcher{query: ecs.NewQuery[scripted](storage), storage: storage}
}

// Dispatch calls OnEvent on each bound script in storage order until one
// handles ev. It reports whether ev was handled.
func (d *Dispatcher) Dispatch(ev event.Event) bool {
	if ev.IsHandled() {
		return true
	}
	d.ids = snapshot(d.query, d.ids)
	for _, id := range d.ids {
		ns := ecs.ReadComponent[NativeScript](d.storage, id)
		if ns == nil || ns.state == Unbound || ns.state == Destroyed {
			continue
		}
		handled, err := ns.handle(Entity{ID: id, Storage: d.storage}, ev)
		if err != nil {
			d.storage.Logger().Warn("script event failed", zap.Stringer("entity", id), zap.Error(err))
			continue
		}
		if handled {
			ev.SetHandled()
		}
		if ev.IsHandled() {
			return true
		}
	}
	return false
}

// DispatchEvent is a one-off Dispatch that builds its query on the spot
func DispatchEvent(storage *ecs.Storage, ev event.Event) bool {
	return NewDispatcher(storage).Dispatch(ev)
}
