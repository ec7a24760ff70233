package lua

import (
	"errors"
	"fmt"

	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/scene"
	"github.com/plus3/quadforge/script"
)

// Script is the native side of one Lua instance
type Script struct {
	script.Base

	engine *Engine
	mod    *module
	self   *glua.LTable
}

// Path is the resolved script file
func (s *Script) Path() string {
	return s.mod.path
}

// Field reads self[name] with module fallback, or nil before creation
func (s *Script) Field(name string) glua.LValue {
	if s.self == nil || s.engine.closed {
		return glua.LNil
	}
	return s.engine.vm.GetField(s.self, name)
}

func (s *Script) OnCreate() {
	if s.engine.closed {
		return
	}
	s.self = s.engine.instance(s.mod)
	s.self.RawSetString("entity", newEntity(s.engine.vm, s.Entity, s.mod.path))
	s.engine.call(s.mod, s.self, "on_create")
}

func (s *Script) OnUpdate(dt float64) {
	s.engine.call(s.mod, s.self, "on_update", glua.LNumber(dt))
}

func (s *Script) OnEvent(ev event.Event) bool {
	if s.self == nil || s.engine.closed {
		return false
	}
	ret := s.engine.call(s.mod, s.self, "on_event", eventTable(s.engine.vm, ev))
	return glua.LVAsBool(ret)
}

func (s *Script) OnDestroy() {
	s.engine.call(s.mod, s.self, "on_destroy")
	s.self = nil
}

// Bind loads path and returns a NativeScript whose instances run it
func Bind(e *Engine, path string) (script.NativeScript, error) {
	mod, err := e.module(path)
	if err != nil {
		return script.NativeScript{}, err
	}
	return script.NewFunc(func() *Script {
		return &Script{engine: e, mod: mod}
	}), nil
}

type scriptRef struct {
	Entity ecs.EntityId
	*scene.ScriptRef
	Native *script.NativeScript `ecs:"optional"`
}

// BindRefs attaches a Lua NativeScript to every entity whose ScriptRef is
// not yet backed by a bound script. It returns how many were bound; entities
// whose script fails to load are skipped and reported in the error.
func BindRefs(e *Engine, storage *ecs.Storage) (int, error) {
	type pending struct {
		id       ecs.EntityId
		path     string
		existing bool
	}
	var todo []pending
	for id, ref := range ecs.NewQuery[scriptRef](storage).Iter() {
		if ref.Native != nil && ref.Native.State() != script.Unbound {
			continue
		}
		todo = append(todo, pending{id: id, path: ref.Path, existing: ref.Native != nil})
	}

	var errs []error
	bound := 0
	for _, p := range todo {
		ns, err := Bind(e, p.path)
		switch {
		case err != nil:
		case p.existing:
			err = storage.SetComponent(p.id, ns)
		default:
			err = storage.AddComponent(p.id, ns)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("entity %s: %w", p.id, err))
			continue
		}
		bound++
	}
	e.log.Debug("script refs bound", zap.Int("bound", bound), zap.Int("failed", len(errs)))
	return bound, errors.Join(errs...)
}
