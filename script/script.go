// Package script attaches per-entity behaviour to the ECS.
//
// A NativeScript component holds a table of hook functions resolved once, at
// bind time, for one concrete script type. The instance is created lazily on
// the first update or event after binding and is owned by the component: it
// is destroyed when the component leaves the entity.
//
//	type Spinner struct {
//		script.Base
//		Speed float32
//	}
//
//	func (s *Spinner) OnUpdate(dt float64) { ... }
//
//	ecs.Add(storage, id, script.New[Spinner]())
package script

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
)

var (
	ErrNotBound     = errors.New("script not bound")
	ErrInstantiated = errors.New("script already instantiated")
)

// State is the lifecycle position of a NativeScript
type State uint8

const (
	Unbound State = iota
	Bound
	Created
	Destroyed
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "Unbound"
	case Bound:
		return "Bound"
	case Created:
		return "Created"
	case Destroyed:
		return "Destroyed"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Hook interfaces a script type may implement. Missing hooks are skipped.
type (
	Creator interface {
		OnCreate()
	}
	Updater interface {
		OnUpdate(dt float64)
	}
	EventHandler interface {
		OnEvent(ev event.Event) bool
	}
	Destroyer interface {
		OnDestroy()
	}
)

// Entity is a non-owning back-reference from a script to its entity
type Entity struct {
	ID      ecs.EntityId
	Storage *ecs.Storage
}

func (e Entity) Alive() bool {
	return e.Storage != nil && e.Storage.IsAlive(e.ID)
}

// Component returns the entity's component of type T, or nil
func Component[T any](e Entity) *T {
	if e.Storage == nil {
		return nil
	}
	return ecs.ReadComponent[T](e.Storage, e.ID)
}

// Base gives a script its entity and no-op hooks. Embed it by value.
type Base struct {
	Entity Entity
}

func (b *Base) OnCreate()                {}
func (b *Base) OnUpdate(float64)         {}
func (b *Base) OnEvent(event.Event) bool { return false }
func (b *Base) OnDestroy()               {}

func (b *Base) attach(e Entity) {
	b.Entity = e
}

type attacher interface {
	attach(e Entity)
}

// vtable is the per-type hook table. Nil entries are hooks the type lacks.
type vtable struct {
	name        string
	instantiate func() any
	onCreate    func(inst any)
	onUpdate    func(inst any, dt float64)
	onEvent     func(inst any, ev event.Event) bool
	onDestroy   func(inst any)
}

// Pointer constrains PT to *T so hooks declared on pointer receivers resolve
type Pointer[T any] interface {
	*T
}

func newVtable[T any, PT Pointer[T]](factory func() PT) *vtable {
	vt := &vtable{
		name:        reflect.TypeFor[T]().String(),
		instantiate: func() any { return factory() },
	}

	var probe any = PT(nil)
	if _, ok := probe.(Creator); ok {
		vt.onCreate = func(inst any) { inst.(Creator).OnCreate() }
	}
	if _, ok := probe.(Updater); ok {
		vt.onUpdate = func(inst any, dt float64) { inst.(Updater).OnUpdate(dt) }
	}
	if _, ok := probe.(EventHandler); ok {
		vt.onEvent = func(inst any, ev event.Event) bool { return inst.(EventHandler).OnEvent(ev) }
	}
	if _, ok := probe.(Destroyer); ok {
		vt.onDestroy = func(inst any) { inst.(Destroyer).OnDestroy() }
	}
	return vt
}

// NativeScript is the component that owns a script instance
type NativeScript struct {
	state    State
	vt       *vtable
	instance any
}

// New returns a NativeScript already bound to T
func New[T any, PT Pointer[T]]() NativeScript {
	var ns NativeScript
	_ = Bind[T, PT](&ns)
	return ns
}

// NewFunc returns a NativeScript bound to instances made by factory
func NewFunc[T any, PT Pointer[T]](factory func() PT) NativeScript {
	var ns NativeScript
	_ = BindFunc(&ns, factory)
	return ns
}

// Bind moves ns to Bound with hooks for T. Instances are zero T values.
func Bind[T any, PT Pointer[T]](ns *NativeScript) error {
	return BindFunc(ns, func() PT { return PT(new(T)) })
}

// BindFunc moves ns to Bound with hooks for T and a custom factory.
// Rebinding is allowed until the instance exists.
func BindFunc[T any, PT Pointer[T]](ns *NativeScript, factory func() PT) error {
	if ns.state == Created {
		return fmt.Errorf("%w: %s", ErrInstantiated, ns.vt.name)
	}
	ns.vt = newVtable[T, PT](factory)
	ns.state = Bound
	ns.instance = nil
	return nil
}

func (ns *NativeScript) State() State {
	return ns.state
}

// Name is the bound script type, or "" when unbound
func (ns *NativeScript) Name() string {
	if ns.vt == nil {
		return ""
	}
	return ns.vt.name
}

// Instance returns the live script instance, or nil before creation
func (ns *NativeScript) Instance() any {
	return ns.instance
}

// ensure instantiates a Bound script and runs OnCreate exactly once.
// Hooks may move the entity and with it ns, so callers use the returned
// instance and table rather than re-reading ns.
func (ns *NativeScript) ensure(e Entity) (any, *vtable, error) {
	switch ns.state {
	case Created:
		return ns.instance, ns.vt, nil
	case Bound:
	default:
		return nil, nil, fmt.Errorf("%w: %s is %s", ErrNotBound, e.ID, ns.state)
	}

	vt := ns.vt
	inst := vt.instantiate()
	if a, ok := inst.(attacher); ok {
		a.attach(e)
	}
	ns.instance = inst
	ns.state = Created

	if e.Storage != nil {
		e.Storage.Logger().Debug("script created",
			zap.String("script", vt.name),
			zap.Stringer("entity", e.ID),
		)
	}
	if vt.onCreate != nil {
		vt.onCreate(inst)
	}
	return inst, vt, nil
}

func (ns *NativeScript) update(e Entity, dt float64) error {
	inst, vt, err := ns.ensure(e)
	if err != nil {
		return err
	}
	if vt.onUpdate != nil {
		vt.onUpdate(inst, dt)
	}
	return nil
}

func (ns *NativeScript) handle(e Entity, ev event.Event) (bool, error) {
	inst, vt, err := ns.ensure(e)
	if err != nil {
		return false, err
	}
	if vt.onEvent == nil {
		return false, nil
	}
	return vt.onEvent(inst, ev), nil
}

// destroy runs OnDestroy for a created instance and drops it
func (ns *NativeScript) destroy() {
	inst, vt, created := ns.instance, ns.vt, ns.state == Created
	if ns.state != Unbound {
		ns.state = Destroyed
	}
	ns.instance = nil
	if created && vt.onDestroy != nil {
		vt.onDestroy(inst)
	}
}
