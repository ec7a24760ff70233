package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/script"
)

type Position struct {
	X, Y float32
}

type recorder struct {
	script.Base
	name string
	log  *[]string
}

func (r *recorder) record(what string) {
	*r.log = append(*r.log, r.name+":"+what)
}

func (r *recorder) OnCreate()        { r.record("create") }
func (r *recorder) OnUpdate(float64) { r.record("update") }
func (r *recorder) OnDestroy()       { r.record("destroy") }

func (r *recorder) OnEvent(ev event.Event) bool {
	r.record("event")
	_, isKey := ev.(*event.KeyEvent)
	return isKey
}

func recording(name string, log *[]string) script.NativeScript {
	return script.NewFunc(func() *recorder { return &recorder{name: name, log: log} })
}

type walker struct {
	script.Base
}

func (w *walker) OnUpdate(dt float64) {
	if p := script.Component[Position](w.Entity); p != nil {
		p.X += float32(dt)
	}
}

type selfDestruct struct {
	script.Base
	log *[]string
}

func (s *selfDestruct) OnUpdate(float64) {
	_ = s.Entity.Storage.Destroy(s.Entity.ID)
}

func (s *selfDestruct) OnDestroy() {
	*s.log = append(*s.log, "destroyed")
}

func newStorage() *ecs.Storage {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	script.Register(registry)
	return ecs.NewStorage(registry)
}

func newScheduler(t *testing.T, storage *ecs.Storage) *ecs.Scheduler {
	t.Helper()
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(&script.System{}))
	return scheduler
}

func TestLifecycleOrder(t *testing.T) {
	storage := newStorage()
	scheduler := newScheduler(t, storage)

	var log []string
	id := storage.Spawn(Position{}, recording("a", &log))

	ns, err := ecs.Get[script.NativeScript](storage, id)
	require.NoError(t, err)
	assert.Equal(t, script.Bound, ns.State())
	assert.Nil(t, ns.Instance(), "instances are created lazily")
	assert.Equal(t, "script_test.recorder", ns.Name())

	scheduler.Once(0.016)
	scheduler.Once(0.016)

	ns, err = ecs.Get[script.NativeScript](storage, id)
	require.NoError(t, err)
	assert.Equal(t, script.Created, ns.State())
	require.IsType(t, &recorder{}, ns.Instance())
	assert.Equal(t, id, ns.Instance().(*recorder).Entity.ID)

	require.NoError(t, ecs.Remove[script.NativeScript](storage, id))
	assert.Equal(t, []string{"a:create", "a:update", "a:update", "a:destroy"}, log)
	assert.True(t, storage.IsAlive(id))
}

func TestDestroyingEntityDestroysScript(t *testing.T) {
	storage := newStorage()
	scheduler := newScheduler(t, storage)

	var log []string
	id := storage.Spawn(recording("a", &log))
	scheduler.Once(0)

	require.NoError(t, storage.Destroy(id))
	assert.Equal(t, []string{"a:create", "a:update", "a:destroy"}, log)
}

func TestBoundOnlyScriptIsNeverCreatedOrDestroyed(t *testing.T) {
	storage := newStorage()

	var log []string
	id := storage.Spawn(recording("a", &log))
	require.NoError(t, storage.Destroy(id))

	assert.Empty(t, log)
}

func TestUnboundScript(t *testing.T) {
	storage := newStorage()
	scheduler := newScheduler(t, storage)

	id := storage.Spawn(script.NativeScript{})
	assert.NotPanics(t, func() { scheduler.Once(0) })
	assert.ErrorIs(t, script.Update(storage, id, 0), script.ErrNotBound)

	ns, err := ecs.Get[script.NativeScript](storage, id)
	require.NoError(t, err)
	assert.Equal(t, script.Unbound, ns.State())
	assert.Equal(t, "", ns.Name())

	require.NoError(t, script.Bind[walker](ns))
	assert.Equal(t, script.Bound, ns.State())
}

func TestRebindAfterCreate(t *testing.T) {
	storage := newStorage()
	id := storage.Spawn(Position{}, script.New[walker]())
	require.NoError(t, script.Update(storage, id, 1))

	ns, err := ecs.Get[script.NativeScript](storage, id)
	require.NoError(t, err)
	assert.ErrorIs(t, script.Bind[walker](ns), script.ErrInstantiated)
}

func TestScriptReachesItsEntity(t *testing.T) {
	storage := newStorage()
	scheduler := newScheduler(t, storage)
	id := storage.Spawn(Position{}, script.New[walker]())

	scheduler.Once(0.5)
	scheduler.Once(0.25)

	pos, err := ecs.Get[Position](storage, id)
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), pos.X)
}

func TestScriptMayDestroyItsEntity(t *testing.T) {
	storage := newStorage()
	scheduler := newScheduler(t, storage)

	var log []string
	first := storage.Spawn(script.NewFunc(func() *selfDestruct { return &selfDestruct{log: &log} }))
	second := storage.Spawn(script.NewFunc(func() *selfDestruct { return &selfDestruct{log: &log} }))

	assert.NotPanics(t, func() { scheduler.Once(0) })
	assert.False(t, storage.IsAlive(first))
	assert.False(t, storage.IsAlive(second))
	assert.Equal(t, []string{"destroyed", "destroyed"}, log)
}

func TestDispatchStopsAtFirstHandler(t *testing.T) {
	storage := newStorage()

	var log []string
	storage.Spawn(recording("a", &log))
	storage.Spawn(recording("b", &log))

	dispatcher := script.NewDispatcher(storage)

	key := &event.KeyEvent{Key: event.KeySpace, Pressed: true}
	assert.True(t, dispatcher.Dispatch(key))
	assert.True(t, key.IsHandled())
	assert.Equal(t, []string{"a:create", "a:event"}, log)

	log = nil
	assert.False(t, dispatcher.Dispatch(&event.MouseMove{X: 1, Y: 2}))
	assert.Equal(t, []string{"a:event", "b:create", "b:event"}, log)

	log = nil
	handled := &event.MouseMove{}
	handled.SetHandled()
	assert.True(t, script.DispatchEvent(storage, handled))
	assert.Empty(t, log)
}
