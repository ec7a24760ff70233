package lua_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/scene"
	"github.com/plus3/quadforge/script"
	"github.com/plus3/quadforge/script/lua"
)

const mover = `
local Mover = { speed = 2 }

function Mover:on_create()
  self.ticks = 0
  self.entity:log("mover ready")
end

function Mover:on_update(dt)
  self.ticks = self.ticks + 1
  self.entity:translate(self.speed * dt, 0)
end

function Mover:on_event(ev)
  if ev.type == "KeyPressed" and ev.key == "space" then
    local vx, vy = self.entity:get_velocity()
    self.entity:set_velocity(vx, vy + 5)
    return true
  end
  return false
end

function Mover:on_destroy()
  print("bye", self.ticks)
end

return Mover
`

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func newEngine(t *testing.T) (*lua.Engine, string, *observer.ObservedLogs) {
	t.Helper()
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	engine := lua.NewEngine(dir, zap.New(core))
	t.Cleanup(engine.Close)
	return engine, dir, logs
}

func attach(t *testing.T, s *scene.Scene, engine *lua.Engine, path string) ecs.EntityId {
	t.Helper()
	ns, err := lua.Bind(engine, path)
	require.NoError(t, err)
	id := s.CreateEntity(path)
	require.NoError(t, s.Storage().AddComponent(id, ns))
	return id
}

func instance(t *testing.T, s *scene.Scene, id ecs.EntityId) *lua.Script {
	t.Helper()
	ns, err := ecs.Get[script.NativeScript](s.Storage(), id)
	require.NoError(t, err)
	inst, ok := ns.Instance().(*lua.Script)
	require.True(t, ok)
	return inst
}

func TestLuaScriptLifecycle(t *testing.T) {
	engine, dir, logs := newEngine(t)
	writeScript(t, dir, "mover.lua", mover)
	s := scene.New("lua")
	id := attach(t, s, engine, "mover.lua")

	s.Update(0.5)
	s.Update(0.5)

	tr, err := ecs.Get[scene.Transform](s.Storage(), id)
	require.NoError(t, err)
	assert.InDelta(t, 2, tr.Position.X(), 1e-6)

	inst := instance(t, s, id)
	assert.Equal(t, filepath.Join(dir, "mover.lua"), inst.Path())
	assert.Equal(t, glua.LNumber(2), inst.Field("ticks"))
	assert.Equal(t, glua.LNumber(2), inst.Field("speed"), "module fields are instance defaults")

	ready := logs.FilterMessage("mover ready").All()
	require.Len(t, ready, 1)
	assert.Equal(t, filepath.Join(dir, "mover.lua"), ready[0].ContextMap()["path"])

	assert.False(t, s.OnEvent(&event.KeyEvent{Key: event.KeyA, Pressed: true}))
	assert.True(t, s.OnEvent(&event.KeyEvent{Key: event.KeySpace, Pressed: true}))
	movement, err := ecs.Get[scene.Movement](s.Storage(), id)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec2{0, 5}, movement.Velocity)

	require.NoError(t, s.DestroyEntity(id))
	assert.Equal(t, 1, logs.FilterMessage("bye\t2").Len())
}

func TestTwoInstancesKeepSeparateState(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "mover.lua", mover)
	s := scene.New("lua")
	first := attach(t, s, engine, "mover.lua")
	s.Update(1)
	second := attach(t, s, engine, "mover.lua")
	s.Update(1)

	assert.Equal(t, glua.LNumber(2), instance(t, s, first).Field("ticks"))
	assert.Equal(t, glua.LNumber(1), instance(t, s, second).Field("ticks"))
}

func TestHookErrorsAreLoggedAndSkipped(t *testing.T) {
	engine, dir, logs := newEngine(t)
	writeScript(t, dir, "broken.lua", `
local Broken = {}
function Broken:on_update(dt)
  error("boom")
end
function Broken:on_event(ev)
  self.entity:set_position("left", 0)
  return true
end
return Broken
`)
	s := scene.New("lua")
	id := attach(t, s, engine, "broken.lua")

	s.Update(0.1)
	s.Update(0.1)
	assert.False(t, s.OnEvent(&event.KeyEvent{Key: event.KeyW, Pressed: true}), "a failed hook does not handle the event")

	failures := logs.FilterMessage("script hook failed").All()
	require.Len(t, failures, 3)
	assert.Equal(t, "on_update", failures[0].ContextMap()["hook"])
	assert.Contains(t, failures[0].ContextMap()["error"], "boom")
	assert.Equal(t, "on_event", failures[2].ContextMap()["hook"])
	assert.True(t, s.Storage().IsAlive(id))
}

func TestTransformlessEntityRaises(t *testing.T) {
	engine, dir, logs := newEngine(t)
	writeScript(t, dir, "lost.lua", `
local Lost = {}
function Lost:on_create()
  self.where = self.entity:get_position()
  self.entity:translate(1, 1)
end
return Lost
`)
	ns, err := lua.Bind(engine, "lost.lua")
	require.NoError(t, err)
	s := scene.New("lua")
	id := s.Storage().Spawn(ns)
	s.Update(0)

	inst := instance(t, s, id)
	assert.Equal(t, glua.LNil, inst.Field("where"))
	require.Equal(t, 1, logs.FilterMessage("script hook failed").Len())
	assert.Contains(t, logs.FilterMessage("script hook failed").All()[0].ContextMap()["error"], "has no Transform")
}

func TestEventTables(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "events.lua", `
local Events = {}
function Events:on_event(ev)
  if ev.type == "MouseButtonPressed" then
    self.last = ev.type .. ":" .. ev.button .. ":" .. ev.x .. "," .. ev.y
  elseif ev.type == "MouseScrolled" then
    self.last = "scroll:" .. ev.y_offset
  elseif ev.type == "WindowResize" then
    self.last = ev.width .. "x" .. ev.height
  end
  return false
end
return Events
`)
	s := scene.New("lua")
	id := attach(t, s, engine, "events.lua")

	cases := []struct {
		ev   event.Event
		want string
	}{
		{&event.MouseButtonEvent{Button: event.MouseButtonRight, Pressed: true, X: 3, Y: 4}, "MouseButtonPressed:right:3,4"},
		{&event.MouseScroll{YOffset: -1}, "scroll:-1"},
		{&event.WindowResize{Width: 640, Height: 480}, "640x480"},
	}
	for _, tc := range cases {
		s.OnEvent(tc.ev)
		assert.Equal(t, glua.LString(tc.want), instance(t, s, id).Field("last"))
	}
}

func TestLoadErrors(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "number.lua", "return 42")
	writeScript(t, dir, "syntax.lua", "local = ")

	assert.ErrorIs(t, engine.Load("number.lua"), lua.ErrNotTable)
	assert.Error(t, engine.Load("syntax.lua"))
	assert.Error(t, engine.Load("missing.lua"))
	assert.False(t, engine.Loaded("number.lua"))

	_, err := lua.Bind(engine, "missing.lua")
	assert.Error(t, err)
}

func TestReloadSwapsLiveInstances(t *testing.T) {
	engine, dir, logs := newEngine(t)
	const v1 = `
local Counter = {}
function Counter:on_update(dt)
  self.ticks = (self.ticks or 0) + 1
  self.version = 1
end
return Counter
`
	const v2 = `
local Counter = {}
function Counter:on_update(dt)
  self.ticks = (self.ticks or 0) + 1
  self.version = 2
end
return Counter
`
	writeScript(t, dir, "counter.lua", v1)
	s := scene.New("lua")
	id := attach(t, s, engine, "counter.lua")
	s.Update(0)
	assert.Equal(t, glua.LNumber(1), instance(t, s, id).Field("version"))

	writeScript(t, dir, "counter.lua", v2)
	require.NoError(t, engine.Reload("counter.lua"))
	s.Update(0)
	inst := instance(t, s, id)
	assert.Equal(t, glua.LNumber(2), inst.Field("version"))
	assert.Equal(t, glua.LNumber(2), inst.Field("ticks"), "instance state survives a reload")

	writeScript(t, dir, "counter.lua", "return nil")
	assert.ErrorIs(t, engine.Reload("counter.lua"), lua.ErrNotTable)
	s.Update(0)
	assert.Equal(t, glua.LNumber(2), instance(t, s, id).Field("version"), "a failed reload keeps the old version")
	assert.Equal(t, 1, logs.FilterMessage("script reloaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("script reload failed").Len())
}

func TestBindRefs(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "mover.lua", mover)
	s := scene.New("lua")
	good := s.CreateEntity("good")
	require.NoError(t, ecs.Add(s.Storage(), good, scene.ScriptRef{Path: "mover.lua"}))
	bad := s.CreateEntity("bad")
	require.NoError(t, ecs.Add(s.Storage(), bad, scene.ScriptRef{Path: "missing.lua"}))
	plain := s.CreateEntity("plain")

	bound, err := lua.BindRefs(engine, s.Storage())
	assert.Equal(t, 1, bound)
	assert.Error(t, err)

	assert.True(t, ecs.Has[script.NativeScript](s.Storage(), good))
	assert.False(t, ecs.Has[script.NativeScript](s.Storage(), bad))
	assert.False(t, ecs.Has[script.NativeScript](s.Storage(), plain))

	bound, _ = lua.BindRefs(engine, s.Storage())
	assert.Equal(t, 0, bound, "bound scripts are left alone")

	s.Update(1)
	tr, err := ecs.Get[scene.Transform](s.Storage(), good)
	require.NoError(t, err)
	assert.InDelta(t, 2, tr.Position.X(), 1e-6)
}

func TestClosedEngine(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "mover.lua", mover)
	ns, err := lua.Bind(engine, "mover.lua")
	require.NoError(t, err)
	engine.Close()

	assert.ErrorIs(t, engine.Load("mover.lua"), lua.ErrClosed)
	assert.ErrorIs(t, engine.Reload("mover.lua"), lua.ErrClosed)

	s := scene.New("lua")
	id := s.CreateEntity("orphan")
	require.NoError(t, s.Storage().AddComponent(id, ns))
	assert.NotPanics(t, func() { s.Update(1) })
}

func TestWatcherReportsScriptChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := lua.NewWatcher(dir)
	require.NoError(t, err)

	writeScript(t, dir, "notes.txt", "ignored")
	path := writeScript(t, dir, "hero.lua", "return {}")

	select {
	case got := <-w.Events:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	for range w.Events {
	}
}

func TestReloadChanged(t *testing.T) {
	engine, dir, _ := newEngine(t)
	writeScript(t, dir, "counter.lua", `return { version = 1 }`)
	writeScript(t, dir, "other.lua", `return {}`)
	require.NoError(t, engine.Load("counter.lua"))

	w, err := engine.Watch()
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 0, engine.ReloadChanged(w))
	writeScript(t, dir, "other.lua", `return { unloaded = true }`)
	writeScript(t, dir, "counter.lua", `return { version = 2 }`)

	reloaded := 0
	deadline := time.Now().Add(5 * time.Second)
	for reloaded == 0 && time.Now().Before(deadline) {
		reloaded += engine.ReloadChanged(w)
		time.Sleep(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, reloaded, 1)
	assert.False(t, engine.Loaded("other.lua"), "only loaded scripts reload")
}
