// Package lua runs gameplay scripts written in Lua as native scripts.
//
// A script file returns a table of hooks. Each entity gets its own instance
// table whose metatable falls back to the module table, so module fields act
// as defaults and a reload swaps behaviour under live instances:
//
//	local Mover = { speed = 2 }
//
//	function Mover:on_update(dt)
//	  self.entity:translate(self.speed * dt, 0)
//	end
//
//	return Mover
//
// The hooks are on_create, on_update(dt), on_event(ev) and on_destroy.
// An Engine owns one VM and must only be used from the goroutine that runs
// the scene.
package lua

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is published to scripts as the global QUADFORGE_API
const APIVersion = 1

var (
	ErrNotTable = errors.New("lua: script did not return a table")
	ErrClosed   = errors.New("lua: engine closed")
)

// Engine wraps a single gopher-lua VM and the script modules loaded into it
type Engine struct {
	vm      *glua.LState
	log     *zap.Logger
	dir     string
	modules map[string]*module
	closed  bool
}

// module is one loaded script file. Every instance shares meta, whose
// __index is the most recently loaded table.
type module struct {
	path    string
	meta    *glua.LTable
	version int
}

// NewEngine creates a VM with the standard libraries. Relative script paths
// resolve against dir.
func NewEngine(dir string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := glua.NewState(glua.Options{SkipOpenLibs: false})
	e := &Engine{
		vm:      vm,
		log:     log.Named("lua"),
		dir:     dir,
		modules: make(map[string]*module),
	}

	vm.SetGlobal("QUADFORGE_API", glua.LNumber(APIVersion))
	vm.SetGlobal("print", vm.NewFunction(e.print))
	registerEntityType(vm, e.log)
	return e
}

func (e *Engine) Dir() string {
	return e.dir
}

// Load runs the script at path once and caches its table
func (e *Engine) Load(path string) error {
	_, err := e.module(path)
	return err
}

// Loaded reports whether path has been loaded
func (e *Engine) Loaded(path string) bool {
	_, ok := e.modules[e.resolve(path)]
	return ok
}

func (e *Engine) module(path string) (*module, error) {
	if e.closed {
		return nil, ErrClosed
	}
	full := e.resolve(path)
	if mod, ok := e.modules[full]; ok {
		return mod, nil
	}

	class, err := e.run(full)
	if err != nil {
		return nil, err
	}
	meta := e.vm.NewTable()
	meta.RawSetString("__index", class)
	mod := &module{path: full, meta: meta, version: 1}
	e.modules[full] = mod
	e.log.Debug("script loaded", zap.String("path", full))
	return mod, nil
}

// Reload re-runs a loaded script and points every live instance at the new
// table. On failure the previous version stays active.
func (e *Engine) Reload(path string) error {
	if e.closed {
		return ErrClosed
	}
	full := e.resolve(path)
	mod, ok := e.modules[full]
	if !ok {
		_, err := e.module(full)
		return err
	}

	class, err := e.run(full)
	if err != nil {
		e.log.Warn("script reload failed", zap.String("path", full), zap.Error(err))
		return err
	}
	mod.meta.RawSetString("__index", class)
	mod.version++
	e.log.Info("script reloaded", zap.String("path", full), zap.Int("version", mod.version))
	return nil
}

// ReloadChanged reloads every loaded script the watcher has reported since the
// last call and returns how many reloaded cleanly. It never blocks.
func (e *Engine) ReloadChanged(w *Watcher) int {
	reloaded := 0
	for {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return reloaded
			}
			if !e.Loaded(path) {
				continue
			}
			if e.Reload(path) == nil {
				reloaded++
			}
		case err, ok := <-w.Errors:
			if !ok {
				return reloaded
			}
			e.log.Warn("script watcher error", zap.Error(err))
		default:
			return reloaded
		}
	}
}

// Watch starts a watcher on the engine's script directory
func (e *Engine) Watch() (*Watcher, error) {
	return NewWatcher(e.dir)
}

func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.modules = nil
	e.vm.Close()
}

func (e *Engine) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (e *Engine) run(path string) (*glua.LTable, error) {
	fn, err := e.vm.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	e.vm.Push(fn)
	if err := e.vm.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	class, ok := ret.(*glua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNotTable, path, ret.Type())
	}
	return class, nil
}

// instance makes the per-entity self table
func (e *Engine) instance(mod *module) *glua.LTable {
	self := e.vm.NewTable()
	e.vm.SetMetatable(self, mod.meta)
	return self
}

// call invokes self[hook](self, args...) in protected mode and returns its
// first result. Missing hooks and errors yield nil.
func (e *Engine) call(mod *module, self *glua.LTable, hook string, args ...glua.LValue) glua.LValue {
	if e.closed || self == nil {
		return glua.LNil
	}
	fn, ok := e.vm.GetField(self, hook).(*glua.LFunction)
	if !ok {
		return glua.LNil
	}

	err := e.vm.CallByParam(glua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, append([]glua.LValue{self}, args...)...)
	if err != nil {
		e.log.Warn("script hook failed",
			zap.String("path", mod.path),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return glua.LNil
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret
}

func (e *Engine) print(L *glua.LState) int {
	e.log.Info(joinArgs(L, 1))
	return 0
}

func joinArgs(L *glua.LState, from int) string {
	parts := make([]string, 0, L.GetTop())
	for i := from; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	return strings.Join(parts, "\t")
}
