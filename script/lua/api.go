package lua

import (
	glua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/plus3/quadforge/ecs"
	"github.com/plus3/quadforge/event"
	"github.com/plus3/quadforge/scene"
	"github.com/plus3/quadforge/script"
)

const entityTypeName = "quadforge.entity"

type entityHandle struct {
	entity script.Entity
	path   string
}

func registerEntityType(L *glua.LState, log *zap.Logger) {
	methods := map[string]glua.LGFunction{
		"id":           entityID,
		"alive":        entityAlive,
		"get_position": getPosition,
		"set_position": setPosition,
		"translate":    translate,
		"get_rotation": getRotation,
		"set_rotation": setRotation,
		"get_velocity": getVelocity,
		"set_velocity": setVelocity,
		"log": func(L *glua.LState) int {
			h := checkEntity(L)
			log.Info(joinArgs(L, 2),
				zap.String("path", h.path),
				zap.Stringer("entity", h.entity.ID),
			)
			return 0
		},
	}
	mt := L.NewTypeMetatable(entityTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LString("entity " + checkEntity(L).entity.ID.String()))
		return 1
	}))
}

func newEntity(L *glua.LState, e script.Entity, path string) *glua.LUserData {
	ud := L.NewUserData()
	ud.Value = &entityHandle{entity: e, path: path}
	L.SetMetatable(ud, L.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *glua.LState) *entityHandle {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*entityHandle); ok {
		return h
	}
	L.ArgError(1, "entity expected")
	return nil
}

func transformOf(L *glua.LState, h *entityHandle) *scene.Transform {
	tr := script.Component[scene.Transform](h.entity)
	if tr == nil {
		L.RaiseError("entity %s has no Transform", h.entity.ID)
	}
	return tr
}

func entityID(L *glua.LState) int {
	L.Push(glua.LString(checkEntity(L).entity.ID.String()))
	return 1
}

func entityAlive(L *glua.LState) int {
	L.Push(glua.LBool(checkEntity(L).entity.Alive()))
	return 1
}

func getPosition(L *glua.LState) int {
	tr := script.Component[scene.Transform](checkEntity(L).entity)
	if tr == nil {
		L.Push(glua.LNil)
		return 1
	}
	L.Push(glua.LNumber(tr.Position.X()))
	L.Push(glua.LNumber(tr.Position.Y()))
	L.Push(glua.LNumber(tr.Position.Z()))
	return 3
}

// set_position(x, y [, z]) keeps the current z when omitted
func setPosition(L *glua.LState) int {
	tr := transformOf(L, checkEntity(L))
	tr.Position[0] = float32(L.CheckNumber(2))
	tr.Position[1] = float32(L.CheckNumber(3))
	tr.Position[2] = float32(L.OptNumber(4, glua.LNumber(tr.Position[2])))
	return 0
}

func translate(L *glua.LState) int {
	tr := transformOf(L, checkEntity(L))
	tr.Position[0] += float32(L.CheckNumber(2))
	tr.Position[1] += float32(L.CheckNumber(3))
	tr.Position[2] += float32(L.OptNumber(4, 0))
	return 0
}

func getRotation(L *glua.LState) int {
	L.Push(glua.LNumber(transformOf(L, checkEntity(L)).Rotation))
	return 1
}

func setRotation(L *glua.LState) int {
	transformOf(L, checkEntity(L)).Rotation = float32(L.CheckNumber(2))
	return 0
}

// get_velocity returns 0, 0 for entities without Movement
func getVelocity(L *glua.LState) int {
	var vx, vy float32
	if m := script.Component[scene.Movement](checkEntity(L).entity); m != nil {
		vx, vy = m.Velocity.X(), m.Velocity.Y()
	}
	L.Push(glua.LNumber(vx))
	L.Push(glua.LNumber(vy))
	return 2
}

// set_velocity adds Movement when the entity has none
func setVelocity(L *glua.LState) int {
	h := checkEntity(L)
	vx, vy := float32(L.CheckNumber(2)), float32(L.CheckNumber(3))
	if m := script.Component[scene.Movement](h.entity); m != nil {
		m.Velocity[0], m.Velocity[1] = vx, vy
		return 0
	}
	if !h.entity.Alive() {
		L.RaiseError("entity %s is not alive", h.entity.ID)
		return 0
	}
	movement := scene.Movement{}
	movement.Velocity[0], movement.Velocity[1] = vx, vy
	if err := ecs.Add(h.entity.Storage, h.entity.ID, movement); err != nil {
		L.RaiseError("set_velocity: %s", err)
	}
	return 0
}

// eventTable flattens ev into a table keyed like the Lua API expects
func eventTable(L *glua.LState, ev event.Event) *glua.LTable {
	t := L.NewTable()
	t.RawSetString("type", glua.LString(ev.Type().String()))
	switch ev := ev.(type) {
	case *event.KeyEvent:
		t.RawSetString("key", glua.LString(ev.Key.String()))
		t.RawSetString("pressed", glua.LBool(ev.Pressed))
		t.RawSetString("repeat", glua.LBool(ev.Repeat))
	case *event.MouseButtonEvent:
		t.RawSetString("button", glua.LString(ev.Button.String()))
		t.RawSetString("pressed", glua.LBool(ev.Pressed))
		t.RawSetString("x", glua.LNumber(ev.X))
		t.RawSetString("y", glua.LNumber(ev.Y))
	case *event.MouseMove:
		t.RawSetString("x", glua.LNumber(ev.X))
		t.RawSetString("y", glua.LNumber(ev.Y))
	case *event.MouseScroll:
		t.RawSetString("x_offset", glua.LNumber(ev.XOffset))
		t.RawSetString("y_offset", glua.LNumber(ev.YOffset))
	case *event.WindowResize:
		t.RawSetString("width", glua.LNumber(ev.Width))
		t.RawSetString("height", glua.LNumber(ev.Height))
	}
	return t
}
