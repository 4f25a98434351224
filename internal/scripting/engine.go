package scripting

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/binding"
	"github.com/entitybind/entitybind/internal/core/ecs"
)

const handleTypeName = "EntityHandle"

// Engine wraps a single gopher-lua VM exposing the binding registry to
// scripts through the global Ext table. Single-goroutine access only (tick
// loop).
type Engine struct {
	vm    *lua.LState
	reg   *binding.Registry
	world func() *ecs.EntityWorld
	log   *zap.Logger
}

// NewEngine creates a Lua engine, installs Ext and loads every script of dir
// in name order. A missing dir loads nothing.
func NewEngine(dir string, reg *binding.Registry, world func() *ecs.EntityWorld, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, reg: reg, world: world, log: log}
	e.install()

	if err := e.loadDir(dir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) install() {
	mt := e.vm.NewTypeMetatable(handleTypeName)
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkHandle(L, 1).String()))
		return 1
	}))
	e.vm.SetField(mt, "__eq", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(checkHandle(L, 1) == checkHandle(L, 2)))
		return 1
	}))

	ext := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"IsValid":        e.luaIsValid,
		"GetEntity":      e.luaGetEntity,
		"HasComponent":   e.luaHasComponent,
		"ComponentSize":  e.luaComponentSize,
		"GetField":       e.luaGetField,
		"Rebind":         e.luaRebind,
		"BindingVersion": e.luaBindingVersion,
	})
	e.vm.SetGlobal("Ext", ext)
}

func (e *Engine) pushHandle(L *lua.LState, h ecs.EntityHandle) {
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	L.Push(ud)
}

func checkHandle(L *lua.LState, n int) ecs.EntityHandle {
	ud := L.CheckUserData(n)
	h, ok := ud.Value.(ecs.EntityHandle)
	if !ok {
		L.ArgError(n, "entity handle expected")
		return ecs.NullHandle
	}
	return h
}

func (e *Engine) currentWorld() *ecs.EntityWorld {
	if e.world == nil {
		return nil
	}
	return e.world()
}

// Ext.IsValid(h) -> bool
func (e *Engine) luaIsValid(L *lua.LState) int {
	h := checkHandle(L, 1)
	w := e.currentWorld()
	L.Push(lua.LBool(w != nil && w.IsValid(h)))
	return 1
}

// Ext.GetEntity(guid) -> handle | nil
func (e *Engine) luaGetEntity(L *lua.LState) int {
	h, ok := e.reg.GetEntityHandleString(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	e.pushHandle(L, h)
	return 1
}

// Ext.HasComponent(h, name) -> bool
func (e *Engine) luaHasComponent(L *lua.LState) int {
	h := checkHandle(L, 1)
	d, ok := e.reg.Catalog().ComponentByName(L.CheckString(2))
	L.Push(lua.LBool(ok && !e.reg.GetRawComponent(h, d.Type).IsNil()))
	return 1
}

// Ext.ComponentSize(name) -> number | nil
func (e *Engine) luaComponentSize(L *lua.LState) int {
	d, ok := e.reg.Catalog().ComponentByName(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	meta := e.reg.ComponentMeta(d.Type)
	if !meta.Bound() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(meta.Layout.ElementSize()))
	return 1
}

// Ext.GetField(h, component, field) -> value | nil
func (e *Engine) luaGetField(L *lua.LState) int {
	h := checkHandle(L, 1)
	d, ok := e.reg.Catalog().ComponentByName(L.CheckString(2))
	name := L.CheckString(3)
	if !ok || d.Schema == nil {
		L.Push(lua.LNil)
		return 1
	}
	data := e.reg.GetRawComponent(h, d.Type).Bytes()
	for _, f := range d.Schema.Fields {
		if f.Name != name {
			continue
		}
		e.pushField(L, f, data)
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func (e *Engine) pushField(L *lua.LState, f binding.Field, data []byte) {
	raw, ok := f.Raw(data)
	if !ok {
		L.Push(lua.LNil)
		return
	}
	switch f.Kind {
	case binding.FieldInt32:
		L.Push(lua.LNumber(int32(binary.LittleEndian.Uint32(raw))))
	case binding.FieldUint32:
		L.Push(lua.LNumber(binary.LittleEndian.Uint32(raw)))
	case binding.FieldFloat32:
		L.Push(lua.LNumber(math.Float32frombits(binary.LittleEndian.Uint32(raw))))
	case binding.FieldBool:
		L.Push(lua.LBool(raw[0] != 0))
	case binding.FieldHandle:
		e.pushHandle(L, ecs.EntityHandle(binary.LittleEndian.Uint64(raw)))
	default:
		L.Push(lua.LNil)
	}
}

// Ext.Rebind() -> version
func (e *Engine) luaRebind(L *lua.LState) int {
	t := e.reg.Rebuild()
	L.Push(lua.LNumber(t.Version))
	return 1
}

// Ext.BindingVersion() -> version
func (e *Engine) luaBindingVersion(L *lua.LState) int {
	L.Push(lua.LNumber(e.reg.Version()))
	return 1
}

// NotifyRebuilt calls the script hook on_bindings_rebuilt(version, missing)
// when one is defined.
func (e *Engine) NotifyRebuilt(version uint64, missing int) {
	e.callHook("on_bindings_rebuilt", lua.LNumber(version), lua.LNumber(missing))
}

// NotifyStateChanged calls on_game_state_changed(from, to) when defined.
func (e *Engine) NotifyStateChanged(from, to string) {
	e.callHook("on_game_state_changed", lua.LString(from), lua.LString(to))
}

func (e *Engine) callHook(name string, args ...lua.LValue) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook error", zap.String("func", name), zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
