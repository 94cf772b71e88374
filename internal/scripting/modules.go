package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RegisterModules defines the engine global in L:
//
//	engine.log.debug(msg) / engine.log.info(msg) / engine.log.warn(msg)
//	engine.live_blocks() -> array of {id, type, x, y, z, health, max_health}
//	engine.live_count() -> number
//	engine.roll(expr) -> total | nil, err
//
// Precondition: L must be from NewSandboxedState.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	log := L.NewTable()
	L.SetField(log, "debug", L.NewFunction(m.luaLog(zap.DebugLevel)))
	L.SetField(log, "info", L.NewFunction(m.luaLog(zap.InfoLevel)))
	L.SetField(log, "warn", L.NewFunction(m.luaLog(zap.WarnLevel)))
	L.SetField(engine, "log", log)

	L.SetField(engine, "live_blocks", L.NewFunction(m.luaLiveBlocks))
	L.SetField(engine, "live_count", L.NewFunction(m.luaLiveCount))
	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))

	L.SetGlobal("engine", engine)
}

func (m *Manager) luaLog(level zapcore.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		if ce := m.logger.Check(level, L.CheckString(1)); ce != nil {
			ce.Write(zap.String("source", "lua"))
		}
		return 0
	}
}

func (m *Manager) blocks() []BlockInfo {
	if m.LiveBlocks == nil {
		return nil
	}
	return m.LiveBlocks()
}

func (m *Manager) luaLiveBlocks(L *lua.LState) int {
	blocks := m.blocks()
	arr := L.CreateTable(len(blocks), 0)
	for _, b := range blocks {
		t := L.CreateTable(0, 8)
		L.SetField(t, "id", lua.LString(b.ID))
		L.SetField(t, "type", lua.LString(b.Type))
		L.SetField(t, "x", lua.LNumber(b.X))
		L.SetField(t, "y", lua.LNumber(b.Y))
		L.SetField(t, "z", lua.LNumber(b.Z))
		L.SetField(t, "health", lua.LNumber(b.Health))
		L.SetField(t, "max_health", lua.LNumber(b.MaxHealth))
		L.SetField(t, "condition", lua.LString(b.Condition))
		arr.Append(t)
	}
	L.Push(arr)
	return 1
}

func (m *Manager) luaLiveCount(L *lua.LState) int {
	L.Push(lua.LNumber(len(m.blocks())))
	return 1
}

func (m *Manager) luaRoll(L *lua.LState) int {
	res, err := m.roller.RollExpr(L.CheckString(1))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}
