package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/dice"
)

// RegisterModules installs the engine.* helper tables into the sandbox:
//
//	engine.log.debug(msg), engine.log.info(msg), engine.log.warn(msg)
//	engine.dice.pick(n) -> uniform integer in [1, n], or nil when n < 1
//
// Precondition: s, src and logger must be non-nil.
// Postcondition: the engine global is defined in s.
func RegisterModules(s *Sandbox, src dice.Source, logger *zap.Logger) {
	L := s.L
	engine := L.NewTable()

	logTbl := L.NewTable()
	logFn := func(emit func(string, ...zap.Field)) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			emit(L.CheckString(1), zap.String("source", "lua"))
			return 0
		})
	}
	L.SetField(logTbl, "debug", logFn(logger.Debug))
	L.SetField(logTbl, "info", logFn(logger.Info))
	L.SetField(logTbl, "warn", logFn(logger.Warn))
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "pick", L.NewFunction(func(L *lua.LState) int {
		idx := dice.Pick(src, L.CheckInt(1))
		if idx < 0 {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(idx + 1))
		return 1
	}))
	L.SetField(engine, "dice", diceTbl)

	L.SetGlobal("engine", engine)
}
