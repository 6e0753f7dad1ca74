// Package scripting provides a sandboxed GopherLua execution environment
// for hostile AI scripts. Scripts see only the safe stdlib and the engine.*
// helper tables; battle state is passed in as plain Lua tables.
package scripting

import (
	"context"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script execution when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements the
// remaining counter; when it reaches zero the cancel function fires,
// terminating the Lua VM on the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// Sandbox is a GopherLua state with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Every DoFile, DoString and Call limited to at most limit Lua opcodes
//
// A Sandbox is single-threaded; callers serialize access.
type Sandbox struct {
	L     *lua.LState
	limit int
}

// NewSandbox creates a sandboxed state.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a Sandbox the caller must Close.
func NewSandbox(instLimit int) *Sandbox {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Sandbox{L: L, limit: limit}
}

// limited runs fn under a fresh instruction budget.
func (s *Sandbox) limited(fn func() error) error {
	ctx, cancel := newCountingContext(s.limit)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()
	return fn()
}

// DoFile executes the script at path.
func (s *Sandbox) DoFile(path string) error {
	return s.limited(func() error { return s.L.DoFile(path) })
}

// DoString executes src.
func (s *Sandbox) DoString(src string) error {
	return s.limited(func() error { return s.L.DoString(src) })
}

// HasFunction reports whether the global name is a Lua function.
func (s *Sandbox) HasFunction(name string) bool {
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// Call invokes the global function name with args and returns its first result.
//
// Postcondition: Returns an error if name is not a function, the call raised
// a Lua error, or the instruction limit was exceeded.
func (s *Sandbox) Call(name string, args ...lua.LValue) (lua.LValue, error) {
	fn := s.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("scripting: %q is not a function", name)
	}
	var ret lua.LValue = lua.LNil
	err := s.limited(func() error {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		return lua.LNil, fmt.Errorf("scripting: calling %q: %w", name, err)
	}
	return ret, nil
}

// Close releases the Lua state.
func (s *Sandbox) Close() { s.L.Close() }
