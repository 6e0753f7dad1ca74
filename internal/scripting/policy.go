package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/combat"
	"github.com/cory-johannsen/battle/internal/game/dice"
)

// ChooseHook is the global function a hostile AI script must define:
//
//	function choose_target(actor, candidates) ... end
//
// actor and each candidate are tables with name, health, max_health,
// strength, initiative and level fields; candidates is a 1-based array of
// living party members. The hook returns a candidate name, a 1-based index,
// nil to let the engine pick at random, or false to stay idle.
const ChooseHook = "choose_target"

// ScriptPolicy is a combat.HostilePolicy backed by a Lua script.
type ScriptPolicy struct {
	mu      sync.Mutex
	sandbox *Sandbox
	logger  *zap.Logger
}

// NewScriptPolicy loads the script at path into a fresh sandbox.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns an error if the script fails to load or does not
// define ChooseHook. The caller must Close the policy.
func NewScriptPolicy(path string, instLimit int, src dice.Source, logger *zap.Logger) (*ScriptPolicy, error) {
	sb := NewSandbox(instLimit)
	RegisterModules(sb, src, logger)
	if err := sb.DoFile(path); err != nil {
		sb.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	if !sb.HasFunction(ChooseHook) {
		sb.Close()
		return nil, fmt.Errorf("scripting: %q does not define %s", path, ChooseHook)
	}
	return &ScriptPolicy{sandbox: sb, logger: logger}, nil
}

// Close releases the Lua state.
func (p *ScriptPolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sandbox.Close()
}

// Choose runs the hook for actor. Script errors and unusable results are
// logged at Warn and fall back to an attack with no target, leaving the pick
// to resolution-time targeting.
func (p *ScriptPolicy) Choose(actor *combat.Battler, opponents []*combat.Battler) (combat.ActionKind, combat.BattlerID) {
	if len(opponents) == 0 {
		return combat.ActionNone, ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	L := p.sandbox.L
	candidates := L.NewTable()
	for _, o := range opponents {
		candidates.Append(battlerTable(L, o))
	}
	ret, err := p.sandbox.Call(ChooseHook, battlerTable(L, actor), candidates)
	if err != nil {
		p.logger.Warn("hostile script failed", zap.String("battler", actor.Name), zap.Error(err))
		return combat.ActionAttack, ""
	}

	switch v := ret.(type) {
	case *lua.LNilType:
		return combat.ActionAttack, ""
	case lua.LBool:
		if !bool(v) {
			return combat.ActionNone, ""
		}
	case lua.LString:
		for _, o := range opponents {
			if o.Name == string(v) {
				return combat.ActionAttack, o.ID
			}
		}
	case lua.LNumber:
		idx := int(v) - 1
		if float64(idx+1) == float64(v) && idx >= 0 && idx < len(opponents) {
			return combat.ActionAttack, opponents[idx].ID
		}
	}
	p.logger.Warn("hostile script returned unusable target",
		zap.String("battler", actor.Name),
		zap.String("result", ret.String()),
	)
	return combat.ActionAttack, ""
}

func battlerTable(L *lua.LState, b *combat.Battler) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(b.Name))
	t.RawSetString("health", lua.LNumber(b.CurrentHealth))
	t.RawSetString("max_health", lua.LNumber(b.MaxHealth))
	t.RawSetString("strength", lua.LNumber(b.Strength))
	t.RawSetString("initiative", lua.LNumber(b.Initiative))
	t.RawSetString("level", lua.LNumber(b.Level))
	return t
}
