package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/battle/internal/game/combat"
	"github.com/cory-johannsen/battle/internal/game/dice"
	"github.com/cory-johannsen/battle/internal/scripting"
)

func battlers() (*combat.Battler, []*combat.Battler) {
	ogre := combat.NewBattler("o", combat.SideHostile, combat.StatBlock{Name: "Ogre", CurrentHealth: 20, MaxHealth: 20, Strength: 4})
	hero := combat.NewBattler("p1", combat.SidePlayer, combat.StatBlock{Name: "Hero", CurrentHealth: 10, MaxHealth: 10, Strength: 5})
	mage := combat.NewBattler("p2", combat.SidePlayer, combat.StatBlock{Name: "Mage", CurrentHealth: 3, MaxHealth: 6, Strength: 2})
	return ogre, []*combat.Battler{hero, mage}
}

func newPolicy(t *testing.T, src string) (*scripting.ScriptPolicy, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	p, err := scripting.NewScriptPolicy(writeTempLua(t, "ai.lua", src), 0, dice.NewSeededSource(3), zap.New(core))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, logs
}

func TestScriptPolicy_ReturnsName(t *testing.T) {
	p, _ := newPolicy(t, `
		function choose_target(actor, candidates)
			local weakest = candidates[1]
			for _, c in ipairs(candidates) do
				if c.health < weakest.health then weakest = c end
			end
			return weakest.name
		end
	`)
	actor, opponents := battlers()
	kind, target := p.Choose(actor, opponents)
	assert.Equal(t, combat.ActionAttack, kind)
	assert.Equal(t, combat.BattlerID("p2"), target)
}

func TestScriptPolicy_ReturnsIndex(t *testing.T) {
	p, _ := newPolicy(t, `function choose_target(actor, candidates) return 1 end`)
	actor, opponents := battlers()
	_, target := p.Choose(actor, opponents)
	assert.Equal(t, combat.BattlerID("p1"), target)
}

func TestScriptPolicy_SeesActorFields(t *testing.T) {
	p, _ := newPolicy(t, `
		function choose_target(actor, candidates)
			if actor.name == "Ogre" and actor.strength == 4 then return 2 end
			return 1
		end
	`)
	actor, opponents := battlers()
	_, target := p.Choose(actor, opponents)
	assert.Equal(t, combat.BattlerID("p2"), target)
}

func TestScriptPolicy_NilLetsEnginePick(t *testing.T) {
	p, _ := newPolicy(t, `function choose_target() return nil end`)
	actor, opponents := battlers()
	kind, target := p.Choose(actor, opponents)
	assert.Equal(t, combat.ActionAttack, kind)
	assert.Empty(t, target)
}

func TestScriptPolicy_FalseIdles(t *testing.T) {
	p, _ := newPolicy(t, `function choose_target() return false end`)
	actor, opponents := battlers()
	kind, _ := p.Choose(actor, opponents)
	assert.Equal(t, combat.ActionNone, kind)
}

func TestScriptPolicy_UnusableResultFallsBack(t *testing.T) {
	for name, src := range map[string]string{
		"unknown name":   `function choose_target() return "Dragon" end`,
		"out of range":   `function choose_target() return 7 end`,
		"fractional":     `function choose_target() return 1.5 end`,
		"runtime error":  `function choose_target() error("bad") end`,
		"runaway script": `function choose_target() while true do end end`,
	} {
		t.Run(name, func(t *testing.T) {
			p, logs := newPolicy(t, src)
			actor, opponents := battlers()
			kind, target := p.Choose(actor, opponents)
			assert.Equal(t, combat.ActionAttack, kind)
			assert.Empty(t, target)
			assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
		})
	}
}

func TestScriptPolicy_NoOpponents(t *testing.T) {
	p, _ := newPolicy(t, `function choose_target() return 1 end`)
	actor, _ := battlers()
	kind, _ := p.Choose(actor, nil)
	assert.Equal(t, combat.ActionNone, kind)
}

func TestScriptPolicy_DiceModule(t *testing.T) {
	p, _ := newPolicy(t, `function choose_target(actor, candidates) return engine.dice.pick(#candidates) end`)
	actor, opponents := battlers()
	kind, target := p.Choose(actor, opponents)
	assert.Equal(t, combat.ActionAttack, kind)
	assert.Contains(t, []combat.BattlerID{"p1", "p2"}, target)
}

func TestNewScriptPolicy_MissingHook(t *testing.T) {
	_, err := scripting.NewScriptPolicy(writeTempLua(t, "ai.lua", `x = 1`), 0, dice.NewSeededSource(1), zap.NewNop())
	assert.ErrorContains(t, err, scripting.ChooseHook)
}

func TestNewScriptPolicy_SyntaxError(t *testing.T) {
	_, err := scripting.NewScriptPolicy(writeTempLua(t, "ai.lua", `function (`), 0, dice.NewSeededSource(1), zap.NewNop())
	assert.Error(t, err)
}

func TestNewScriptPolicy_ImplementsHostilePolicy(t *testing.T) {
	var _ combat.HostilePolicy = (*scripting.ScriptPolicy)(nil)
}
