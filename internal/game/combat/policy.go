package combat

import (
	"fmt"

	"github.com/cory-johannsen/battle/internal/game/dice"
)

// HostilePolicy decides a hostile battler's action at the start of each Battle phase.
type HostilePolicy interface {
	// Choose returns the action and target for actor. opponents are the
	// living player-side battlers in roster order. An empty target leaves the
	// choice to resolution-time targeting.
	Choose(actor *Battler, opponents []*Battler) (ActionKind, BattlerID)
}

// IdlePolicy never queues an action; hostiles do not act.
type IdlePolicy struct{}

// Choose always returns ActionNone.
func (IdlePolicy) Choose(*Battler, []*Battler) (ActionKind, BattlerID) {
	return ActionNone, ""
}

// RandomPolicy attacks a uniformly random living player.
type RandomPolicy struct {
	Source dice.Source
}

// Choose picks a random opponent, or ActionNone when there is none.
func (p RandomPolicy) Choose(_ *Battler, opponents []*Battler) (ActionKind, BattlerID) {
	idx := dice.Pick(p.Source, len(opponents))
	if idx < 0 {
		return ActionNone, ""
	}
	return ActionAttack, opponents[idx].ID
}

// PolicyFunc adapts a function to HostilePolicy.
type PolicyFunc func(actor *Battler, opponents []*Battler) (ActionKind, BattlerID)

// Choose calls f.
func (f PolicyFunc) Choose(actor *Battler, opponents []*Battler) (ActionKind, BattlerID) {
	return f(actor, opponents)
}

// NewPolicy returns the built-in policy named by kind. "script" policies are
// built by the scripting package and are rejected here.
//
// Postcondition: Returns an error for any name other than "idle" or "random".
func NewPolicy(kind string, src dice.Source) (HostilePolicy, error) {
	switch kind {
	case "", "idle":
		return IdlePolicy{}, nil
	case "random":
		return RandomPolicy{Source: src}, nil
	default:
		return nil, fmt.Errorf("unknown built-in hostile policy %q", kind)
	}
}
