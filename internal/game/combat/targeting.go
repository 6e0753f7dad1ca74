package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/dice"
)

// Targeter validates manual target choices and performs resolution-time
// defensive retargeting.
type Targeter struct {
	arena  *Arena
	src    dice.Source
	logger *zap.Logger
	emit   func(Event)
}

// NewTargeter creates a Targeter over arena.
//
// Precondition: arena, src and logger must be non-nil. emit may be nil.
func NewTargeter(arena *Arena, src dice.Source, logger *zap.Logger, emit func(Event)) *Targeter {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Targeter{arena: arena, src: src, logger: logger, emit: emit}
}

// SelectManual sets a party member's target to a living hostile.
//
// Precondition: actorID names a player-side battler in the arena.
// Postcondition: on success the actor's Target == targetID. Returns
// ErrInvalidTarget if the actor is hostile, or the target is missing,
// defeated, or on the actor's side.
func (t *Targeter) SelectManual(actorID, targetID BattlerID) error {
	actor, ok := t.arena.Get(actorID)
	if !ok {
		return fmt.Errorf("%w: actor %s not in arena", ErrInvalidTarget, actorID)
	}
	if !actor.IsPlayer() {
		return fmt.Errorf("%w: %s is not a party member", ErrInvalidTarget, actor.Name)
	}
	target, ok := t.arena.Get(targetID)
	if !ok {
		return fmt.Errorf("%w: %s not in arena", ErrInvalidTarget, targetID)
	}
	if target.Side() == actor.Side() {
		return fmt.Errorf("%w: %s is on the same side as %s", ErrInvalidTarget, target.Name, actor.Name)
	}
	if target.IsDefeated() {
		return fmt.Errorf("%w: %s is defeated", ErrInvalidTarget, target.Name)
	}
	actor.Target = targetID
	return nil
}

// valid reports whether id is a living battler opposite actor.
func (t *Targeter) valid(actor *Battler, id BattlerID) bool {
	if id == "" {
		return false
	}
	target, ok := t.arena.Get(id)
	return ok && target.Side() != actor.Side() && !target.IsDefeated()
}

// Resolve returns the battler actor will hit. A still-valid target is kept;
// otherwise a uniformly random living battler from the opposite side is
// picked and recorded as the new target.
//
// Precondition: actor is in the arena.
// Postcondition: returns (id, true) with a living opposite-side battler, or
// ("", false) when the opposite side has no living battlers.
func (t *Targeter) Resolve(actor *Battler) (BattlerID, bool) {
	if t.valid(actor, actor.Target) {
		return actor.Target, true
	}
	candidates := t.arena.Alive(actor.Side().Opposite())
	idx := dice.Pick(t.src, len(candidates))
	if idx < 0 {
		return "", false
	}
	chosen := candidates[idx]
	previous := actor.Target
	actor.Target = chosen.ID
	t.logger.Debug("retargeted",
		zap.String("attacker", actor.Name),
		zap.String("previous", string(previous)),
		zap.String("target", chosen.Name),
	)
	t.emit(EventRetargeted{Attacker: actor.Ref(), Previous: previous, Target: chosen.Ref()})
	return chosen.ID, true
}
