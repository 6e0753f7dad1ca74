package combat

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resolution is the outcome of one resolved attack.
type Resolution struct {
	ActorID        BattlerID
	TargetID       BattlerID
	DamageDealt    int
	TargetDefeated bool
	// TargetHealth is the target's health after damage; it may be negative.
	TargetHealth int
}

// DamageFor returns the damage attacker deals with a basic attack: its strength.
func DamageFor(attacker *Battler) int {
	return attacker.Strength
}

// Resolver executes one battler's queued action. Defeat announcement and
// removal are scheduled as follow-up steps so pacing can separate them.
type Resolver struct {
	arena     *Arena
	targeter  *Targeter
	scheduler *Scheduler
	pacing    Pacing
	logger    *zap.Logger
	emit      func(Event)
	onRemoved func(BattlerRef)
}

// NewResolver wires a resolver.
//
// Precondition: arena, targeter, scheduler and logger must be non-nil.
// emit and onRemoved may be nil.
func NewResolver(arena *Arena, targeter *Targeter, scheduler *Scheduler, pacing Pacing, logger *zap.Logger, emit func(Event), onRemoved func(BattlerRef)) *Resolver {
	if emit == nil {
		emit = func(Event) {}
	}
	if onRemoved == nil {
		onRemoved = func(BattlerRef) {}
	}
	return &Resolver{
		arena:     arena,
		targeter:  targeter,
		scheduler: scheduler,
		pacing:    pacing,
		logger:    logger,
		emit:      emit,
		onRemoved: onRemoved,
	}
}

// Resolve executes actor's queued action.
//
// Precondition: actor is in the arena and not defeated.
// Postcondition: for ActionAttack the target's health dropped by exactly
// DamageFor(actor). When the target is defeated, a defeat step is scheduled
// after DamageDelay and a removal step DefeatDelay after that. Returns
// ErrNoTarget when the opposite side has no living battlers,
// ErrRunNotImplemented for ActionRun, and ErrUnknownAction otherwise.
func (r *Resolver) Resolve(actor *Battler) (Resolution, error) {
	switch actor.Action {
	case ActionAttack:
		return r.attack(actor)
	case ActionRun:
		return Resolution{ActorID: actor.ID}, fmt.Errorf("%s: %w", actor.Name, ErrRunNotImplemented)
	default:
		return Resolution{ActorID: actor.ID}, fmt.Errorf("%s queued %s: %w", actor.Name, actor.Action, ErrUnknownAction)
	}
}

func (r *Resolver) attack(actor *Battler) (Resolution, error) {
	targetID, ok := r.targeter.Resolve(actor)
	if !ok {
		return Resolution{ActorID: actor.ID}, fmt.Errorf("%s: %w", actor.Name, ErrNoTarget)
	}
	target, _ := r.arena.Get(targetID)

	dmg := DamageFor(actor)
	target.ApplyDamage(dmg)

	actor.Presentation.PlayAttackAnimation()
	target.Presentation.PlayHitAnimation()
	target.Presentation.SetHealth(target.CurrentHealth)

	ev := EventAttack{
		Attacker:     actor.Ref(),
		Target:       target.Ref(),
		Damage:       dmg,
		TargetHealth: target.CurrentHealth,
	}
	r.logger.Info(ev.Text(),
		zap.String("attacker", actor.Name),
		zap.String("target", target.Name),
		zap.Int("damage", dmg),
		zap.Int("target_health", target.CurrentHealth),
	)
	r.emit(ev)

	res := Resolution{
		ActorID:        actor.ID,
		TargetID:       target.ID,
		DamageDealt:    dmg,
		TargetDefeated: target.IsDefeated(),
		TargetHealth:   target.CurrentHealth,
	}
	if res.TargetDefeated {
		r.scheduleDefeat(target.Ref())
	}
	return res, nil
}

// scheduleDefeat queues the announce step and, from it, the removal step.
func (r *Resolver) scheduleDefeat(ref BattlerRef) {
	r.scheduler.Next("announce defeat "+ref.Name, r.pacing.DamageDelay, func() {
		ev := EventDefeated{Battler: ref}
		r.logger.Info(ev.Text(), zap.String("battler", ref.Name), zap.Stringer("side", ref.Side))
		r.emit(ev)
		r.scheduler.Next("remove "+ref.Name, r.pacing.DefeatDelay, func() {
			if r.arena.Remove(ref.ID) {
				r.emit(EventRemoved{Battler: ref})
				r.onRemoved(ref)
			}
		})
	})
}

// Pacing holds the display delays between scheduled steps.
type Pacing struct {
	// TurnDelay separates consecutive battlers' resolutions.
	TurnDelay time.Duration
	// DamageDelay separates a damage event from its defeat announcement.
	DamageDelay time.Duration
	// DefeatDelay separates a defeat announcement from removal.
	DefeatDelay time.Duration
	// VictoryDelay separates the last hostile's removal from the win signal.
	VictoryDelay time.Duration
}
