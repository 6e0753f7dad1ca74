package combat

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Orchestrator drives one Battle-phase sweep: every battler's queued action
// is resolved in order through the scheduler, then the termination check runs.
type Orchestrator struct {
	arena     *Arena
	resolver  *Resolver
	scheduler *Scheduler
	pacing    Pacing
	logger    *zap.Logger
	tracer    trace.Tracer
	emit      func(Event)
}

// NewOrchestrator wires an orchestrator.
//
// Precondition: all arguments except emit must be non-nil.
func NewOrchestrator(arena *Arena, resolver *Resolver, scheduler *Scheduler, pacing Pacing, logger *zap.Logger, tracer trace.Tracer, emit func(Event)) *Orchestrator {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Orchestrator{
		arena:     arena,
		resolver:  resolver,
		scheduler: scheduler,
		pacing:    pacing,
		logger:    logger,
		tracer:    tracer,
		emit:      emit,
	}
}

// Sweep resolves each battler in order once, then evaluates the encounter.
// TurnDelay separates consecutive resolutions; battlers with nothing to do
// are passed over without a pause.
//
// Precondition: order holds IDs taken from the arena at sweep start.
// Postcondition: returns PhaseWon iff no hostile remains, else PhaseLost iff no
// player remains, else PhaseSelection. Battlers removed earlier in the sweep
// are skipped. Every surviving battler's intent is cleared. A configuration
// error stops the sweep and is returned with PhaseFailed.
func (o *Orchestrator) Sweep(ctx context.Context, order []BattlerID) (Phase, error) {
	var fatal error
	next := PhaseSelection

	acted := false
	for _, id := range order {
		id := id
		o.scheduler.Enqueue("turn "+string(id), 0, func() {
			if !o.willAct(id) {
				return
			}
			resolve := func() {
				if err := o.resolveOne(ctx, id); err != nil {
					fatal = err
					o.scheduler.Clear()
				}
			}
			if !acted {
				acted = true
				resolve()
				return
			}
			o.scheduler.Next("resolve "+string(id), o.pacing.TurnDelay, resolve)
		})
	}

	o.scheduler.Enqueue("evaluate", 0, func() {
		switch {
		case len(o.arena.Alive(SideHostile)) == 0:
			o.scheduler.Next("victory", o.pacing.VictoryDelay, func() { next = PhaseWon })
		case len(o.arena.Alive(SidePlayer)) == 0:
			next = PhaseLost
		default:
			next = PhaseSelection
		}
	})

	if _, err := o.scheduler.Drain(ctx); err != nil {
		return PhaseFailed, err
	}
	for _, b := range o.arena.All() {
		b.ClearIntent()
	}
	if fatal != nil {
		return PhaseFailed, fatal
	}
	return next, nil
}

// willAct reports whether id is still in the arena, alive, holding an action,
// and (for an attack) has someone left to hit. Only such battlers take a
// paced turn.
func (o *Orchestrator) willAct(id BattlerID) bool {
	actor, ok := o.arena.Get(id)
	if !ok || actor.IsDefeated() || actor.Action == ActionNone {
		return false
	}
	if actor.Action == ActionAttack {
		return len(o.arena.Alive(actor.Side().Opposite())) > 0
	}
	return true
}

// resolveOne resolves a single battler's action. Only configuration errors
// are returned; stale targets and exhausted sides are handled here.
func (o *Orchestrator) resolveOne(ctx context.Context, id BattlerID) error {
	actor, ok := o.arena.Get(id)
	if !ok || actor.IsDefeated() || actor.Action == ActionNone {
		return nil
	}

	_, span := o.tracer.Start(ctx, "encounter.resolve",
		trace.WithAttributes(
			attribute.String("battler", actor.Name),
			attribute.String("action", actor.Action.String()),
		),
	)
	defer span.End()

	res, err := o.resolver.Resolve(actor)
	switch {
	case err == nil:
		span.SetAttributes(
			attribute.Int("damage", res.DamageDealt),
			attribute.Bool("target_defeated", res.TargetDefeated),
		)
		return nil
	case errors.Is(err, ErrNoTarget):
		o.logger.Debug("no target left, skipping", zap.String("battler", actor.Name))
		return nil
	case errors.Is(err, ErrRunNotImplemented):
		o.logger.Warn("run action has no resolution", zap.String("battler", actor.Name))
		o.emit(EventNotice{Message: actor.Name + " tried to run, but cannot escape mid-battle."})
		return nil
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("resolution failed", zap.String("battler", actor.Name), zap.Error(err))
		return err
	}
}
