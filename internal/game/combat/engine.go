package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/battle/internal/game/dice"
	"github.com/cory-johannsen/battle/internal/observability"
)

// Phase is the encounter's top-level state.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseSelection
	PhaseBattle
	PhaseWon
	PhaseLost
	PhaseRun
	// PhaseFailed is the safe terminal state entered after a configuration error.
	PhaseFailed
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseSelection:
		return "selection"
	case PhaseBattle:
		return "battle"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	case PhaseRun:
		return "run"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible from p.
func (p Phase) Terminal() bool {
	return p == PhaseWon || p == PhaseLost || p == PhaseRun || p == PhaseFailed
}

// PartyProvider supplies the party roster at encounter start.
type PartyProvider interface {
	CurrentParty() ([]StatBlock, error)
}

// EnemyProvider supplies the hostile roster at encounter start.
type EnemyProvider interface {
	CurrentEnemies() ([]StatBlock, error)
}

// Options configures an Encounter. Party and Enemies are required; every
// other field has a default.
type Options struct {
	Party        PartyProvider
	Enemies      EnemyProvider
	PartyAnchors []Anchor
	EnemyAnchors []Anchor
	// Spawner creates presentations; nil leaves every battler with a no-op sink.
	Spawner Spawner
	// Source drives random targeting; defaults to a crypto-backed source.
	Source dice.Source
	// Pacer waits out Pacing delays; defaults to SleepPacer.
	Pacer     Pacer
	Pacing    Pacing
	Policy    HostilePolicy
	TurnOrder TurnOrder
	Logger    *zap.Logger
	// OnEnd is invoked exactly once when the encounter reaches a terminal phase.
	OnEnd func(Outcome)
	// Listener receives every event synchronously.
	Listener func(Event)
	NewID    IDFunc
	Clock    func() time.Time
}

// Encounter is the phase state machine for one battle. It is driven by a
// single caller: every method runs to completion, including any paced
// Battle-phase sweep, before returning. Encounter is not safe for concurrent use.
type Encounter struct {
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer

	arena        *Arena
	scheduler    *Scheduler
	targeter     *Targeter
	orchestrator *Orchestrator

	phase    Phase
	selector int
	round    int
	err      error
	ended    bool
	outcome  Outcome

	id        uuid.UUID
	party     []string
	hostiles  []string
	defeated  []string
	startedAt time.Time
	endedAt   time.Time
}

// NewEncounter builds an encounter in PhaseStart.
//
// Precondition: opts.Party and opts.Enemies must be non-nil.
// Postcondition: Phase() == PhaseStart.
func NewEncounter(opts Options) (*Encounter, error) {
	if opts.Party == nil || opts.Enemies == nil {
		return nil, errors.New("party and enemy providers are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Source == nil {
		opts.Source = dice.NewCryptoSource()
	}
	if opts.Pacer == nil {
		opts.Pacer = SleepPacer{}
	}
	if opts.Policy == nil {
		opts.Policy = IdlePolicy{}
	}
	if opts.NewID == nil {
		opts.NewID = newUUID
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	e := &Encounter{
		opts:   opts,
		logger: opts.Logger,
		tracer: observability.Tracer("combat"),
		arena:  NewArena(),
		id:     uuid.New(),
	}
	e.scheduler = NewScheduler(opts.Pacer)
	e.scheduler.OnStep(func(label string) {
		e.logger.Debug("step", zap.String("label", label))
	})
	e.targeter = NewTargeter(e.arena, opts.Source, e.logger, e.emit)
	resolver := NewResolver(e.arena, e.targeter, e.scheduler, opts.Pacing, e.logger, e.emit, func(ref BattlerRef) {
		e.defeated = append(e.defeated, ref.Name)
	})
	e.orchestrator = NewOrchestrator(e.arena, resolver, e.scheduler, opts.Pacing, e.logger, e.tracer, e.emit)
	return e, nil
}

// ID returns the encounter's report identifier.
func (e *Encounter) ID() uuid.UUID { return e.id }

// Phase returns the current phase.
func (e *Encounter) Phase() Phase { return e.phase }

// Round returns the 1-based round number, or 0 before Start.
func (e *Encounter) Round() int { return e.round }

// Err returns the error that drove the encounter into PhaseFailed, if any.
func (e *Encounter) Err() error { return e.err }

// Arena exposes the battler roster for rendering.
func (e *Encounter) Arena() *Arena { return e.arena }

// Start builds the roster from the providers and opens the first Selection.
// A side that is empty from the outset ends the encounter immediately.
//
// Precondition: Phase() == PhaseStart.
// Postcondition: Phase() is PhaseSelection, a terminal phase, or PhaseFailed
// with the roster error returned.
func (e *Encounter) Start(ctx context.Context) error {
	if e.phase != PhaseStart {
		return fmt.Errorf("start in %s: %w", e.phase, ErrWrongPhase)
	}
	_, span := e.tracer.Start(ctx, "encounter.start", trace.WithAttributes(attribute.String("encounter_id", e.id.String())))
	defer span.End()

	e.startedAt = e.opts.Clock()
	party, err := e.opts.Party.CurrentParty()
	if err != nil {
		return e.failSpan(span, fmt.Errorf("loading party: %w", err))
	}
	enemies, err := e.opts.Enemies.CurrentEnemies()
	if err != nil {
		return e.failSpan(span, fmt.Errorf("loading enemies: %w", err))
	}
	if err := BuildRoster(e.arena, party, enemies, e.opts.PartyAnchors, e.opts.EnemyAnchors, e.opts.Spawner, e.opts.NewID); err != nil {
		return e.failSpan(span, fmt.Errorf("building roster: %w", err))
	}
	for _, b := range e.arena.Side(SidePlayer) {
		e.party = append(e.party, b.Name)
	}
	for _, b := range e.arena.Side(SideHostile) {
		e.hostiles = append(e.hostiles, b.Name)
	}
	e.removeFallen()
	span.SetAttributes(
		attribute.Int("party", len(e.party)),
		attribute.Int("hostiles", len(e.hostiles)),
		attribute.Int("active", e.arena.Len()),
	)
	e.logger.Info("encounter started",
		zap.String("encounter_id", e.id.String()),
		zap.Strings("party", e.party),
		zap.Strings("hostiles", e.hostiles),
		zap.Strings("fallen", e.defeated),
	)

	switch {
	case len(e.arena.Alive(SideHostile)) == 0:
		e.terminate(ctx, PhaseWon, OutcomeWon)
	case len(e.arena.Alive(SidePlayer)) == 0:
		e.terminate(ctx, PhaseLost, OutcomeLost)
	default:
		e.round = 1
		e.openSelection()
	}
	return nil
}

// CurrentActingPlayerName returns the name of the party member choosing an
// action, or "" outside Selection.
func (e *Encounter) CurrentActingPlayerName() string {
	if b := e.currentSelector(); b != nil {
		return b.Name
	}
	return ""
}

// CurrentActingPlayerID returns the ID of the party member choosing an
// action, or "" outside Selection. Names are not unique; use this to
// identify the selector.
func (e *Encounter) CurrentActingPlayerID() BattlerID {
	if b := e.currentSelector(); b != nil {
		return b.ID
	}
	return ""
}

// AliveHostileNames returns the living hostiles' names in roster order. The
// index of a name is the index SubmitAttack accepts.
func (e *Encounter) AliveHostileNames() []string {
	alive := e.arena.Alive(SideHostile)
	names := make([]string, len(alive))
	for i, b := range alive {
		names[i] = b.Name
	}
	return names
}

// SubmitAttack queues an attack by the current selector against the
// hostileIndex-th living hostile. When every living party member has
// submitted, the Battle phase runs to completion before SubmitAttack returns.
//
// Precondition: Phase() == PhaseSelection.
// Postcondition: on ErrInvalidTarget or ErrWrongPhase nothing changes.
func (e *Encounter) SubmitAttack(ctx context.Context, hostileIndex int) error {
	if e.phase != PhaseSelection {
		return fmt.Errorf("submit attack in %s: %w", e.phase, ErrWrongPhase)
	}
	hostiles := e.arena.Alive(SideHostile)
	if hostileIndex < 0 || hostileIndex >= len(hostiles) {
		return fmt.Errorf("%w: hostile index %d of %d", ErrInvalidTarget, hostileIndex, len(hostiles))
	}
	actor := e.currentSelector()
	if actor == nil {
		return fmt.Errorf("submit attack with no acting player: %w", ErrWrongPhase)
	}
	if err := e.targeter.SelectManual(actor.ID, hostiles[hostileIndex].ID); err != nil {
		return err
	}
	if err := Queue(actor, QueuedAction{Kind: ActionAttack, Target: actor.Target}); err != nil {
		return err
	}
	e.logger.Debug("action queued",
		zap.String("battler", actor.Name),
		zap.String("target", hostiles[hostileIndex].Name),
	)

	e.selector++
	if e.selector < len(e.arena.Alive(SidePlayer)) {
		return nil
	}
	return e.runBattle(ctx)
}

// SubmitRun abandons the encounter from Selection without entering Battle.
//
// Precondition: Phase() == PhaseSelection.
// Postcondition: Phase() == PhaseRun and OnEnd received OutcomeRun.
func (e *Encounter) SubmitRun(ctx context.Context) error {
	if e.phase != PhaseSelection {
		return fmt.Errorf("run in %s: %w", e.phase, ErrWrongPhase)
	}
	if actor := e.currentSelector(); actor != nil {
		e.logger.Info("party ran", zap.String("battler", actor.Name))
	}
	e.terminate(ctx, PhaseRun, OutcomeRun)
	return nil
}

// SelectTarget records a manual target for the battler at roster position
// actorIndex. Both indices address the full roster.
//
// Precondition: Phase() == PhaseSelection.
// Postcondition: returns requestedIndex on success; ErrInvalidTarget when the
// target is missing, defeated, or on the actor's own side.
func (e *Encounter) SelectTarget(actorIndex, requestedIndex int) (int, error) {
	if e.phase != PhaseSelection {
		return -1, fmt.Errorf("select target in %s: %w", e.phase, ErrWrongPhase)
	}
	actor, ok := e.arena.At(actorIndex)
	if !ok {
		return -1, fmt.Errorf("%w: actor index %d", ErrInvalidTarget, actorIndex)
	}
	target, ok := e.arena.At(requestedIndex)
	if !ok {
		return -1, fmt.Errorf("%w: target index %d", ErrInvalidTarget, requestedIndex)
	}
	if err := e.targeter.SelectManual(actor.ID, target.ID); err != nil {
		return -1, err
	}
	return requestedIndex, nil
}

// Report summarizes the encounter.
//
// Postcondition: ok is false until the encounter has ended.
func (e *Encounter) Report() (Report, bool) {
	if !e.ended {
		return Report{}, false
	}
	r := Report{
		ID:        e.id,
		Outcome:   e.outcome,
		Rounds:    e.round,
		Party:     append([]string(nil), e.party...),
		Hostiles:  append([]string(nil), e.hostiles...),
		Defeated:  append([]string(nil), e.defeated...),
		StartedAt: e.startedAt,
		EndedAt:   e.endedAt,
	}
	for _, b := range e.arena.All() {
		r.Survivors = append(r.Survivors, b.Name)
	}
	if e.err != nil {
		r.Failure = e.err.Error()
	}
	return r, true
}

func (e *Encounter) currentSelector() *Battler {
	if e.phase != PhaseSelection {
		return nil
	}
	players := e.arena.Alive(SidePlayer)
	if e.selector >= len(players) {
		return nil
	}
	return players[e.selector]
}

// removeFallen drops battlers that entered the encounter already at zero
// health. They count as defeated and never act or take a selection slot.
func (e *Encounter) removeFallen() {
	for _, b := range e.arena.All() {
		if !b.IsDefeated() {
			continue
		}
		ref := b.Ref()
		e.arena.Remove(b.ID)
		e.defeated = append(e.defeated, ref.Name)
		e.logger.Debug("battler entered defeated", zap.String("battler", ref.Name), zap.Stringer("side", ref.Side))
		e.emit(EventRemoved{Battler: ref})
	}
}

func (e *Encounter) openSelection() {
	e.selector = 0
	e.setPhase(PhaseSelection)
}

func (e *Encounter) runBattle(ctx context.Context) error {
	e.setPhase(PhaseBattle)
	sweepCtx, span := e.tracer.Start(ctx, "encounter.sweep", trace.WithAttributes(attribute.Int("round", e.round)))
	defer span.End()

	opponents := e.arena.Alive(SidePlayer)
	for _, h := range e.arena.Alive(SideHostile) {
		kind, target := e.opts.Policy.Choose(h, opponents)
		if kind == ActionNone {
			continue
		}
		if err := Queue(h, QueuedAction{Kind: kind, Target: target}); err != nil {
			return e.failSpan(span, err)
		}
	}

	next, err := e.orchestrator.Sweep(sweepCtx, SweepOrder(e.arena, e.opts.TurnOrder))
	if err != nil {
		return e.failSpan(span, fmt.Errorf("round %d: %w", e.round, err))
	}
	span.SetAttributes(attribute.String("next", next.String()))

	switch next {
	case PhaseWon:
		e.terminate(ctx, PhaseWon, OutcomeWon)
	case PhaseLost:
		e.terminate(ctx, PhaseLost, OutcomeLost)
	default:
		e.round++
		e.openSelection()
	}
	return nil
}

func (e *Encounter) failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.fail(err)
	return err
}

// fail logs err and moves to the safe terminal state.
func (e *Encounter) fail(err error) {
	e.logger.Error("encounter failed",
		zap.String("encounter_id", e.id.String()),
		zap.Stringer("phase", e.phase),
		zap.Error(err),
	)
	e.err = err
	e.scheduler.Clear()
	e.terminate(context.Background(), PhaseFailed, OutcomeRun)
}

// terminate enters a terminal phase and notifies the caller once.
func (e *Encounter) terminate(ctx context.Context, phase Phase, outcome Outcome) {
	if e.ended {
		return
	}
	_, span := e.tracer.Start(ctx, "encounter.end", trace.WithAttributes(attribute.String("outcome", outcome.String())))
	defer span.End()

	e.ended = true
	e.outcome = outcome
	e.endedAt = e.opts.Clock()
	e.setPhase(phase)
	e.logger.Info("encounter ended",
		zap.String("encounter_id", e.id.String()),
		zap.Stringer("outcome", outcome),
		zap.Int("rounds", e.round),
	)
	e.emit(EventEncounterEnd{Outcome: outcome})
	if e.opts.OnEnd != nil {
		e.opts.OnEnd(outcome)
	}
}

func (e *Encounter) setPhase(p Phase) {
	if p == e.phase {
		return
	}
	from := e.phase
	e.phase = p
	e.emit(EventPhaseChanged{From: from, To: p})
}

func (e *Encounter) emit(ev Event) {
	if e.opts.Listener != nil {
		e.opts.Listener(ev)
	}
}
