package combat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/battle/internal/game/combat"
	"github.com/cory-johannsen/battle/internal/observability"
)

var testPacing = combat.Pacing{
	TurnDelay:    100 * time.Millisecond,
	DamageDelay:  20 * time.Millisecond,
	DefeatDelay:  30 * time.Millisecond,
	VictoryDelay: 500 * time.Millisecond,
}

type harness struct {
	arena     *combat.Arena
	pacer     *recordingPacer
	scheduler *combat.Scheduler
	resolver  *combat.Resolver
	orch      *combat.Orchestrator
	log       *eventLog
	removed   []string
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T, src *fixedSource) *harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	h := &harness{
		arena: combat.NewArena(),
		pacer: &recordingPacer{},
		log:   &eventLog{},
		logs:  logs,
	}
	h.scheduler = combat.NewScheduler(h.pacer)
	tg := combat.NewTargeter(h.arena, src, logger, h.log.add)
	h.resolver = combat.NewResolver(h.arena, tg, h.scheduler, testPacing, logger, h.log.add, func(ref combat.BattlerRef) {
		h.removed = append(h.removed, ref.Name)
	})
	h.orch = combat.NewOrchestrator(h.arena, h.resolver, h.scheduler, testPacing, logger, observability.Tracer("test"), h.log.add)
	return h
}

func (h *harness) add(t *testing.T, id combat.BattlerID, side combat.Side, s combat.StatBlock) *combat.Battler {
	t.Helper()
	b := combat.NewBattler(id, side, s)
	p := &recordingPresentation{}
	b.Presentation = p
	require.NoError(t, h.arena.Add(b))
	return b
}

func TestResolver_AttackDealsStrength(t *testing.T) {
	h := newHarness(t, &fixedSource{})
	hero := h.add(t, "p", combat.SidePlayer, stat("Hero", 10, 5))
	slime := h.add(t, "h", combat.SideHostile, stat("Slime", 12, 1))
	require.NoError(t, combat.Queue(hero, combat.QueuedAction{Kind: combat.ActionAttack, Target: "h"}))

	res, err := h.resolver.Resolve(hero)
	require.NoError(t, err)
	assert.Equal(t, combat.Resolution{ActorID: "p", TargetID: "h", DamageDealt: 5, TargetHealth: 7}, res)
	assert.Equal(t, 7, slime.CurrentHealth)
	assert.Zero(t, h.scheduler.Pending(), "no defeat steps for a surviving target")

	assert.Equal(t, []string{"attack"}, hero.Presentation.(*recordingPresentation).calls)
	assert.Equal(t, []string{"hit", "health 7"}, slime.Presentation.(*recordingPresentation).calls)

	require.Len(t, h.log.events, 1)
	ev := h.log.events[0].(combat.EventAttack)
	assert.Equal(t, "Hero attacked Slime for 5 damage.", ev.Text())
}

func TestResolver_DefeatSchedulesAnnounceThenRemoval(t *testing.T) {
	h := newHarness(t, &fixedSource{})
	hero := h.add(t, "p", combat.SidePlayer, stat("Hero", 10, 5))
	h.add(t, "h", combat.SideHostile, stat("Slime", 4, 1))
	require.NoError(t, combat.Queue(hero, combat.QueuedAction{Kind: combat.ActionAttack, Target: "h"}))

	res, err := h.resolver.Resolve(hero)
	require.NoError(t, err)
	assert.True(t, res.TargetDefeated)
	assert.Equal(t, -1, res.TargetHealth)

	_, present := h.arena.Get("h")
	assert.True(t, present, "removal waits for the defeat announcement")

	_, err = h.scheduler.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"attack", "defeated", "removed"}, h.log.types())
	assert.Equal(t, []time.Duration{testPacing.DamageDelay, testPacing.DefeatDelay}, h.pacer.waits)
	_, present = h.arena.Get("h")
	assert.False(t, present)
	assert.Empty(t, h.arena.Side(combat.SideHostile))
	assert.Equal(t, []string{"Slime"}, h.removed)
}

func TestResolver_RunIsReported(t *testing.T) {
	h := newHarness(t, &fixedSource{})
	hero := h.add(t, "p", combat.SidePlayer, stat("Hero", 10, 5))
	hero.Action = combat.ActionRun
	_, err := h.resolver.Resolve(hero)
	assert.ErrorIs(t, err, combat.ErrRunNotImplemented)
}

func TestResolver_UnknownAction(t *testing.T) {
	h := newHarness(t, &fixedSource{})
	hero := h.add(t, "p", combat.SidePlayer, stat("Hero", 10, 5))
	hero.Action = combat.ActionKind(42)
	_, err := h.resolver.Resolve(hero)
	assert.ErrorIs(t, err, combat.ErrUnknownAction)
}

func TestResolver_NoTarget(t *testing.T) {
	h := newHarness(t, &fixedSource{})
	hero := h.add(t, "p", combat.SidePlayer, stat("Hero", 10, 5))
	hero.Action = combat.ActionAttack
	_, err := h.resolver.Resolve(hero)
	assert.ErrorIs(t, err, combat.ErrNoTarget)
}

func TestPropertyResolver_DamageIsExactlyStrength(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(t, &fixedSource{})
		strength := rapid.IntRange(0, 1000).Draw(rt, "strength")
		maxHealth := rapid.IntRange(1, 1000).Draw(rt, "max")
		current := rapid.IntRange(0, maxHealth).Draw(rt, "current")

		attacker := combat.NewBattler("a", combat.SidePlayer, stat("A", 1, strength))
		target := combat.NewBattler("t", combat.SideHostile, combat.StatBlock{Name: "T", CurrentHealth: current, MaxHealth: maxHealth})
		// A target at 0 health would be repaired away, so give it a nonzero start.
		if current == 0 {
			target.CurrentHealth = 1
		}
		before := target.CurrentHealth
		if err := h.arena.Add(attacker); err != nil {
			rt.Fatal(err)
		}
		if err := h.arena.Add(target); err != nil {
			rt.Fatal(err)
		}
		attacker.Action = combat.ActionAttack
		attacker.Target = "t"

		res, err := h.resolver.Resolve(attacker)
		if err != nil {
			rt.Fatal(err)
		}
		if target.CurrentHealth != before-strength {
			rt.Fatalf("health %d, want %d", target.CurrentHealth, before-strength)
		}
		if res.TargetDefeated != (target.CurrentHealth <= 0) {
			rt.Fatalf("defeated flag %v with health %d", res.TargetDefeated, target.CurrentHealth)
		}
	})
}
