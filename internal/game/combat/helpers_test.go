package combat_test

import (
	"fmt"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

type staticParty []combat.StatBlock

func (p staticParty) CurrentParty() ([]combat.StatBlock, error) { return p, nil }

type staticEnemies []combat.StatBlock

func (e staticEnemies) CurrentEnemies() ([]combat.StatBlock, error) { return e, nil }

type failingProvider struct{ err error }

func (f failingProvider) CurrentParty() ([]combat.StatBlock, error)   { return nil, f.err }
func (f failingProvider) CurrentEnemies() ([]combat.StatBlock, error) { return nil, f.err }

// fixedSource returns queued values in order, then zeros.
type fixedSource struct {
	values []int
	calls  []int
}

func (s *fixedSource) Intn(n int) int {
	s.calls = append(s.calls, n)
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v % n
}

// recordingPresentation captures every call made by the engine.
type recordingPresentation struct {
	calls  []string
	health int
}

func (p *recordingPresentation) Initialize(maxHealth, currentHealth, level int) {
	p.health = currentHealth
	p.calls = append(p.calls, fmt.Sprintf("init %d/%d lvl %d", currentHealth, maxHealth, level))
}

func (p *recordingPresentation) SetHealth(currentHealth int) {
	p.health = currentHealth
	p.calls = append(p.calls, fmt.Sprintf("health %d", currentHealth))
}

func (p *recordingPresentation) PlayAttackAnimation() { p.calls = append(p.calls, "attack") }
func (p *recordingPresentation) PlayHitAnimation()    { p.calls = append(p.calls, "hit") }

// recordingSpawner hands out recordingPresentations keyed by template.
type recordingSpawner struct {
	spawned map[string]*recordingPresentation
	anchors []combat.Anchor
	fail    error
}

func newRecordingSpawner() *recordingSpawner {
	return &recordingSpawner{spawned: make(map[string]*recordingPresentation)}
}

func (s *recordingSpawner) Spawn(template string, anchor combat.Anchor, _ combat.Side) (combat.Presentation, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	p := &recordingPresentation{}
	s.spawned[template] = p
	s.anchors = append(s.anchors, anchor)
	return p, nil
}

func stat(name string, health, strength int) combat.StatBlock {
	return combat.StatBlock{
		Name:          name,
		CurrentHealth: health,
		MaxHealth:     health,
		Strength:      strength,
		Level:         1,
		Template:      name,
	}
}

func anchors(n int) []combat.Anchor {
	out := make([]combat.Anchor, n)
	for i := range out {
		out[i] = combat.Anchor{X: float64(i), Y: float64(i)}
	}
	return out
}

// sequentialIDs returns an IDFunc yielding "b0", "b1", ...
func sequentialIDs() combat.IDFunc {
	n := 0
	return func() combat.BattlerID {
		id := combat.BattlerID(fmt.Sprintf("b%d", n))
		n++
		return id
	}
}

// eventLog collects events for assertions.
type eventLog struct {
	events []combat.Event
}

func (l *eventLog) add(ev combat.Event) { l.events = append(l.events, ev) }

func (l *eventLog) types() []string {
	out := make([]string, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.EventType()
	}
	return out
}

func (l *eventLog) count(eventType string) int {
	n := 0
	for _, ev := range l.events {
		if ev.EventType() == eventType {
			n++
		}
	}
	return n
}
