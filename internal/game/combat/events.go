package combat

import "fmt"

// BattlerRef identifies a battler in event payloads. It stays meaningful
// after the battler has left the arena.
type BattlerRef struct {
	ID   BattlerID
	Name string
	Side Side
}

// Event is something observable that happened during an encounter.
// Listeners receive events synchronously in the order they occur.
type Event interface {
	EventType() string
}

// EventPhaseChanged is emitted on every phase transition.
type EventPhaseChanged struct {
	From Phase
	To   Phase
}

func (EventPhaseChanged) EventType() string { return "phase_changed" }

// EventAttack is emitted when an attack has been applied.
type EventAttack struct {
	Attacker BattlerRef
	Target   BattlerRef
	Damage   int
	// TargetHealth is the target's health after damage; it may be negative.
	TargetHealth int
}

func (EventAttack) EventType() string { return "attack" }

// Text renders the combat log line for the attack.
func (e EventAttack) Text() string {
	return fmt.Sprintf("%s attacked %s for %d damage.", e.Attacker.Name, e.Target.Name, e.Damage)
}

// EventDefeated is emitted after the damage delay once a battler reaches zero health.
type EventDefeated struct {
	Battler BattlerRef
}

func (EventDefeated) EventType() string { return "defeated" }

// Text renders the combat log line for the defeat.
func (e EventDefeated) Text() string {
	return fmt.Sprintf("%s was defeated.", e.Battler.Name)
}

// EventRemoved is emitted when a defeated battler leaves the arena.
type EventRemoved struct {
	Battler BattlerRef
}

func (EventRemoved) EventType() string { return "removed" }

// EventRetargeted is emitted when an attacker's target was replaced at resolution time.
type EventRetargeted struct {
	Attacker BattlerRef
	// Previous is empty when no target had been chosen.
	Previous BattlerID
	Target   BattlerRef
}

func (EventRetargeted) EventType() string { return "retargeted" }

// EventNotice carries a free-form message for the combat log.
type EventNotice struct {
	Message string
}

func (EventNotice) EventType() string { return "notice" }

// EventEncounterEnd is emitted exactly once when the encounter terminates.
type EventEncounterEnd struct {
	Outcome Outcome
}

func (EventEncounterEnd) EventType() string { return "encounter_end" }
