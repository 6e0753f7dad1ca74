package combat

import (
	"errors"
	"fmt"
)

// ActionKind identifies what a battler intends to do this round.
// The zero value (ActionNone) means no action is queued.
type ActionKind int

const (
	ActionNone ActionKind = iota // nothing queued; the battler sits out the sweep
	ActionAttack
	ActionRun
)

// String returns the human-readable name of the ActionKind.
// Postcondition: returns "none", "attack", "run", or "unknown".
func (a ActionKind) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAttack:
		return "attack"
	case ActionRun:
		return "run"
	default:
		return "unknown"
	}
}

// ErrNoAction is returned when queuing ActionNone.
var ErrNoAction = errors.New("no action to queue")

// QueuedAction is one battler's intent for the current round.
type QueuedAction struct {
	Kind ActionKind
	// Target is empty when the target is left to resolution-time targeting.
	Target BattlerID
}

// Queue records a on b, replacing any earlier intent for this round.
//
// Precondition: b is non-nil.
// Postcondition: on success b.Action == a.Kind and b.Target == a.Target;
// on error b is unchanged.
func Queue(b *Battler, a QueuedAction) error {
	if a.Kind == ActionNone {
		return fmt.Errorf("queue for %s: %w", b.Name, ErrNoAction)
	}
	b.Action = a.Kind
	b.Target = a.Target
	return nil
}
