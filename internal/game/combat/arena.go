package combat

import (
	"errors"
	"fmt"
)

// ErrDuplicateBattler is returned when adding a battler whose ID is already present.
var ErrDuplicateBattler = errors.New("duplicate battler id")

// Arena owns the active battlers of one encounter. Battlers are addressed by
// BattlerID; the side views are derived from the single roster so a removal
// is reflected everywhere at once.
type Arena struct {
	order    []BattlerID
	battlers map[BattlerID]*Battler
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{battlers: make(map[BattlerID]*Battler)}
}

// Add appends b to the roster order.
//
// Precondition: b is non-nil.
// Postcondition: b is last in All() and in its side view, or ErrDuplicateBattler is returned.
func (a *Arena) Add(b *Battler) error {
	if _, exists := a.battlers[b.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBattler, b.ID)
	}
	a.order = append(a.order, b.ID)
	a.battlers[b.ID] = b
	return nil
}

// Get returns the battler with id, if it is still in the arena.
func (a *Arena) Get(id BattlerID) (*Battler, bool) {
	b, ok := a.battlers[id]
	return b, ok
}

// Remove drops id from the roster and from its side view.
//
// Postcondition: Get(id) reports false. Returns false if id was not present.
func (a *Arena) Remove(id BattlerID) bool {
	if _, ok := a.battlers[id]; !ok {
		return false
	}
	delete(a.battlers, id)
	for i, other := range a.order {
		if other == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of battlers in the arena.
func (a *Arena) Len() int { return len(a.order) }

// Snapshot returns a copy of the roster order. Holding a snapshot while
// battlers are removed is safe; look each ID up with Get before use.
func (a *Arena) Snapshot() []BattlerID {
	out := make([]BattlerID, len(a.order))
	copy(out, a.order)
	return out
}

// All returns the battlers in roster order.
func (a *Arena) All() []*Battler {
	out := make([]*Battler, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.battlers[id])
	}
	return out
}

// At returns the battler at roster position i.
func (a *Arena) At(i int) (*Battler, bool) {
	if i < 0 || i >= len(a.order) {
		return nil, false
	}
	return a.battlers[a.order[i]], true
}

// Side returns the side view: battlers on s in roster order.
func (a *Arena) Side(s Side) []*Battler {
	var out []*Battler
	for _, id := range a.order {
		if b := a.battlers[id]; b.Side() == s {
			out = append(out, b)
		}
	}
	return out
}

// Alive returns the battlers on s that are not defeated, in roster order.
// A defeated battler stays in Side(s) until its removal step runs.
func (a *Arena) Alive(s Side) []*Battler {
	var out []*Battler
	for _, id := range a.order {
		if b := a.battlers[id]; b.Side() == s && !b.IsDefeated() {
			out = append(out, b)
		}
	}
	return out
}
