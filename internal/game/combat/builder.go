package combat

import (
	"fmt"

	"github.com/google/uuid"
)

// Anchor is a placement slot for a spawned presentation.
type Anchor struct {
	X float64
	Y float64
}

// Spawner creates the presentation counterpart of a battler at an anchor.
type Spawner interface {
	Spawn(template string, anchor Anchor, side Side) (Presentation, error)
}

// IDFunc produces battler IDs. The default generates random UUIDs.
type IDFunc func() BattlerID

func newUUID() BattlerID { return BattlerID(uuid.NewString()) }

// BuildRoster validates both rosters, spawns presentations, and adds the
// battlers to arena: party first, then enemies, each in roster order.
//
// Precondition: arena must be non-nil and empty.
// Postcondition: on success every battler has an initialized presentation
// placed on the anchor matching its roster position. On error the arena is
// left unchanged when the failure is detected before spawning.
func BuildRoster(arena *Arena, party, enemies []StatBlock, partyAnchors, enemyAnchors []Anchor, spawner Spawner, newID IDFunc) error {
	if len(party) > len(partyAnchors) {
		return fmt.Errorf("%w: %d party members, %d party anchors", ErrTooFewAnchors, len(party), len(partyAnchors))
	}
	if len(enemies) > len(enemyAnchors) {
		return fmt.Errorf("%w: %d enemies, %d enemy anchors", ErrTooFewAnchors, len(enemies), len(enemyAnchors))
	}
	for i, s := range party {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("party[%d]: %w", i, err)
		}
	}
	for i, s := range enemies {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("enemies[%d]: %w", i, err)
		}
	}
	if newID == nil {
		newID = newUUID
	}

	add := func(side Side, stats []StatBlock, anchors []Anchor) error {
		for i, s := range stats {
			b := NewBattler(newID(), side, s)
			if spawner != nil {
				p, err := spawner.Spawn(s.Template, anchors[i], side)
				if err != nil {
					return fmt.Errorf("%w: %s: %v", ErrSpawn, s.Name, err)
				}
				if p != nil {
					b.Presentation = p
				}
			}
			b.Presentation.Initialize(b.MaxHealth, b.CurrentHealth, b.Level)
			if err := arena.Add(b); err != nil {
				return err
			}
		}
		return nil
	}
	if err := add(SidePlayer, party, partyAnchors); err != nil {
		return err
	}
	return add(SideHostile, enemies, enemyAnchors)
}
