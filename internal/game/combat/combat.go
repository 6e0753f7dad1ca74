// Package combat implements the turn-based encounter engine: the battler
// model, targeting, attack resolution, the round sweep, and the encounter
// phase state machine.
package combat

import (
	"errors"
	"fmt"
)

// Side partitions battlers into the player party and the hostile group.
type Side int

const (
	SidePlayer Side = iota
	SideHostile
)

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideHostile:
		return "hostile"
	default:
		return "unknown"
	}
}

// Opposite returns the side a battler on s may target.
func (s Side) Opposite() Side {
	if s == SidePlayer {
		return SideHostile
	}
	return SidePlayer
}

// BattlerID identifies a battler for the lifetime of an encounter. IDs stay
// valid after other battlers are removed, unlike roster positions.
type BattlerID string

// ErrInvalidStatBlock is returned when a roster record violates the vitals invariants.
var ErrInvalidStatBlock = errors.New("invalid stat block")

// StatBlock is one roster record handed to the engine by a roster provider.
type StatBlock struct {
	Name          string
	CurrentHealth int
	MaxHealth     int
	Initiative    int
	Strength      int
	Level         int
	// Template names the presentation counterpart to spawn for this battler.
	Template string
}

// Validate checks the vitals invariants.
//
// Postcondition: Returns nil iff Name is non-empty, MaxHealth > 0 and
// 0 <= CurrentHealth <= MaxHealth; otherwise an error wrapping ErrInvalidStatBlock.
func (s StatBlock) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidStatBlock)
	}
	if s.MaxHealth <= 0 {
		return fmt.Errorf("%w: %s: max health must be > 0, got %d", ErrInvalidStatBlock, s.Name, s.MaxHealth)
	}
	if s.CurrentHealth < 0 || s.CurrentHealth > s.MaxHealth {
		return fmt.Errorf("%w: %s: current health %d outside [0, %d]", ErrInvalidStatBlock, s.Name, s.CurrentHealth, s.MaxHealth)
	}
	return nil
}

// Presentation is the rendering counterpart of one battler. The engine only
// calls into it; destruction on defeat is the implementation's concern.
type Presentation interface {
	Initialize(maxHealth, currentHealth, level int)
	SetHealth(currentHealth int)
	PlayAttackAnimation()
	PlayHitAnimation()
}

type noopPresentation struct{}

func (noopPresentation) Initialize(int, int, int) {}
func (noopPresentation) SetHealth(int)            {}
func (noopPresentation) PlayAttackAnimation()     {}
func (noopPresentation) PlayHitAnimation()        {}

// Battler is one combatant for the duration of one encounter.
type Battler struct {
	ID            BattlerID
	Name          string
	CurrentHealth int
	MaxHealth     int
	Strength      int
	// Initiative is carried from the roster; it orders the sweep only when
	// initiative ordering is enabled.
	Initiative int
	Level      int
	// Action and Target are the pending intent for the current round.
	Action ActionKind
	Target BattlerID
	// Presentation is never nil once the battler is built.
	Presentation Presentation

	side Side
}

// NewBattler creates a battler on side from a roster record.
//
// Precondition: stats must pass Validate.
// Postcondition: Side() == side; Action == ActionNone; Presentation is a no-op sink.
func NewBattler(id BattlerID, side Side, stats StatBlock) *Battler {
	return &Battler{
		ID:            id,
		Name:          stats.Name,
		CurrentHealth: stats.CurrentHealth,
		MaxHealth:     stats.MaxHealth,
		Strength:      stats.Strength,
		Initiative:    stats.Initiative,
		Level:         stats.Level,
		Presentation:  noopPresentation{},
		side:          side,
	}
}

// Side returns the battler's side. It never changes after creation.
func (b *Battler) Side() Side { return b.side }

// IsPlayer reports whether the battler belongs to the party.
func (b *Battler) IsPlayer() bool { return b.side == SidePlayer }

// IsDefeated reports whether the battler's health has reached zero or below.
func (b *Battler) IsDefeated() bool { return b.CurrentHealth <= 0 }

// ApplyDamage reduces CurrentHealth by amount. No floor is applied, so health
// may become negative.
//
// Postcondition: CurrentHealth == old CurrentHealth - amount.
func (b *Battler) ApplyDamage(amount int) {
	b.CurrentHealth -= amount
}

// ClearIntent drops the pending action and target.
func (b *Battler) ClearIntent() {
	b.Action = ActionNone
	b.Target = ""
}

// Ref returns the identity triple used in event payloads.
func (b *Battler) Ref() BattlerRef {
	return BattlerRef{ID: b.ID, Name: b.Name, Side: b.side}
}
