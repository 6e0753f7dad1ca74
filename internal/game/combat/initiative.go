package combat

import (
	"fmt"
	"sort"
)

// TurnOrder selects how a sweep orders its battlers.
type TurnOrder int

const (
	// OrderRoster resolves battlers in roster order: party first, then hostiles.
	OrderRoster TurnOrder = iota
	// OrderInitiative resolves battlers by descending initiative, ties kept in roster order.
	OrderInitiative
)

// String returns the configuration value for o.
func (o TurnOrder) String() string {
	if o == OrderInitiative {
		return "initiative"
	}
	return "roster"
}

// ParseTurnOrder maps a configuration value to a TurnOrder.
//
// Postcondition: Returns an error for anything other than "roster" or "initiative".
func ParseTurnOrder(s string) (TurnOrder, error) {
	switch s {
	case "", "roster":
		return OrderRoster, nil
	case "initiative":
		return OrderInitiative, nil
	default:
		return OrderRoster, fmt.Errorf("unknown turn order %q", s)
	}
}

// SweepOrder returns the IDs to resolve this sweep.
//
// Postcondition: the result is a permutation of arena.Snapshot().
func SweepOrder(arena *Arena, order TurnOrder) []BattlerID {
	if order != OrderInitiative {
		return arena.Snapshot()
	}
	battlers := arena.All()
	sort.SliceStable(battlers, func(i, j int) bool {
		return battlers[i].Initiative > battlers[j].Initiative
	})
	ids := make([]BattlerID, len(battlers))
	for i, b := range battlers {
		ids[i] = b.ID
	}
	return ids
}
