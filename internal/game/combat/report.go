package combat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal result handed back to the caller.
type Outcome int

const (
	OutcomeWon Outcome = iota
	OutcomeLost
	OutcomeRun
)

// String returns "won", "lost" or "run".
func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	case OutcomeRun:
		return "run"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "won":
		return OutcomeWon, nil
	case "lost":
		return OutcomeLost, nil
	case "run":
		return OutcomeRun, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// Report summarizes a finished encounter.
type Report struct {
	ID       uuid.UUID
	Outcome  Outcome
	Rounds   int
	Party    []string
	Hostiles []string
	// Survivors are the battlers of either side still in the arena at the end.
	Survivors []string
	// Defeated lists removed battlers in removal order.
	Defeated  []string
	StartedAt time.Time
	EndedAt   time.Time
	// Failure holds the error text when the encounter ended in PhaseFailed.
	Failure string
}

// Duration returns EndedAt - StartedAt.
func (r Report) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
