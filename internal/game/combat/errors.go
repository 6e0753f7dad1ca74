package combat

import "errors"

var (
	// ErrWrongPhase is returned when an operation is invoked outside the phase that permits it.
	ErrWrongPhase = errors.New("operation not allowed in current phase")
	// ErrInvalidTarget is returned when a requested target is absent, defeated, or on the actor's own side.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrTooFewAnchors is returned when a side has more battlers than placement anchors.
	ErrTooFewAnchors = errors.New("not enough anchors for roster")
	// ErrUnknownAction is returned when a battler's queued action has no resolver.
	ErrUnknownAction = errors.New("unknown action")
	// ErrRunNotImplemented is returned when a queued run action reaches resolution.
	ErrRunNotImplemented = errors.New("run action is not implemented")
	// ErrNoTarget is returned when an attack finds no living opponent to hit.
	ErrNoTarget = errors.New("no living target on opposite side")
	// ErrSpawn wraps presentation spawn failures.
	ErrSpawn = errors.New("spawn presentation")
)
