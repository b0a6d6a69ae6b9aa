package engine

import "errors"

var (
	// ErrInvalidPhase means the requested action is not legal in the
	// session's current phase.
	ErrInvalidPhase = errors.New("action not valid in current phase")

	// ErrNotEligible means this player may not perform the action
	// (e.g. the current guesser voting on their own answer).
	ErrNotEligible = errors.New("player not eligible for this action")

	// ErrNoActiveTurn means the document carries no turn sub-document yet.
	ErrNoActiveTurn = errors.New("no active turn")

	// ErrTooFewPlayers means the session cannot produce a valid
	// attacker/defender pairing.
	ErrTooFewPlayers = errors.New("session requires at least two players")
)
