package engine

import (
	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// TurnKey identifies a turn by its attacker/guesser pairing. Reconcilers
// compare keys structurally each tick to decide whether local ephemeral
// input state must be reset (new turn) or preserved (same turn).
type TurnKey struct {
	AttackerID uuid.UUID
	GuesserID  uuid.UUID
}

// KeyOf extracts the turn key from a sub-document; zero key when nil.
func KeyOf(td *models.TurnData) TurnKey {
	if td == nil {
		return TurnKey{}
	}
	return TurnKey{AttackerID: td.AttackerID, GuesserID: td.CurrentGuesserID}
}

// IsZero reports whether the key belongs to "no turn yet".
func (k TurnKey) IsZero() bool {
	return k.AttackerID == uuid.Nil && k.GuesserID == uuid.Nil
}

func indexOf(order []uuid.UUID, id uuid.UUID) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return -1
}

// NextInOrder returns the player after `after` in the fixed rotation.
func NextInOrder(order []uuid.UUID, after uuid.UUID) uuid.UUID {
	idx := indexOf(order, after)
	if idx < 0 {
		return order[0]
	}
	return order[(idx+1)%len(order)]
}

// DefenderFor picks the defender for an attacker: the next distinct player
// after the attacker, skipping lastWinner when another candidate exists.
// With two players the sole candidate is taken even if they just won, so
// attacker != defender always holds.
func DefenderFor(order []uuid.UUID, attacker uuid.UUID, lastWinner *uuid.UUID) uuid.UUID {
	idx := indexOf(order, attacker)
	if idx < 0 {
		idx = 0
	}

	var fallback uuid.UUID
	for i := 1; i < len(order); i++ {
		c := order[(idx+i)%len(order)]
		if c == attacker {
			continue
		}
		if fallback == uuid.Nil {
			fallback = c
		}
		if lastWinner != nil && c == *lastWinner {
			continue
		}
		return c
	}
	return fallback
}

// NextPairing rotates to a brand-new turn. The attacker role always moves
// to the player after the current attacker (not after the winner).
func NextPairing(order []uuid.UUID, currentAttacker uuid.UUID, lastWinner *uuid.UUID) (attacker, defender uuid.UUID) {
	attacker = NextInOrder(order, currentAttacker)
	defender = DefenderFor(order, attacker, lastWinner)
	return attacker, defender
}

// TurnOutcome names the three ways a turn resolves. Score deltas are
// bounded to one +1 or one −1 per resolution.
type TurnOutcome string

const (
	// OutcomeGuesserWon: voting accepted the answer; guesser +1.
	OutcomeGuesserWon TurnOutcome = "guesser_won"
	// OutcomeAttackerWon: defender exhausted all attempts and no
	// challenger stepped up; attacker +1.
	OutcomeAttackerWon TurnOutcome = "attacker_won"
	// OutcomeAttackerLost: the challenger also failed, or the owner
	// forced the turn to end; attacker −1.
	OutcomeAttackerLost TurnOutcome = "attacker_lost"
)
