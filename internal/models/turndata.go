package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Vote is a single accept/reject decision.
type Vote string

const (
	VoteAccept Vote = "accept"
	VoteReject Vote = "reject"
)

// Guess is one submitted answer. Guesses are keyed by player id in
// TurnData so concurrent submitters cannot clobber each other.
type Guess struct {
	ID          uuid.UUID `json:"id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Challenge registers a player's interest in guessing after the defender
// exhausts all attempts. First registered, first served.
type Challenge struct {
	PlayerID     uuid.UUID `json:"player_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// TurnData is the per-turn sub-document. The owner replaces it wholesale
// at the start of each turn and attempt; any client may merge its own
// guess, challenge or vote into it by player id.
//
// Invariants: AttackerID != CurrentGuesserID; Guesses are cleared at the
// start of every attempt; Challenges persist across attempts within one
// turn and are cleared when the turn ends.
type TurnData struct {
	AttackerID       uuid.UUID               `json:"attacker_id"`
	DefenderID       uuid.UUID               `json:"defender_id"`
	CurrentGuesserID uuid.UUID               `json:"current_guesser_id"`
	CurrentSong      *SongRef                `json:"current_song,omitempty"`
	Guesses          map[uuid.UUID]Guess     `json:"guesses,omitempty"`
	Challenges       map[uuid.UUID]Challenge `json:"challenges,omitempty"`
	Votes            map[uuid.UUID]Vote      `json:"voting_results,omitempty"`
	VotingCompleted  bool                    `json:"voting_completed"`
	FailedAttempts   int                     `json:"failed_attempts"`
	ChallengerPhase  bool                    `json:"is_in_challenger_phase"`
}

// NewTurnData builds a fresh sub-document for an attacker/defender pairing.
// The defender starts as current guesser; a challenger may take over later.
func NewTurnData(attackerID, defenderID uuid.UUID, song *SongRef) *TurnData {
	return &TurnData{
		AttackerID:       attackerID,
		DefenderID:       defenderID,
		CurrentGuesserID: defenderID,
		CurrentSong:      song,
		Guesses:          map[uuid.UUID]Guess{},
		Challenges:       map[uuid.UUID]Challenge{},
		Votes:            map[uuid.UUID]Vote{},
	}
}

// Clone returns a deep copy of the sub-document.
func (t *TurnData) Clone() *TurnData {
	if t == nil {
		return nil
	}
	out := *t
	if t.CurrentSong != nil {
		song := *t.CurrentSong
		out.CurrentSong = &song
	}
	out.Guesses = make(map[uuid.UUID]Guess, len(t.Guesses))
	for k, v := range t.Guesses {
		out.Guesses[k] = v
	}
	out.Challenges = make(map[uuid.UUID]Challenge, len(t.Challenges))
	for k, v := range t.Challenges {
		out.Challenges[k] = v
	}
	out.Votes = make(map[uuid.UUID]Vote, len(t.Votes))
	for k, v := range t.Votes {
		out.Votes[k] = v
	}
	return &out
}

// OrderedGuesses returns guesses sorted by submission time.
func (t *TurnData) OrderedGuesses() []Guess {
	out := make([]Guess, 0, len(t.Guesses))
	for _, g := range t.Guesses {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

// FirstChallenger returns the earliest-registered challenger, if any.
func (t *TurnData) FirstChallenger() (uuid.UUID, bool) {
	var (
		best  Challenge
		found bool
	)
	for _, c := range t.Challenges {
		switch {
		case !found:
			best, found = c, true
		case c.RegisteredAt.Before(best.RegisteredAt):
			best = c
		case c.RegisteredAt.Equal(best.RegisteredAt) && c.PlayerID.String() < best.PlayerID.String():
			// deterministic tie-break
			best = c
		}
	}
	return best.PlayerID, found
}

// HasGuess reports whether any guess has been submitted this attempt.
func (t *TurnData) HasGuess() bool {
	return t != nil && len(t.Guesses) > 0
}
