package engine

import (
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// VoteOutcome is the result of evaluating the consensus rule.
type VoteOutcome int

const (
	VotePending VoteOutcome = iota
	VoteAccepted
	VoteRejected
)

// ResolveVotes evaluates the consensus rule over the recorded votes.
// Eligible voters are all players except the current guesser; a vote the
// guesser somehow recorded is ignored. The rule, in priority order:
//
//  1. the attacker voting accept is final, regardless of other votes;
//  2. with exactly two players the attacker is the sole voter and their
//     vote decides either way;
//  3. two accepts among eligible voters accept the answer;
//  4. all eligible voters voted without the above holding: rejected;
//  5. the voting window expiring without consensus: rejected.
//
// Anything else is still pending.
func ResolveVotes(td *models.TurnData, playerCount int, expired bool) VoteOutcome {
	if td == nil {
		return VotePending
	}

	accepts := 0
	voted := 0
	for voter, v := range td.Votes {
		if voter == td.CurrentGuesserID {
			continue
		}
		voted++
		if v == models.VoteAccept {
			accepts++
		}
	}

	if v, ok := td.Votes[td.AttackerID]; ok && v == models.VoteAccept {
		return VoteAccepted
	}

	if playerCount == 2 {
		if v, ok := td.Votes[td.AttackerID]; ok {
			if v == models.VoteAccept {
				return VoteAccepted
			}
			return VoteRejected
		}
		if expired {
			return VoteRejected
		}
		return VotePending
	}

	if accepts >= 2 {
		return VoteAccepted
	}

	eligible := playerCount - 1
	if voted >= eligible {
		return VoteRejected
	}
	if expired {
		return VoteRejected
	}
	return VotePending
}
