package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

func TestResolveVotes(t *testing.T) {
	attacker := uuid.New()
	guesser := uuid.New()
	third := uuid.New()
	fourth := uuid.New()

	td := func(votes map[uuid.UUID]models.Vote) *models.TurnData {
		return &models.TurnData{
			AttackerID:       attacker,
			DefenderID:       guesser,
			CurrentGuesserID: guesser,
			Votes:            votes,
		}
	}

	tests := []struct {
		name        string
		votes       map[uuid.UUID]models.Vote
		playerCount int
		expired     bool
		want        VoteOutcome
	}{
		{
			name:        "no votes pending",
			votes:       nil,
			playerCount: 4,
			want:        VotePending,
		},
		{
			name: "attacker accept is final",
			votes: map[uuid.UUID]models.Vote{
				attacker: models.VoteAccept,
				third:    models.VoteReject,
				fourth:   models.VoteReject,
			},
			playerCount: 4,
			want:        VoteAccepted,
		},
		{
			name: "two player attacker accept decides",
			votes: map[uuid.UUID]models.Vote{
				attacker: models.VoteAccept,
			},
			playerCount: 2,
			want:        VoteAccepted,
		},
		{
			name: "two player attacker reject decides",
			votes: map[uuid.UUID]models.Vote{
				attacker: models.VoteReject,
			},
			playerCount: 2,
			want:        VoteRejected,
		},
		{
			name:        "two player no vote pending",
			votes:       map[uuid.UUID]models.Vote{},
			playerCount: 2,
			want:        VotePending,
		},
		{
			name:        "two player expiry rejects",
			votes:       map[uuid.UUID]models.Vote{},
			playerCount: 2,
			expired:     true,
			want:        VoteRejected,
		},
		{
			name: "two accepts without attacker accept",
			votes: map[uuid.UUID]models.Vote{
				third:  models.VoteAccept,
				fourth: models.VoteAccept,
			},
			playerCount: 4,
			want:        VoteAccepted,
		},
		{
			name: "one accept still pending",
			votes: map[uuid.UUID]models.Vote{
				third: models.VoteAccept,
			},
			playerCount: 4,
			want:        VotePending,
		},
		{
			name: "all voted without consensus rejects",
			votes: map[uuid.UUID]models.Vote{
				attacker: models.VoteReject,
				third:    models.VoteAccept,
				fourth:   models.VoteReject,
			},
			playerCount: 4,
			want:        VoteRejected,
		},
		{
			name: "expiry without consensus rejects",
			votes: map[uuid.UUID]models.Vote{
				third: models.VoteAccept,
			},
			playerCount: 4,
			expired:     true,
			want:        VoteRejected,
		},
		{
			name: "guesser vote is ignored",
			votes: map[uuid.UUID]models.Vote{
				guesser: models.VoteAccept,
				third:   models.VoteAccept,
			},
			playerCount: 4,
			want:        VotePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveVotes(td(tt.votes), tt.playerCount, tt.expired)
			if got != tt.want {
				t.Errorf("ResolveVotes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveVotesNilTurn(t *testing.T) {
	if got := ResolveVotes(nil, 4, true); got != VotePending {
		t.Errorf("ResolveVotes(nil) = %v, want VotePending", got)
	}
}
