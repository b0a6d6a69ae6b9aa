package syncstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Store is the shared state store contract. A single Write call's fields
// land together; the store stamps updated_at (strictly increasing) and
// updated_by on every write. No cross-write transactions are required.
type Store interface {
	// Read returns the latest document for a session.
	Read(ctx context.Context, sessionID uuid.UUID) (*models.SyncState, error)

	// Write merges a partial update into the stored document.
	Write(ctx context.Context, sessionID uuid.UUID, patch Patch, actorID uuid.UUID) error
}

// Patch is a partial update to a SyncState document. Nil fields are left
// untouched.
//
// Phase, timer, turn index, order, scores, ShowAlbumArt and the wholesale
// TurnData replacement are owner-only by convention (single-writer rule);
// the Add* maps merge per player id into the current turn sub-document so
// concurrent contributors cannot overwrite each other.
type Patch struct {
	Phase            *models.Phase
	TimeRemaining    *int
	CurrentTurnIndex *int
	PlayerScores     []models.PlayerScore
	PlayerOrder      []uuid.UUID
	ShowAlbumArt     *bool

	// TurnData replaces the turn sub-document wholesale.
	TurnData *models.TurnData

	// Per-key merges into the existing turn sub-document.
	AddGuesses      map[uuid.UUID]models.Guess
	AddChallenges   map[uuid.UUID]models.Challenge
	AddVotes        map[uuid.UUID]models.Vote
	VotingCompleted *bool
}

// Apply merges the patch into doc in place. TurnData replacement happens
// before per-key merges so a single write may reset the sub-document and
// seed it at once.
func (p Patch) Apply(doc *models.SyncState) {
	if p.Phase != nil {
		doc.Phase = *p.Phase
	}
	if p.TimeRemaining != nil {
		doc.TimeRemaining = *p.TimeRemaining
	}
	if p.CurrentTurnIndex != nil {
		doc.CurrentTurnIndex = *p.CurrentTurnIndex
	}
	if p.PlayerScores != nil {
		doc.PlayerScores = append([]models.PlayerScore(nil), p.PlayerScores...)
	}
	if p.PlayerOrder != nil {
		doc.PlayerOrder = append([]uuid.UUID(nil), p.PlayerOrder...)
	}
	if p.ShowAlbumArt != nil {
		doc.ShowAlbumArt = *p.ShowAlbumArt
	}
	if p.TurnData != nil {
		doc.TurnData = p.TurnData.Clone()
	}

	td := doc.TurnData
	if td == nil {
		return
	}
	if td.Guesses == nil {
		td.Guesses = map[uuid.UUID]models.Guess{}
	}
	if td.Challenges == nil {
		td.Challenges = map[uuid.UUID]models.Challenge{}
	}
	if td.Votes == nil {
		td.Votes = map[uuid.UUID]models.Vote{}
	}
	for id, g := range p.AddGuesses {
		td.Guesses[id] = g
	}
	for id, c := range p.AddChallenges {
		// keep the earliest registration for a challenger
		if prev, ok := td.Challenges[id]; ok && prev.RegisteredAt.Before(c.RegisteredAt) {
			continue
		}
		td.Challenges[id] = c
	}
	for id, v := range p.AddVotes {
		td.Votes[id] = v
	}
	if p.VotingCompleted != nil {
		td.VotingCompleted = *p.VotingCompleted
	}
}

// PhasePtr and friends keep patch construction terse at call sites.
func PhasePtr(p models.Phase) *models.Phase { return &p }
func IntPtr(i int) *int                     { return &i }
func BoolPtr(b bool) *bool                  { return &b }
