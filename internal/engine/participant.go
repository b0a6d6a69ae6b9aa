package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
	"github.com/rs/zerolog/log"
)

// Participant is the contributor side of the engine: any client, owner
// included, appends its own guess, challenge or vote into the turn
// sub-document. Writes merge per player id, so two players acting in the
// same tick cannot clobber each other.
type Participant struct {
	store     syncstore.Store
	clock     clockwork.Clock
	sessionID uuid.UUID
	selfID    uuid.UUID
}

func NewParticipant(store syncstore.Store, clock clockwork.Clock, sessionID, selfID uuid.UUID) *Participant {
	return &Participant{
		store:     store,
		clock:     clock,
		sessionID: sessionID,
		selfID:    selfID,
	}
}

// SubmitGuess records this player's answer for the current attempt. Only
// the current guesser may guess, and only while audio plays or the
// guessing window is open.
func (p *Participant) SubmitGuess(ctx context.Context, text string) error {
	doc, err := p.store.Read(ctx, p.sessionID)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	switch doc.Phase {
	case models.PhaseAudioPlaying, models.PhaseGuessing:
	default:
		return ErrInvalidPhase
	}
	if doc.TurnData == nil {
		return ErrNoActiveTurn
	}
	if doc.TurnData.CurrentGuesserID != p.selfID {
		return ErrNotEligible
	}

	guess := models.Guess{
		ID:          uuid.New(),
		PlayerID:    p.selfID,
		Text:        text,
		SubmittedAt: p.clock.Now(),
	}
	err = p.store.Write(ctx, p.sessionID, syncstore.Patch{
		AddGuesses: map[uuid.UUID]models.Guess{p.selfID: guess},
	}, p.selfID)
	if err != nil {
		return fmt.Errorf("failed to write guess: %w", err)
	}

	log.Info().
		Str("session_id", p.sessionID.String()).
		Str("player_id", p.selfID.String()).
		Msg("guess submitted")
	return nil
}

// RegisterChallenge queues this player for one guess attempt after the
// defender exhausts theirs. The attacker and the current guesser are not
// eligible. First registered, first served.
func (p *Participant) RegisterChallenge(ctx context.Context) error {
	doc, err := p.store.Read(ctx, p.sessionID)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	td := doc.TurnData
	if td == nil {
		return ErrNoActiveTurn
	}
	switch doc.Phase {
	case models.PhaseTurnResults, models.PhaseGameFinished, models.PhasePreGameCountdown:
		return ErrInvalidPhase
	}
	if p.selfID == td.AttackerID || p.selfID == td.CurrentGuesserID {
		return ErrNotEligible
	}

	err = p.store.Write(ctx, p.sessionID, syncstore.Patch{
		AddChallenges: map[uuid.UUID]models.Challenge{
			p.selfID: {PlayerID: p.selfID, RegisteredAt: p.clock.Now()},
		},
	}, p.selfID)
	if err != nil {
		return fmt.Errorf("failed to write challenge: %w", err)
	}

	log.Info().
		Str("session_id", p.sessionID.String()).
		Str("player_id", p.selfID.String()).
		Msg("challenge registered")
	return nil
}

// CastVote records this player's accept/reject decision on the current
// guess. The guesser may not vote on their own answer.
func (p *Participant) CastVote(ctx context.Context, vote models.Vote) error {
	doc, err := p.store.Read(ctx, p.sessionID)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	if doc.Phase != models.PhaseVoting {
		return ErrInvalidPhase
	}
	td := doc.TurnData
	if td == nil {
		return ErrNoActiveTurn
	}
	if p.selfID == td.CurrentGuesserID {
		return ErrNotEligible
	}

	err = p.store.Write(ctx, p.sessionID, syncstore.Patch{
		AddVotes: map[uuid.UUID]models.Vote{p.selfID: vote},
	}, p.selfID)
	if err != nil {
		return fmt.Errorf("failed to write vote: %w", err)
	}

	log.Info().
		Str("session_id", p.sessionID.String()).
		Str("player_id", p.selfID.String()).
		Str("vote", string(vote)).
		Msg("vote cast")
	return nil
}
