package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase defines one state of the turn state machine.
type Phase string

const (
	PhasePreGameCountdown Phase = "pre_game_countdown"
	PhaseTurnCountdown    Phase = "turn_countdown"
	PhaseAudioPlaying     Phase = "audio_playing"
	PhaseGuessing         Phase = "guessing"
	PhaseVoting           Phase = "voting"
	PhaseTurnResults      Phase = "turn_results"
	PhaseGameFinished     Phase = "game_finished"
)

// phaseRank orders phases within a single turn so followers can tell
// whether a remote document is ahead of their local view.
var phaseRank = map[Phase]int{
	PhasePreGameCountdown: 0,
	PhaseTurnCountdown:    1,
	PhaseAudioPlaying:     2,
	PhaseGuessing:         3,
	PhaseVoting:           4,
	PhaseTurnResults:      5,
	PhaseGameFinished:     6,
}

// StepsBehind reports how many phases p lags target within a turn.
// Negative means p is ahead.
func (p Phase) StepsBehind(target Phase) int {
	return phaseRank[target] - phaseRank[p]
}

// Timed reports whether the phase is driven by the owner's countdown.
// turn_results waits for an explicit owner action and game_finished is
// terminal.
func (p Phase) Timed() bool {
	switch p {
	case PhasePreGameCountdown, PhaseTurnCountdown, PhaseAudioPlaying, PhaseGuessing, PhaseVoting:
		return true
	}
	return false
}

// PlayerScore is one entry of the session scoreboard. Scores are signed
// and unbounded.
type PlayerScore struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Score       int       `json:"score"`
	Online      bool      `json:"online"`
}

// SyncState is the shared mutable document every client polls. Phase,
// timer, turn index, order and scores are owner-only fields; the turn
// sub-document accepts per-key merges from any client.
//
// UpdatedAt strictly increases on every store write; readers discard
// documents whose UpdatedAt is not newer than the last one they adopted.
type SyncState struct {
	SessionID        uuid.UUID     `json:"session_id"`
	Phase            Phase         `json:"phase"`
	TimeRemaining    int           `json:"time_remaining"`
	CurrentTurnIndex int           `json:"current_turn_index"`
	PlayerScores     []PlayerScore `json:"player_scores"`
	PlayerOrder      []uuid.UUID   `json:"player_order"`
	TurnData         *TurnData     `json:"turn_data,omitempty"`
	ShowAlbumArt     bool          `json:"show_album_art"`
	UpdatedAt        time.Time     `json:"updated_at"`
	UpdatedBy        uuid.UUID     `json:"updated_by"`
}

// Clone returns a deep copy so callers can diff or mutate without
// aliasing the stored document.
func (s *SyncState) Clone() *SyncState {
	if s == nil {
		return nil
	}
	out := *s
	out.PlayerScores = append([]PlayerScore(nil), s.PlayerScores...)
	out.PlayerOrder = append([]uuid.UUID(nil), s.PlayerOrder...)
	out.TurnData = s.TurnData.Clone()
	return &out
}

// ScoreOf returns the current score for a player, zero if absent.
func (s *SyncState) ScoreOf(userID uuid.UUID) int {
	for _, ps := range s.PlayerScores {
		if ps.UserID == userID {
			return ps.Score
		}
	}
	return 0
}
