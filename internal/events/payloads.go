package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies an engine event on the feed.
type EventType string

const (
	EventTypePhaseChanged EventType = "PhaseChanged"
	EventTypeTurnStarted  EventType = "TurnStarted"
	EventTypeTurnResolved EventType = "TurnResolved"
	EventTypeGameFinished EventType = "GameFinished"
)

// Event is the envelope published to the feed.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// PhaseChangedPayload is the payload for a PhaseChanged event.
type PhaseChangedPayload struct {
	From          string `json:"from"`
	To            string `json:"to"`
	TurnIndex     int    `json:"turn_index"`
	TimeRemaining int    `json:"time_remaining"`
}

// TurnStartedPayload is the payload for a TurnStarted event.
type TurnStartedPayload struct {
	TurnIndex  int       `json:"turn_index"`
	AttackerID uuid.UUID `json:"attacker_id"`
	GuesserID  uuid.UUID `json:"guesser_id"`
}

// TurnResolvedPayload is the payload for a TurnResolved event.
type TurnResolvedPayload struct {
	TurnIndex  int       `json:"turn_index"`
	Outcome    string    `json:"outcome"`
	ScoredID   uuid.UUID `json:"scored_id"`
	ScoreDelta int       `json:"score_delta"`
	SongTitle  string    `json:"song_title,omitempty"`
	SongArtist string    `json:"song_artist,omitempty"`
}

// GameFinishedPayload is the payload for a GameFinished event.
type GameFinishedPayload struct {
	TurnIndex int       `json:"turn_index"`
	WinnerID  uuid.UUID `json:"winner_id,omitempty"`
	Reason    string    `json:"reason"`
}
