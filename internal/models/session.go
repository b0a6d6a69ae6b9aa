package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle state of a game session.
type SessionStatus string

const (
	SessionStatusWaiting  SessionStatus = "WAITING"
	SessionStatusPlaying  SessionStatus = "PLAYING"
	SessionStatusFinished SessionStatus = "FINISHED"
)

// Session represents one game session. Membership and player order are
// fixed once the session transitions to PLAYING.
type Session struct {
	ID          uuid.UUID     `json:"id"`
	HostID      uuid.UUID     `json:"host_id"`
	PlayerOrder []uuid.UUID   `json:"player_order"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Player holds the display identity of a session participant.
type Player struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}
