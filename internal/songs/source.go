package songs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// ErrNoSongAvailable means the player has no unplayed song left in this
// session. Turn-blocking: the owner either skips to the next attacker with
// a song or ends the session.
var ErrNoSongAvailable = errors.New("no song available")

// Source hands out a player's next unplayed song, FIFO.
type Source interface {
	NextSong(ctx context.Context, playerID, sessionID uuid.UUID) (*models.SongRef, error)
}
