package songs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// MemorySource keeps per-player FIFO queues in memory. Used by tests and
// single-machine play.
type MemorySource struct {
	mu     sync.Mutex
	queues map[queueKey][]models.SongRef
}

type queueKey struct {
	sessionID uuid.UUID
	playerID  uuid.UUID
}

func NewMemorySource() *MemorySource {
	return &MemorySource{queues: make(map[queueKey][]models.SongRef)}
}

// Enqueue appends a song to the back of a player's queue.
func (m *MemorySource) Enqueue(sessionID, playerID uuid.UUID, song models.SongRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := queueKey{sessionID: sessionID, playerID: playerID}
	m.queues[k] = append(m.queues[k], song)
}

func (m *MemorySource) NextSong(ctx context.Context, playerID, sessionID uuid.UUID) (*models.SongRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := queueKey{sessionID: sessionID, playerID: playerID}
	q := m.queues[k]
	if len(q) == 0 {
		return nil, ErrNoSongAvailable
	}
	song := q[0]
	m.queues[k] = q[1:]
	return &song, nil
}
