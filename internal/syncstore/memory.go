package syncstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// MemoryStore keeps documents in process memory. It is the store used by
// tests and single-machine play; it honors the same merge and timestamp
// semantics as the Postgres store.
type MemoryStore struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*models.SyncState
	clock clockwork.Clock
}

func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		docs:  make(map[uuid.UUID]*models.SyncState),
		clock: clock,
	}
}

// Create registers the initial document for a session. The owner calls
// this once when the session transitions to playing.
func (m *MemoryStore) Create(ctx context.Context, doc *models.SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := doc.Clone()
	stored.UpdatedAt = m.clock.Now()
	m.docs[doc.SessionID] = stored
	return nil
}

func (m *MemoryStore) Read(ctx context.Context, sessionID uuid.UUID) (*models.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryStore) Write(ctx context.Context, sessionID uuid.UUID, patch Patch, actorID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	patch.Apply(doc)
	doc.UpdatedAt = nextStamp(doc.UpdatedAt, m.clock.Now())
	doc.UpdatedBy = actorID
	return nil
}

// nextStamp guarantees updated_at strictly increases even when the clock
// has not advanced between writes (fake clocks, coarse clocks).
func nextStamp(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}
