package syncstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// PostgresStore persists one JSONB document per session.
//
// Schema:
//
//	CREATE TABLE sync_states (
//	    session_id UUID PRIMARY KEY,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    updated_by UUID NOT NULL
//	);
//
// Writes run read-merge-write inside a transaction holding a row lock, so
// per-key contributor merges survive concurrent writers (the StaleWriteLost
// gap of a naive last-write-wins store does not apply here).
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

func NewPostgresStore(pool *pgxpool.Pool, clock clockwork.Clock) *PostgresStore {
	return &PostgresStore{pool: pool, clock: clock}
}

// Create inserts the initial document for a session.
func (s *PostgresStore) Create(ctx context.Context, doc *models.SyncState) error {
	doc = doc.Clone()
	doc.UpdatedAt = s.clock.Now()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sync_states (session_id, doc, updated_at, updated_by) VALUES ($1, $2, $3, $4)`,
		doc.SessionID, raw, doc.UpdatedAt, doc.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Read(ctx context.Context, sessionID uuid.UUID) (*models.SyncState, error) {
	var (
		raw       []byte
		updatedAt time.Time
		updatedBy uuid.UUID
	)
	err := s.pool.QueryRow(ctx,
		`SELECT doc, updated_at, updated_by FROM sync_states WHERE session_id = $1`,
		sessionID,
	).Scan(&raw, &updatedAt, &updatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}

	var doc models.SyncState
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync state: %w", err)
	}
	doc.UpdatedAt = updatedAt
	doc.UpdatedBy = updatedBy
	return &doc, nil
}

func (s *PostgresStore) Write(ctx context.Context, sessionID uuid.UUID, patch Patch, actorID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin write tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		raw       []byte
		updatedAt time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT doc, updated_at FROM sync_states WHERE session_id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock sync state: %w", err)
	}

	var doc models.SyncState
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal sync state: %w", err)
	}

	patch.Apply(&doc)
	doc.UpdatedAt = nextStamp(updatedAt, s.clock.Now())
	doc.UpdatedBy = actorID

	merged, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE sync_states SET doc = $2, updated_at = $3, updated_by = $4 WHERE session_id = $1`,
		sessionID, merged, doc.UpdatedAt, actorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sync state write: %w", err)
	}
	return nil
}
