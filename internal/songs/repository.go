package songs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// PostgresRepository serves songs from a per-session queue table.
//
// Schema:
//
//	CREATE TABLE session_songs (
//	    id            UUID PRIMARY KEY,
//	    session_id    UUID NOT NULL,
//	    player_id     UUID NOT NULL,
//	    title         TEXT NOT NULL,
//	    artist        TEXT NOT NULL,
//	    album_art_url TEXT NOT NULL DEFAULT '',
//	    track_url     TEXT NOT NULL,
//	    position      INT NOT NULL,
//	    played        BOOLEAN NOT NULL DEFAULT FALSE
//	);
//
// NextSong claims the lowest-position unplayed row in a transaction so two
// concurrent fetches for the same player never hand out the same song.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) NextSong(ctx context.Context, playerID, sessionID uuid.UUID) (*models.SongRef, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin song claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var song models.SongRef
	err = tx.QueryRow(ctx,
		`SELECT id, title, artist, album_art_url, track_url
		   FROM session_songs
		  WHERE session_id = $1 AND player_id = $2 AND NOT played
		  ORDER BY position
		  LIMIT 1
		    FOR UPDATE SKIP LOCKED`,
		sessionID, playerID,
	).Scan(&song.ID, &song.Title, &song.Artist, &song.AlbumArtURL, &song.TrackURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSongAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next song: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE session_songs SET played = TRUE WHERE id = $1`, song.ID); err != nil {
		return nil, fmt.Errorf("failed to mark song played: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit song claim: %w", err)
	}
	return &song, nil
}

// Enqueue appends a song at the back of a player's queue.
func (r *PostgresRepository) Enqueue(ctx context.Context, sessionID, playerID uuid.UUID, song models.SongRef) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_songs (id, session_id, player_id, title, artist, album_art_url, track_url, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7,
		         COALESCE((SELECT MAX(position) + 1 FROM session_songs WHERE session_id = $2 AND player_id = $3), 0))`,
		song.ID, sessionID, playerID, song.Title, song.Artist, song.AlbumArtURL, song.TrackURL,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue song: %w", err)
	}
	return nil
}
