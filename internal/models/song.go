package models

import "github.com/google/uuid"

// SongRef is an opaque track reference plus the display metadata revealed
// at the end of a turn. The engine never interprets TrackURL; it is handed
// verbatim to the media provider.
type SongRef struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	AlbumArtURL string    `json:"album_art_url,omitempty"`
	TrackURL    string    `json:"track_url"`
}
