package media

import (
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/rs/zerolog/log"
)

// Player is the media provider contract. Both calls are fire-and-forget;
// the engine never waits for playback to finish. Phase timers are the
// sole progression mechanism.
type Player interface {
	Play(song models.SongRef)
	Stop()
}

// LogPlayer logs playback requests instead of producing audio. Real audio
// output lives in the client apps, outside this engine.
type LogPlayer struct{}

func NewLogPlayer() *LogPlayer { return &LogPlayer{} }

func (p *LogPlayer) Play(song models.SongRef) {
	log.Info().
		Str("song_id", song.ID.String()).
		Str("title", song.Title).
		Str("artist", song.Artist).
		Msg("media: play requested")
}

func (p *LogPlayer) Stop() {
	log.Info().Msg("media: stop requested")
}
