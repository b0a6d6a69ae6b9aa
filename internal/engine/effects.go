package engine

import (
	"github.com/okatzz/shotobump-sub000/internal/media"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// firePhaseEffects runs the local side effects of a phase transition:
// start audio on entering audio_playing, stop it on leaving, then notify
// the UI. Shared by the owner loop and follower reconcilers so both fire
// effects exactly once per transition.
func firePhaseEffects(prev models.Phase, st *models.SyncState, player media.Player, hooks Hooks) {
	if st.Phase == prev {
		return
	}
	if prev == models.PhaseAudioPlaying {
		player.Stop()
	}
	if st.Phase == models.PhaseAudioPlaying && st.TurnData != nil && st.TurnData.CurrentSong != nil {
		player.Play(*st.TurnData.CurrentSong)
	}
	hooks.OnPhaseEntered(st.Phase, st)
}
