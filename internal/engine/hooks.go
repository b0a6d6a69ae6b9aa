package engine

import (
	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

// Hooks is the surface a client UI plugs into the engine. Every method is
// invoked from the reconciliation (or owner) loop goroutine; implementations
// must not block.
type Hooks interface {
	// OnPhaseEntered fires exactly once per phase transition.
	OnPhaseEntered(phase models.Phase, state *models.SyncState)

	// OnNewTurn fires when the attacker/guesser pairing changes; the UI
	// should clear typed guess text, challenge and vote state.
	OnNewTurn(key TurnKey, state *models.SyncState)

	// OnStateSynced fires after every adopted remote document.
	OnStateSynced(state *models.SyncState)

	// OnSongUnavailable fires when a player has no unplayed song left.
	// This is the only engine failure surfaced to users besides
	// connectivity loss.
	OnSongUnavailable(playerID uuid.UUID)
}

// NopHooks ignores everything.
type NopHooks struct{}

func (NopHooks) OnPhaseEntered(models.Phase, *models.SyncState) {}
func (NopHooks) OnNewTurn(TurnKey, *models.SyncState)           {}
func (NopHooks) OnStateSynced(*models.SyncState)                {}
func (NopHooks) OnSongUnavailable(uuid.UUID)                    {}
