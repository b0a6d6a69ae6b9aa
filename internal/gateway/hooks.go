package gateway

import (
	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/engine"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/rs/zerolog/log"
)

// BroadcastHooks bridges the engine's sync callbacks onto the WebSocket
// fan-out, so every subscriber sees the same snapshots the local client
// adopts.
type BroadcastHooks struct {
	manager   *ConnectionManager
	sessionID uuid.UUID
}

func NewBroadcastHooks(manager *ConnectionManager, sessionID uuid.UUID) *BroadcastHooks {
	return &BroadcastHooks{manager: manager, sessionID: sessionID}
}

func (b *BroadcastHooks) OnPhaseEntered(phase models.Phase, st *models.SyncState) {
	b.manager.Broadcast(b.sessionID, snapshotEnvelope(st))
}

func (b *BroadcastHooks) OnNewTurn(key engine.TurnKey, st *models.SyncState) {
	b.manager.Broadcast(b.sessionID, snapshotEnvelope(st))
}

func (b *BroadcastHooks) OnStateSynced(st *models.SyncState) {
	b.manager.Broadcast(b.sessionID, snapshotEnvelope(st))
}

func (b *BroadcastHooks) OnSongUnavailable(playerID uuid.UUID) {
	log.Warn().
		Str("session_id", b.sessionID.String()).
		Str("player_id", playerID.String()).
		Msg("player has no songs remaining")
}
