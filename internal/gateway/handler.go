package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
	"github.com/rs/zerolog/log"
)

// StateReader is the read side of the sync store the gateway serves from.
type StateReader interface {
	Read(ctx context.Context, sessionID uuid.UUID) (*models.SyncState, error)
}

// Handler exposes the spectator surface: a WebSocket feed of state
// snapshots plus a plain HTTP snapshot endpoint for clients that poll.
type Handler struct {
	manager *ConnectionManager
	states  StateReader
}

func NewHandler(manager *ConnectionManager, states StateReader) *Handler {
	return &Handler{manager: manager, states: states}
}

// RegisterRoutes mounts the gateway endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/sessions/", h.handleWebSocket)
	mux.HandleFunc("/api/sessions/", h.handleSnapshot)
	mux.HandleFunc("/health", h.handleHealth)
}

// handleWebSocket upgrades GET /ws/sessions/{id}?user_id={uuid}.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/ws/sessions/"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	conn, err := h.manager.Upgrade(w, r, userID, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("websocket upgrade failed")
		return
	}

	// Push the current snapshot to the new subscriber only, so a
	// reconnecting client does not wait a full sync tick for its first
	// state.
	if doc, err := h.states.Read(r.Context(), sessionID); err == nil {
		if err := conn.SendJSON(snapshotEnvelope(doc)); err != nil {
			log.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to queue warm-up snapshot")
		}
	}
}

// handleSnapshot serves GET /api/sessions/{id}/state.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	idPart, ok := strings.CutSuffix(rest, "/state")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sessionID, err := uuid.Parse(idPart)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	doc, err := h.states.Read(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, syncstore.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to read sync state")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot response")
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type stateEnvelope struct {
	Type  string            `json:"type"`
	State *models.SyncState `json:"state"`
}

func snapshotEnvelope(doc *models.SyncState) stateEnvelope {
	return stateEnvelope{Type: "state", State: doc}
}
