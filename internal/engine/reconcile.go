package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/media"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
	"github.com/rs/zerolog/log"
)

// Ephemeral is the client-local input state that survives sync ticks
// within one turn and resets when the turn identity changes: the typed
// guess draft and the "already challenged/voted" latches.
type Ephemeral struct {
	GuessDraft    string
	HasChallenged bool
	HasVoted      bool
	CastVote      models.Vote
}

// Reconciler keeps one client's local view converged with the shared
// document. It runs on every client, owner included; the owner's
// authoritative countdown and this reconciled follower view are two
// independent clocks.
type Reconciler struct {
	store  syncstore.Store
	player media.Player
	hooks  Hooks
	clock  clockwork.Clock

	sessionID uuid.UUID
	selfID    uuid.UUID
	isOwner   bool
	tick      time.Duration

	mu          sync.Mutex
	local       *models.SyncState
	lastAdopted time.Time
	eph         Ephemeral
}

func NewReconciler(
	store syncstore.Store,
	player media.Player,
	hooks Hooks,
	clock clockwork.Clock,
	cfg Config,
	sessionID, selfID, hostID uuid.UUID,
) *Reconciler {
	cfg = cfg.Normalize()
	return &Reconciler{
		store:     store,
		player:    player,
		hooks:     hooks,
		clock:     clock,
		sessionID: sessionID,
		selfID:    selfID,
		isOwner:   selfID == hostID,
		tick:      cfg.TickInterval,
	}
}

// Run polls the store until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.tick)
	defer ticker.Stop()

	log.Info().
		Str("session_id", r.sessionID.String()).
		Str("self_id", r.selfID.String()).
		Bool("owner", r.isOwner).
		Msg("reconcile loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := r.Tick(ctx); err != nil {
				// Connectivity loss stalls the view; it recovers on the
				// next successful read.
				log.Warn().Err(err).
					Str("session_id", r.sessionID.String()).
					Msg("reconcile tick failed")
			}
		}
	}
}

// Tick performs one reconciliation pass. Applying the same remote
// document twice is a no-op: the updated_at gate makes every side effect
// fire exactly once per transition.
func (r *Reconciler) Tick(ctx context.Context) error {
	remote, err := r.store.Read(ctx, r.sessionID)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Discard anything not strictly newer than what we already adopted.
	if r.local != nil && !remote.UpdatedAt.After(r.lastAdopted) {
		return nil
	}

	selfWrite := remote.UpdatedBy == r.selfID
	if selfWrite && r.isOwner {
		// The owner loop already fired this write's side effects when it
		// wrote; adopt silently and advance the marker.
		r.local = remote
		r.lastAdopted = remote.UpdatedAt
		return nil
	}

	// A non-owner's own write coming back still goes through the diffs
	// below: contributors never write phase or turn data, so any phase or
	// turn change riding on a self-stamped document is unobserved owner
	// work and needs its entry effects. Only the sync callback stays quiet
	// for self-writes.

	first := r.local == nil
	var prevPhase models.Phase
	prevKey := TurnKey{}
	if !first {
		prevPhase = r.local.Phase
		prevKey = KeyOf(r.local.TurnData)
	}

	newKey := KeyOf(remote.TurnData)
	if newKey != prevKey {
		// New turn identity: clear ephemeral input state. Same identity
		// preserves it; a sync tick must never wipe a half-typed guess.
		r.eph = Ephemeral{}
		if !newKey.IsZero() {
			r.hooks.OnNewTurn(newKey, remote)
		}
	}

	if remote.Phase != prevPhase {
		if behind := prevPhase.StepsBehind(remote.Phase); behind > 1 && !first {
			// Missed at least one intermediate update; force-adopt.
			log.Warn().
				Str("session_id", r.sessionID.String()).
				Str("local_phase", string(prevPhase)).
				Str("remote_phase", string(remote.Phase)).
				Int("steps_behind", behind).
				Msg("phase divergence detected, force-adopting remote")
		}
		firePhaseEffects(prevPhase, remote, r.player, r.hooks)
	}

	// Non-owners never trust their own timer; the document's countdown
	// is authoritative. The owner's countdown lives in its Owner loop.
	r.local = remote
	r.lastAdopted = remote.UpdatedAt
	if !selfWrite {
		r.hooks.OnStateSynced(remote)
	}
	return nil
}

// State returns the last adopted document, nil before the first sync.
func (r *Reconciler) State() *models.SyncState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local.Clone()
}

// TimeRemaining returns the follower view of the countdown.
func (r *Reconciler) TimeRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local == nil {
		return 0
	}
	return r.local.TimeRemaining
}

// Ephemeral returns the client-local input state for the current turn.
func (r *Reconciler) Ephemeral() Ephemeral {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eph
}

// SetGuessDraft stores locally-typed guess text. It survives sync ticks
// until the turn identity changes.
func (r *Reconciler) SetGuessDraft(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eph.GuessDraft = text
}

// MarkChallenged latches that this client registered a challenge.
func (r *Reconciler) MarkChallenged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eph.HasChallenged = true
}

// MarkVoted latches this client's cast vote.
func (r *Reconciler) MarkVoted(v models.Vote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eph.HasVoted = true
	r.eph.CastVote = v
}
