package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/media"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
)

// recordingHooks captures engine callbacks for assertions. Tick runs on
// one goroutine in these tests, so no locking.
type recordingHooks struct {
	phases   []models.Phase
	newTurns []TurnKey
	synced   int
}

func (r *recordingHooks) OnPhaseEntered(phase models.Phase, _ *models.SyncState) {
	r.phases = append(r.phases, phase)
}
func (r *recordingHooks) OnNewTurn(key TurnKey, _ *models.SyncState) {
	r.newTurns = append(r.newTurns, key)
}
func (r *recordingHooks) OnStateSynced(_ *models.SyncState) { r.synced++ }
func (r *recordingHooks) OnSongUnavailable(uuid.UUID)       {}

type reconcileFixture struct {
	rec       *Reconciler
	hooks     *recordingHooks
	store     *syncstore.MemoryStore
	clock     *clockwork.FakeClock
	sessionID uuid.UUID
	hostID    uuid.UUID
	selfID    uuid.UUID
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	store := syncstore.NewMemoryStore(clock)
	sessionID := uuid.New()
	hostID := uuid.New()
	selfID := uuid.New()

	err := store.Create(context.Background(), &models.SyncState{
		SessionID:     sessionID,
		Phase:         models.PhasePreGameCountdown,
		TimeRemaining: 5,
		PlayerOrder:   []uuid.UUID{hostID, selfID},
		UpdatedBy:     hostID,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	hooks := &recordingHooks{}
	rec := NewReconciler(store, media.NewLogPlayer(), hooks, clock, testConfig(), sessionID, selfID, hostID)

	return &reconcileFixture{
		rec:       rec,
		hooks:     hooks,
		store:     store,
		clock:     clock,
		sessionID: sessionID,
		hostID:    hostID,
		selfID:    selfID,
	}
}

func (f *reconcileFixture) tick(t *testing.T) {
	t.Helper()
	if err := f.rec.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
}

// ownerWrite simulates the host advancing the shared document.
func (f *reconcileFixture) ownerWrite(t *testing.T, patch syncstore.Patch) {
	t.Helper()
	if err := f.store.Write(context.Background(), f.sessionID, patch, f.hostID); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
}

func TestReconcilerAdoptsRemoteState(t *testing.T) {
	f := newReconcileFixture(t)
	f.tick(t)

	st := f.rec.State()
	if st == nil || st.Phase != models.PhasePreGameCountdown {
		t.Fatalf("State() = %+v, want the stored document", st)
	}
	if f.rec.TimeRemaining() != 5 {
		t.Errorf("TimeRemaining() = %d, want 5 (document is authoritative)", f.rec.TimeRemaining())
	}
	if f.hooks.synced != 1 {
		t.Errorf("synced = %d, want 1", f.hooks.synced)
	}
}

func TestReconcilerRepeatedTickIsIdempotent(t *testing.T) {
	f := newReconcileFixture(t)
	f.tick(t)
	phasesAfterFirst := len(f.hooks.phases)
	syncedAfterFirst := f.hooks.synced

	// No new write: ticks see the same updated_at and do nothing.
	f.tick(t)
	f.tick(t)

	if len(f.hooks.phases) != phasesAfterFirst {
		t.Error("unchanged document re-fired phase effects")
	}
	if f.hooks.synced != syncedAfterFirst {
		t.Error("unchanged document re-fired sync callback")
	}
}

func TestReconcilerPhaseEffectFiresOncePerTransition(t *testing.T) {
	f := newReconcileFixture(t)
	f.tick(t)

	td := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseTurnCountdown),
		TurnData: td,
	})
	f.tick(t)
	f.tick(t)

	countdowns := 0
	for _, p := range f.hooks.phases {
		if p == models.PhaseTurnCountdown {
			countdowns++
		}
	}
	if countdowns != 1 {
		t.Errorf("turn_countdown entered %d times, want exactly 1", countdowns)
	}
}

func TestReconcilerTimerOnlyWriteKeepsEphemeral(t *testing.T) {
	f := newReconcileFixture(t)

	td := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseGuessing),
		TurnData: td,
	})
	f.tick(t)

	f.rec.SetGuessDraft("half typed ans")
	f.rec.MarkVoted(models.VoteAccept)

	// Owner counts the timer down; the turn identity is unchanged.
	f.ownerWrite(t, syncstore.Patch{TimeRemaining: syncstore.IntPtr(7)})
	f.tick(t)

	eph := f.rec.Ephemeral()
	if eph.GuessDraft != "half typed ans" {
		t.Error("sync tick wiped the guess draft within the same turn")
	}
	if !eph.HasVoted || eph.CastVote != models.VoteAccept {
		t.Error("sync tick wiped the vote latch within the same turn")
	}
	if f.rec.TimeRemaining() != 7 {
		t.Errorf("TimeRemaining() = %d, want adopted 7", f.rec.TimeRemaining())
	}
}

func TestReconcilerNewTurnResetsEphemeral(t *testing.T) {
	f := newReconcileFixture(t)

	first := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseGuessing),
		TurnData: first,
	})
	f.tick(t)
	f.rec.SetGuessDraft("stale text")
	f.rec.MarkChallenged()

	// New pairing: roles swap.
	second := models.NewTurnData(f.selfID, f.hostID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseTurnCountdown),
		TurnData: second,
	})
	f.tick(t)

	eph := f.rec.Ephemeral()
	if eph.GuessDraft != "" || eph.HasChallenged {
		t.Error("new turn identity must clear ephemeral input state")
	}
	if len(f.hooks.newTurns) != 2 {
		t.Fatalf("OnNewTurn fired %d times, want 2", len(f.hooks.newTurns))
	}
	want := TurnKey{AttackerID: f.selfID, GuesserID: f.hostID}
	if f.hooks.newTurns[1] != want {
		t.Errorf("OnNewTurn key = %+v, want %+v", f.hooks.newTurns[1], want)
	}
}

func TestReconcilerGuesserHandoffIsNewTurn(t *testing.T) {
	f := newReconcileFixture(t)

	td := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseGuessing),
		TurnData: td,
	})
	f.tick(t)
	f.rec.SetGuessDraft("mine")

	// Same attacker, guesser hands off to a challenger.
	handoff := td.Clone()
	handoff.CurrentGuesserID = uuid.New()
	handoff.ChallengerPhase = true
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseTurnCountdown),
		TurnData: handoff,
	})
	f.tick(t)

	if f.rec.Ephemeral().GuessDraft != "" {
		t.Error("a guesser handoff changes the turn identity and must reset drafts")
	}
}

func TestReconcilerIgnoresOwnWrites(t *testing.T) {
	f := newReconcileFixture(t)
	f.tick(t)
	synced := f.hooks.synced

	guess := models.Guess{ID: uuid.New(), PlayerID: f.selfID, Text: "mine", SubmittedAt: f.clock.Now()}
	err := f.store.Write(context.Background(), f.sessionID, syncstore.Patch{
		AddGuesses: map[uuid.UUID]models.Guess{f.selfID: guess},
	}, f.selfID)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	f.tick(t)

	if f.hooks.synced != synced {
		t.Error("own write echoed back must not re-trigger callbacks")
	}
	// The echo still advances the adoption marker and the local view.
	st := f.rec.State()
	if st.TurnData != nil && !st.TurnData.HasGuess() {
		t.Error("own write should still be adopted locally")
	}
}

func TestReconcilerSelfStampedDocCarriesOwnerTransition(t *testing.T) {
	f := newReconcileFixture(t)
	f.tick(t)

	// Owner advances into guessing, then this client's own contribution
	// merge lands before the next sync tick. The latest document is
	// stamped with our id but carries the unobserved phase change.
	td := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseGuessing),
		TurnData: td,
	})
	guess := models.Guess{ID: uuid.New(), PlayerID: f.selfID, Text: "mine", SubmittedAt: f.clock.Now()}
	err := f.store.Write(context.Background(), f.sessionID, syncstore.Patch{
		AddGuesses: map[uuid.UUID]models.Guess{f.selfID: guess},
	}, f.selfID)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	f.tick(t)

	// A later owner timer write must not re-fire the entry effect.
	f.ownerWrite(t, syncstore.Patch{TimeRemaining: syncstore.IntPtr(9)})
	f.tick(t)
	f.tick(t)

	entered := 0
	for _, p := range f.hooks.phases {
		if p == models.PhaseGuessing {
			entered++
		}
	}
	if entered != 1 {
		t.Fatalf("guessing phase-entry effect fired %d times, want exactly 1", entered)
	}
	if len(f.hooks.newTurns) != 1 {
		t.Errorf("OnNewTurn fired %d times, want 1 for the turn riding the self-stamped doc", len(f.hooks.newTurns))
	}
	if st := f.rec.State(); st.Phase != models.PhaseGuessing {
		t.Errorf("phase = %s, want adopted guessing", st.Phase)
	}
}

func TestReconcilerOwnerNodeSelfWritesStaySilent(t *testing.T) {
	f := newReconcileFixture(t)
	// The owner node's reconciler: its Owner loop fires effects at write
	// time, so self-stamped documents must trigger nothing here.
	ownerRec := NewReconciler(f.store, media.NewLogPlayer(), f.hooks, f.clock, testConfig(), f.sessionID, f.hostID, f.hostID)

	if err := ownerRec.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	f.ownerWrite(t, syncstore.Patch{Phase: syncstore.PhasePtr(models.PhaseTurnCountdown)})
	if err := ownerRec.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}

	if len(f.hooks.phases) != 0 || f.hooks.synced != 0 {
		t.Errorf("owner reconciler fired callbacks (phases=%v synced=%d), want full silence on own writes", f.hooks.phases, f.hooks.synced)
	}
	if st := ownerRec.State(); st == nil || st.Phase != models.PhaseTurnCountdown {
		t.Error("own writes must still be adopted into the local view")
	}
}

func TestReconcilerForceAdoptsDivergedPhase(t *testing.T) {
	f := newReconcileFixture(t)

	td := models.NewTurnData(f.hostID, f.selfID, &models.SongRef{ID: uuid.New()})
	f.ownerWrite(t, syncstore.Patch{
		Phase:    syncstore.PhasePtr(models.PhaseTurnCountdown),
		TurnData: td,
	})
	f.tick(t)

	// This client slept through audio_playing and guessing.
	f.ownerWrite(t, syncstore.Patch{Phase: syncstore.PhasePtr(models.PhaseVoting)})
	f.tick(t)

	st := f.rec.State()
	if st.Phase != models.PhaseVoting {
		t.Fatalf("phase = %s, want force-adopted voting", st.Phase)
	}
	entered := f.hooks.phases[len(f.hooks.phases)-1]
	if entered != models.PhaseVoting {
		t.Errorf("last entered phase = %s, want voting", entered)
	}
}

func TestReconcilerStateBeforeFirstSync(t *testing.T) {
	f := newReconcileFixture(t)
	if f.rec.State() != nil {
		t.Error("State() before the first sync should be nil")
	}
	if f.rec.TimeRemaining() != 0 {
		t.Error("TimeRemaining() before the first sync should be 0")
	}
}
