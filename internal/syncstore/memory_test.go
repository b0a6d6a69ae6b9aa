package syncstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/models"
)

func newTestStore(t *testing.T) (*MemoryStore, uuid.UUID, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)
	sessionID := uuid.New()

	err := store.Create(context.Background(), &models.SyncState{
		SessionID: sessionID,
		Phase:     models.PhasePreGameCountdown,
		TurnData:  models.NewTurnData(uuid.New(), uuid.New(), nil),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return store, sessionID, clock
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	store := NewMemoryStore(clockwork.NewFakeClock())

	if _, err := store.Read(context.Background(), uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Read() = %v, want ErrSessionNotFound", err)
	}
	if err := store.Write(context.Background(), uuid.New(), Patch{}, uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Write() = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreUpdatedAtStrictlyIncreases(t *testing.T) {
	store, sessionID, _ := newTestStore(t)
	actor := uuid.New()

	// The fake clock never advances, so every stamp relies on the
	// strictly-increasing guarantee.
	var prev time.Time
	for i := 0; i < 5; i++ {
		if err := store.Write(context.Background(), sessionID, Patch{TimeRemaining: IntPtr(i)}, actor); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
		doc, err := store.Read(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("Read() failed: %v", err)
		}
		if !doc.UpdatedAt.After(prev) {
			t.Fatalf("write %d: updated_at %v did not advance past %v", i, doc.UpdatedAt, prev)
		}
		prev = doc.UpdatedAt
	}
}

func TestMemoryStoreRecordsActor(t *testing.T) {
	store, sessionID, _ := newTestStore(t)
	actor := uuid.New()

	if err := store.Write(context.Background(), sessionID, Patch{}, actor); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	doc, _ := store.Read(context.Background(), sessionID)
	if doc.UpdatedBy != actor {
		t.Errorf("updated_by = %v, want %v", doc.UpdatedBy, actor)
	}
}

func TestMemoryStorePerKeyMergesSurviveInterleaving(t *testing.T) {
	store, sessionID, clock := newTestStore(t)
	playerA, playerB := uuid.New(), uuid.New()

	// Two contributors write in the same tick; neither read the other's
	// contribution first. Both must land.
	writeA := Patch{AddChallenges: map[uuid.UUID]models.Challenge{
		playerA: {PlayerID: playerA, RegisteredAt: clock.Now()},
	}}
	writeB := Patch{AddVotes: map[uuid.UUID]models.Vote{
		playerB: models.VoteAccept,
	}}
	if err := store.Write(context.Background(), sessionID, writeA, playerA); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := store.Write(context.Background(), sessionID, writeB, playerB); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	doc, err := store.Read(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if _, ok := doc.TurnData.Challenges[playerA]; !ok {
		t.Error("challenge from player A was lost")
	}
	if doc.TurnData.Votes[playerB] != models.VoteAccept {
		t.Error("vote from player B was lost")
	}
}

func TestMemoryStoreChallengeKeepsEarliestRegistration(t *testing.T) {
	store, sessionID, clock := newTestStore(t)
	player := uuid.New()
	early := clock.Now()

	write := func(at time.Time) {
		t.Helper()
		err := store.Write(context.Background(), sessionID, Patch{
			AddChallenges: map[uuid.UUID]models.Challenge{
				player: {PlayerID: player, RegisteredAt: at},
			},
		}, player)
		if err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}
	write(early)
	write(early.Add(10 * time.Second))

	doc, _ := store.Read(context.Background(), sessionID)
	if got := doc.TurnData.Challenges[player].RegisteredAt; !got.Equal(early) {
		t.Errorf("registered_at = %v, want the earliest %v", got, early)
	}
}

func TestMemoryStoreWholesaleTurnDataReplace(t *testing.T) {
	store, sessionID, clock := newTestStore(t)
	owner := uuid.New()
	challenger := uuid.New()

	// Seed a contribution, then replace the sub-document.
	err := store.Write(context.Background(), sessionID, Patch{
		AddChallenges: map[uuid.UUID]models.Challenge{
			challenger: {PlayerID: challenger, RegisteredAt: clock.Now()},
		},
	}, challenger)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	fresh := models.NewTurnData(uuid.New(), uuid.New(), nil)
	if err := store.Write(context.Background(), sessionID, Patch{TurnData: fresh}, owner); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	doc, _ := store.Read(context.Background(), sessionID)
	if len(doc.TurnData.Challenges) != 0 {
		t.Error("wholesale replace should drop previous contributions")
	}
	if doc.TurnData.AttackerID != fresh.AttackerID {
		t.Error("replacement sub-document not stored")
	}
}

func TestMemoryStoreReadReturnsCopy(t *testing.T) {
	store, sessionID, _ := newTestStore(t)

	doc, _ := store.Read(context.Background(), sessionID)
	doc.Phase = models.PhaseGameFinished
	doc.TurnData.FailedAttempts = 99

	again, _ := store.Read(context.Background(), sessionID)
	if again.Phase == models.PhaseGameFinished || again.TurnData.FailedAttempts == 99 {
		t.Error("mutating a read result leaked into the store")
	}
}
