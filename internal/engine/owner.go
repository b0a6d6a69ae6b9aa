package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/events"
	"github.com/okatzz/shotobump-sub000/internal/media"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/songs"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
	"github.com/rs/zerolog/log"
)

// maxDefenderAttempts is how many guessing attempts the defender gets
// before the challenger (if any) takes over.
const maxDefenderAttempts = 3

// OwnerStore is what the owner needs from the shared state store: the
// common read/write contract plus initial document creation.
type OwnerStore interface {
	syncstore.Store
	Create(ctx context.Context, doc *models.SyncState) error
}

// Owner is the authoritative session clock. Exactly one client per
// session runs it: the host. It alone advances phase, timer, turn index
// and scores; every tick it re-reads the store so guesses, challenges and
// votes written by other clients can force an early advance.
type Owner struct {
	store     OwnerStore
	songs     songs.Source
	player    media.Player
	publisher events.Publisher
	hooks     Hooks
	clock     clockwork.Clock
	cfg       Config

	session *models.Session
	names   map[uuid.UUID]string

	mu        sync.Mutex
	cur       *models.SyncState
	remaining int
	// lastWinner is the accepted guesser of the most recent resolved
	// turn; the next defender selection skips them when possible.
	lastWinner *uuid.UUID
}

func NewOwner(
	store OwnerStore,
	source songs.Source,
	player media.Player,
	publisher events.Publisher,
	hooks Hooks,
	clock clockwork.Clock,
	cfg Config,
	session *models.Session,
	players []models.Player,
) *Owner {
	names := make(map[uuid.UUID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName
	}
	return &Owner{
		store:     store,
		songs:     source,
		player:    player,
		publisher: publisher,
		hooks:     hooks,
		clock:     clock,
		cfg:       cfg.Normalize(),
		session:   session,
		names:     names,
	}
}

// Start writes the initial document and begins the pre-game countdown.
func (o *Owner) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Every pairing needs a distinct attacker and defender.
	if len(o.session.PlayerOrder) < 2 {
		return ErrTooFewPlayers
	}

	scores := make([]models.PlayerScore, 0, len(o.session.PlayerOrder))
	for _, id := range o.session.PlayerOrder {
		scores = append(scores, models.PlayerScore{
			UserID:      id,
			DisplayName: o.names[id],
			Online:      true,
		})
	}

	doc := &models.SyncState{
		SessionID:     o.session.ID,
		Phase:         models.PhasePreGameCountdown,
		TimeRemaining: o.cfg.PreGameSec,
		PlayerScores:  scores,
		PlayerOrder:   append([]uuid.UUID(nil), o.session.PlayerOrder...),
		UpdatedBy:     o.session.HostID,
	}
	if err := o.store.Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create sync state: %w", err)
	}

	o.cur = doc.Clone()
	o.remaining = o.cfg.PreGameSec
	o.hooks.OnPhaseEntered(models.PhasePreGameCountdown, o.cur)

	log.Info().
		Str("session_id", o.session.ID.String()).
		Int("players", len(o.session.PlayerOrder)).
		Msg("session clock started")
	return nil
}

// Run ticks the authoritative clock once per interval until the context
// is cancelled or the game finishes.
func (o *Owner) Run(ctx context.Context) error {
	ticker := o.clock.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if err := o.Tick(ctx); err != nil {
				log.Warn().Err(err).
					Str("session_id", o.session.ID.String()).
					Msg("owner tick failed")
				continue
			}
			if o.Phase() == models.PhaseGameFinished {
				return nil
			}
		}
	}
}

// Tick runs one iteration of the authoritative loop: re-read the store
// (to pick up contributions from other clients), evaluate early-advance
// conditions, then count the local timer down. Only the owner decrements
// the timer; followers adopt it from the document.
func (o *Owner) Tick(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	remote, err := o.store.Read(ctx, o.session.ID)
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}
	o.cur = remote

	switch remote.Phase {
	case models.PhaseGameFinished:
		return nil
	case models.PhaseTurnResults:
		// waits for an explicit NextTurn/SkipTurn from the host
		return nil
	}

	td := remote.TurnData
	switch remote.Phase {
	case models.PhaseAudioPlaying, models.PhaseGuessing:
		// A submitted guess is a first-class transition: never sit out
		// the rest of the audio timer once an answer exists.
		if td.HasGuess() {
			return o.enterVoting(ctx)
		}
	case models.PhaseVoting:
		if td != nil && !td.VotingCompleted {
			switch ResolveVotes(td, len(remote.PlayerOrder), false) {
			case VoteAccepted:
				return o.acceptGuess(ctx)
			case VoteRejected:
				return o.failAttempt(ctx)
			}
		}
	}

	o.remaining--
	if o.remaining > 0 {
		return o.writeState(ctx, syncstore.Patch{TimeRemaining: syncstore.IntPtr(o.remaining)})
	}
	return o.expireTimer(ctx)
}

// Phase returns the phase of the owner's local cache.
func (o *Owner) Phase() models.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return ""
	}
	return o.cur.Phase
}

// State returns a copy of the owner's local cache.
func (o *Owner) State() *models.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cur.Clone()
}

// NextTurn rotates to a brand-new attacker/defender pairing. Only legal
// in turn_results; this is the one transition with no timer.
func (o *Owner) NextTurn(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cur == nil || o.cur.Phase != models.PhaseTurnResults {
		return ErrInvalidPhase
	}
	if winner, ok := TargetReached(o.cur.PlayerScores, o.cfg.TargetScore); ok {
		return o.finishGame(ctx, "target_score", winner)
	}

	attacker, defender := NextPairing(o.cur.PlayerOrder, o.cur.TurnData.AttackerID, o.lastWinner)
	return o.startTurn(ctx, attacker, defender, o.cur.CurrentTurnIndex+1)
}

// SkipTurn keeps the current attacker/defender, discards the current song
// and starts a fresh attempt cycle with a newly fetched song. The turn
// index does not move because the pairing is unchanged.
func (o *Owner) SkipTurn(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cur == nil || o.cur.TurnData == nil {
		return ErrNoActiveTurn
	}
	switch o.cur.Phase {
	case models.PhasePreGameCountdown, models.PhaseGameFinished:
		return ErrInvalidPhase
	}

	td := o.cur.TurnData
	song, attacker, err := o.fetchSong(ctx, td.AttackerID)
	if errors.Is(err, songs.ErrNoSongAvailable) {
		return o.finishGame(ctx, "no_songs_left", uuid.Nil)
	}
	if err != nil {
		return err
	}
	if attacker != td.AttackerID {
		// The skipping attacker ran out of songs; this is a new pairing.
		return o.startTurn(ctx, attacker, DefenderFor(o.cur.PlayerOrder, attacker, o.lastWinner), o.cur.CurrentTurnIndex+1)
	}

	fresh := models.NewTurnData(td.AttackerID, td.DefenderID, song)
	for id, c := range td.Challenges {
		fresh.Challenges[id] = c
	}
	o.remaining = o.cfg.TurnCountdownSec
	return o.writeState(ctx, syncstore.Patch{
		Phase:         syncstore.PhasePtr(models.PhaseTurnCountdown),
		TimeRemaining: syncstore.IntPtr(o.remaining),
		TurnData:      fresh,
		ShowAlbumArt:  syncstore.BoolPtr(false),
	})
}

// EndTurnEarly aborts the running turn with a forced attacker loss.
func (o *Owner) EndTurnEarly(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cur == nil || o.cur.TurnData == nil {
		return ErrNoActiveTurn
	}
	switch o.cur.Phase {
	case models.PhaseTurnCountdown, models.PhaseAudioPlaying, models.PhaseGuessing, models.PhaseVoting:
	default:
		return ErrInvalidPhase
	}

	attacker := o.cur.TurnData.AttackerID
	o.lastWinner = nil
	scores := ApplyDelta(o.cur.PlayerScores, attacker, -1)
	return o.resolveTurn(ctx, OutcomeAttackerLost, attacker, -1, scores)
}

// EndGame finishes the session immediately.
func (o *Owner) EndGame(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cur == nil || o.cur.Phase == models.PhaseGameFinished {
		return ErrInvalidPhase
	}
	winner := uuid.Nil
	if leader, ok := Leader(o.cur.PlayerScores); ok {
		winner = leader.UserID
	}
	return o.finishGame(ctx, "manual", winner)
}

func (o *Owner) enterVoting(ctx context.Context) error {
	o.remaining = o.cfg.VotingSec
	return o.writeState(ctx, syncstore.Patch{
		Phase:         syncstore.PhasePtr(models.PhaseVoting),
		TimeRemaining: syncstore.IntPtr(o.remaining),
	})
}

func (o *Owner) acceptGuess(ctx context.Context) error {
	td := o.cur.TurnData
	winner := td.CurrentGuesserID
	o.lastWinner = &winner
	scores := ApplyDelta(o.cur.PlayerScores, winner, +1)
	return o.resolveTurn(ctx, OutcomeGuesserWon, winner, +1, scores)
}

// failAttempt is the shared path for a guessing timeout with no guess and
// a voting rejection: both consume one attempt.
func (o *Owner) failAttempt(ctx context.Context) error {
	td := o.cur.TurnData.Clone()

	if td.ChallengerPhase {
		// The challenger was the last recourse; nobody named the song.
		o.lastWinner = nil
		scores := ApplyDelta(o.cur.PlayerScores, td.AttackerID, -1)
		return o.resolveTurn(ctx, OutcomeAttackerLost, td.AttackerID, -1, scores)
	}

	td.FailedAttempts++
	if td.FailedAttempts < maxDefenderAttempts {
		td.CurrentGuesserID = td.DefenderID
		return o.startAttempt(ctx, td)
	}

	if challenger, ok := td.FirstChallenger(); ok {
		delete(td.Challenges, challenger)
		td.CurrentGuesserID = challenger
		td.ChallengerPhase = true
		log.Info().
			Str("session_id", o.session.ID.String()).
			Str("challenger_id", challenger.String()).
			Msg("defender exhausted, challenger takes over")
		return o.startAttempt(ctx, td)
	}

	// Defender never guessed and nobody challenged: the attacker wins.
	o.lastWinner = nil
	scores := ApplyDelta(o.cur.PlayerScores, td.AttackerID, +1)
	return o.resolveTurn(ctx, OutcomeAttackerWon, td.AttackerID, +1, scores)
}

// startAttempt restarts the countdown for the same turn with guesses and
// votes cleared. Challenges carry over; they belong to the turn.
func (o *Owner) startAttempt(ctx context.Context, td *models.TurnData) error {
	td.Guesses = map[uuid.UUID]models.Guess{}
	td.Votes = map[uuid.UUID]models.Vote{}
	td.VotingCompleted = false

	o.remaining = o.cfg.TurnCountdownSec
	return o.writeState(ctx, syncstore.Patch{
		Phase:         syncstore.PhasePtr(models.PhaseTurnCountdown),
		TimeRemaining: syncstore.IntPtr(o.remaining),
		TurnData:      td,
	})
}

func (o *Owner) expireTimer(ctx context.Context) error {
	switch o.cur.Phase {
	case models.PhasePreGameCountdown:
		// First turn: the host attacks, the next player defends.
		attacker := o.session.HostID
		defender := DefenderFor(o.cur.PlayerOrder, attacker, nil)
		return o.startTurn(ctx, attacker, defender, 0)

	case models.PhaseTurnCountdown:
		o.remaining = o.cfg.AudioSec
		return o.writeState(ctx, syncstore.Patch{
			Phase:         syncstore.PhasePtr(models.PhaseAudioPlaying),
			TimeRemaining: syncstore.IntPtr(o.remaining),
		})

	case models.PhaseAudioPlaying:
		o.remaining = o.cfg.GuessingSec
		return o.writeState(ctx, syncstore.Patch{
			Phase:         syncstore.PhasePtr(models.PhaseGuessing),
			TimeRemaining: syncstore.IntPtr(o.remaining),
		})

	case models.PhaseGuessing, models.PhaseVoting:
		return o.failAttempt(ctx)
	}
	return nil
}

// startTurn begins a brand-new pairing: fetch the attacker's next song,
// reset the turn sub-document (challenges included) and enter the
// countdown. Falls forward to the next attacker with a song when the
// intended one has none left.
func (o *Owner) startTurn(ctx context.Context, attacker, defender uuid.UUID, turnIndex int) error {
	song, actual, err := o.fetchSong(ctx, attacker)
	if errors.Is(err, songs.ErrNoSongAvailable) {
		return o.finishGame(ctx, "no_songs_left", uuid.Nil)
	}
	if err != nil {
		return err
	}
	if actual != attacker {
		attacker = actual
		defender = DefenderFor(o.cur.PlayerOrder, attacker, o.lastWinner)
	}
	o.lastWinner = nil

	td := models.NewTurnData(attacker, defender, song)
	o.remaining = o.cfg.TurnCountdownSec
	if err := o.writeState(ctx, syncstore.Patch{
		Phase:            syncstore.PhasePtr(models.PhaseTurnCountdown),
		TimeRemaining:    syncstore.IntPtr(o.remaining),
		CurrentTurnIndex: syncstore.IntPtr(turnIndex),
		TurnData:         td,
		ShowAlbumArt:     syncstore.BoolPtr(false),
	}); err != nil {
		return err
	}

	o.publish(ctx, events.EventTypeTurnStarted, events.TurnStartedPayload{
		TurnIndex:  turnIndex,
		AttackerID: attacker,
		GuesserID:  defender,
	})
	log.Info().
		Str("session_id", o.session.ID.String()).
		Int("turn_index", turnIndex).
		Str("attacker_id", attacker.String()).
		Str("defender_id", defender.String()).
		Msg("turn started")
	return nil
}

// fetchSong returns the next song for the attacker, walking the rotation
// when players have run dry. Returns the player the song belongs to.
func (o *Owner) fetchSong(ctx context.Context, attacker uuid.UUID) (*models.SongRef, uuid.UUID, error) {
	id := attacker
	for i := 0; i < len(o.cur.PlayerOrder); i++ {
		song, err := o.songs.NextSong(ctx, id, o.session.ID)
		if err == nil {
			return song, id, nil
		}
		if !errors.Is(err, songs.ErrNoSongAvailable) {
			return nil, uuid.Nil, fmt.Errorf("failed to fetch song: %w", err)
		}
		o.hooks.OnSongUnavailable(id)
		log.Warn().
			Str("session_id", o.session.ID.String()).
			Str("player_id", id.String()).
			Msg("player has no unplayed songs")
		id = NextInOrder(o.cur.PlayerOrder, id)
	}
	return nil, uuid.Nil, songs.ErrNoSongAvailable
}

// resolveTurn ends the turn: apply the single score delta, reveal the
// song and wait in turn_results for the host.
func (o *Owner) resolveTurn(ctx context.Context, outcome TurnOutcome, scoredID uuid.UUID, delta int, scores []models.PlayerScore) error {
	o.remaining = 0
	if err := o.writeState(ctx, syncstore.Patch{
		Phase:           syncstore.PhasePtr(models.PhaseTurnResults),
		TimeRemaining:   syncstore.IntPtr(0),
		PlayerScores:    scores,
		ShowAlbumArt:    syncstore.BoolPtr(true),
		VotingCompleted: syncstore.BoolPtr(true),
	}); err != nil {
		return err
	}

	payload := events.TurnResolvedPayload{
		TurnIndex:  o.cur.CurrentTurnIndex,
		Outcome:    string(outcome),
		ScoredID:   scoredID,
		ScoreDelta: delta,
	}
	if td := o.cur.TurnData; td != nil && td.CurrentSong != nil {
		payload.SongTitle = td.CurrentSong.Title
		payload.SongArtist = td.CurrentSong.Artist
	}
	o.publish(ctx, events.EventTypeTurnResolved, payload)

	log.Info().
		Str("session_id", o.session.ID.String()).
		Int("turn_index", o.cur.CurrentTurnIndex).
		Str("outcome", string(outcome)).
		Str("scored_id", scoredID.String()).
		Int("delta", delta).
		Msg("turn resolved")
	return nil
}

func (o *Owner) finishGame(ctx context.Context, reason string, winner uuid.UUID) error {
	o.remaining = 0
	if err := o.writeState(ctx, syncstore.Patch{
		Phase:         syncstore.PhasePtr(models.PhaseGameFinished),
		TimeRemaining: syncstore.IntPtr(0),
	}); err != nil {
		return err
	}

	o.publish(ctx, events.EventTypeGameFinished, events.GameFinishedPayload{
		TurnIndex: o.cur.CurrentTurnIndex,
		WinnerID:  winner,
		Reason:    reason,
	})
	log.Info().
		Str("session_id", o.session.ID.String()).
		Str("reason", reason).
		Msg("game finished")
	return nil
}

// writeState persists the patch and mirrors it into the local cache,
// firing the owner's own phase side effects. Followers get theirs from
// their reconcilers; the owner's reconciler skips self-writes, so the
// effects have to fire here.
func (o *Owner) writeState(ctx context.Context, patch syncstore.Patch) error {
	if err := o.store.Write(ctx, o.session.ID, patch, o.session.HostID); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}

	prev := o.cur.Phase
	patch.Apply(o.cur)
	o.cur.UpdatedBy = o.session.HostID
	if o.cur.Phase != prev {
		firePhaseEffects(prev, o.cur, o.player, o.hooks)
		o.publish(ctx, events.EventTypePhaseChanged, events.PhaseChangedPayload{
			From:          string(prev),
			To:            string(o.cur.Phase),
			TurnIndex:     o.cur.CurrentTurnIndex,
			TimeRemaining: o.cur.TimeRemaining,
		})
	}
	return nil
}

// publish pushes an event onto the feed. Feed failures never fail a turn.
func (o *Owner) publish(ctx context.Context, typ events.EventType, payload interface{}) {
	ev := events.Event{
		ID:        uuid.New(),
		SessionID: o.session.ID,
		Type:      typ,
		Timestamp: o.clock.Now(),
		Payload:   payload,
	}
	if err := o.publisher.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("event_type", string(typ)).
			Msg("failed to publish engine event")
	}
}
