package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/okatzz/shotobump-sub000/internal/engine"
	"github.com/okatzz/shotobump-sub000/internal/events"
	"github.com/okatzz/shotobump-sub000/internal/gateway"
	"github.com/okatzz/shotobump-sub000/internal/media"
	"github.com/okatzz/shotobump-sub000/internal/models"
	"github.com/okatzz/shotobump-sub000/internal/songs"
	"github.com/okatzz/shotobump-sub000/internal/syncstore"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Store       engine.OwnerStore
	Songs       songs.Source
	Player      media.Player
	Publisher   events.Publisher
	Gateway     *gateway.ConnectionManager
	Handler     *gateway.Handler
	Owner       *engine.Owner
	Reconciler  *engine.Reconciler
	Participant *engine.Participant

	Session *models.Session
	SelfID  uuid.UUID
	IsOwner bool
}

// setupServices wires the dependency chain:
// store → song source → media/events → engine → gateway.
func setupServices(config *Config, pool *pgxpool.Pool) (*Services, error) {
	clock := clockwork.NewRealClock()

	sessionID, err := config.sessionID()
	if err != nil {
		return nil, err
	}
	hostID, err := config.hostID()
	if err != nil {
		return nil, err
	}

	selfID, err := uuid.Parse(getEnv("USER_ID", hostID.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid USER_ID: %w", err)
	}

	players := make([]models.Player, 0, len(config.Session.Players))
	order := make([]uuid.UUID, 0, len(config.Session.Players))
	for _, p := range config.Session.Players {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid player id %q: %w", p.ID, err)
		}
		players = append(players, models.Player{ID: id, DisplayName: p.DisplayName})
		order = append(order, id)
	}
	if len(players) < 2 {
		return nil, fmt.Errorf("session manifest needs at least two players, got %d", len(players))
	}

	session := &models.Session{
		ID:          sessionID,
		HostID:      hostID,
		PlayerOrder: order,
		Status:      models.SessionStatusWaiting,
		CreatedAt:   clock.Now(),
	}

	var store engine.OwnerStore
	var source songs.Source
	if pool != nil {
		store = syncstore.NewPostgresStore(pool, clock)
		source = songs.NewPostgresRepository(pool)
	} else {
		store = syncstore.NewMemoryStore(clock)
		source = songs.NewMemorySource()
		log.Warn().Msg("running with in-memory store, state is lost on restart")
	}

	publisher := setupPublisher()
	player := media.NewLogPlayer()

	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	handler := gateway.NewHandler(manager, store)
	hooks := gateway.NewBroadcastHooks(manager, sessionID)

	isOwner := selfID == hostID
	var owner *engine.Owner
	if isOwner {
		owner = engine.NewOwner(store, source, player, publisher, hooks, clock, config.Engine, session, players)
	}
	reconciler := engine.NewReconciler(store, player, hooks, clock, config.Engine, sessionID, selfID, hostID)
	participant := engine.NewParticipant(store, clock, sessionID, selfID)

	return &Services{
		Store:       store,
		Songs:       source,
		Player:      player,
		Publisher:   publisher,
		Gateway:     manager,
		Handler:     handler,
		Owner:       owner,
		Reconciler:  reconciler,
		Participant: participant,
		Session:     session,
		SelfID:      selfID,
		IsOwner:     isOwner,
	}, nil
}

func setupPublisher() events.Publisher {
	natsURL := getEnv("NATS_URL", "")
	if natsURL == "" {
		log.Info().Msg("NATS_URL not set, event feed disabled")
		return events.NewNopPublisher()
	}

	cfg := events.DefaultJetStreamConfig()
	cfg.URL = natsURL
	cfg.MaxAge = time.Duration(getEnvAsInt("NATS_EVENT_MAX_AGE_HOURS", 24)) * time.Hour

	publisher, err := events.NewJetStreamPublisher(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect event feed, continuing without it")
		return events.NewNopPublisher()
	}
	return publisher
}
