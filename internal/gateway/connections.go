package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans SyncState snapshots out to WebSocket clients,
// one connection pool per session. The gateway is read-only: clients
// contribute guesses and votes through their own engine Participant, not
// through this socket.
type ConnectionManager struct {
	sessionConnections map[uuid.UUID]map[*Connection]bool
	mu                 sync.RWMutex

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	broadcastCh chan broadcastMessage
}

// Connection is one WebSocket subscriber.
type Connection struct {
	ID        string
	UserID    string
	SessionID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	SessionID uuid.UUID
	Payload   []byte
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// co-located clients; tighten when exposed beyond the LAN
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sessionConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 256),
	}
}

// Start processes broadcasts until the context is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("gateway connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway connection manager shutting down")
			return
		case msg := <-cm.broadcastCh:
			cm.handleBroadcast(msg)
		}
	}
}

// Upgrade turns an HTTP request into a subscribed WebSocket connection.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request, userID string, sessionID uuid.UUID) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		SessionID:   sessionID,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}
	cm.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", userID).
		Str("session_id", sessionID.String()).
		Msg("gateway connection established")
	return c, nil
}

// SendJSON queues a JSON payload for this connection only.
func (c *Connection) SendJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Broadcast queues a JSON payload for every subscriber of a session.
func (cm *ConnectionManager) Broadcast(sessionID uuid.UUID, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal gateway broadcast")
		return
	}
	select {
	case cm.broadcastCh <- broadcastMessage{SessionID: sessionID, Payload: payload}:
	default:
		log.Warn().Str("session_id", sessionID.String()).Msg("gateway broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) register(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.sessionConnections[c.SessionID] == nil {
		cm.sessionConnections[c.SessionID] = make(map[*Connection]bool)
	}
	cm.sessionConnections[c.SessionID][c] = true
}

func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if conns, ok := cm.sessionConnections[c.SessionID]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			close(c.Send)
			if len(conns) == 0 {
				delete(cm.sessionConnections, c.SessionID)
			}
		}
	}
}

func (cm *ConnectionManager) handleBroadcast(msg broadcastMessage) {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.sessionConnections[msg.SessionID]))
	for c := range cm.sessionConnections[msg.SessionID] {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.Send <- msg.Payload:
		default:
			log.Warn().
				Str("connection_id", c.ID).
				Msg("gateway send buffer full, dropping connection")
			cm.unregister(c)
			c.Conn.Close()
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregister(c)
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("gateway write failed")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.LastPing = time.Now()
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected gateway close")
			}
			return
		}
		// inbound messages are ignored; the socket is a one-way feed
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
