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

	"github.com/mcdev12/scotchauction/go/internal/game/events"
)

// MessageHandler consumes inbound client messages and disconnects.
type MessageHandler interface {
	HandleMessage(conn *Connection, data []byte)
	HandleDisconnect(conn *Connection)
}

// ConnectionManager manages WebSocket connections for session events.
// Connections start unbound; a LOGIN or SPECTATE binds them to a session.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[*Connection]bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  MessageHandler

	broadcastCh chan *events.Envelope
}

// Connection represents a WebSocket connection to a client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	// Binding state, set once by LOGIN or SPECTATE.
	bindMu    sync.RWMutex
	sessionID uuid.UUID
	name      string
	spectator bool
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan *events.Envelope, 1000),
	}
}

// SetHandler wires the inbound message handler. Must be called before any
// connection is upgraded.
func (cm *ConnectionManager) SetHandler(h MessageHandler) {
	cm.handler = h
}

// Start begins processing broadcast messages.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case env := <-cm.broadcastCh:
			cm.handleBroadcast(env)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. The new
// connection stays unbound until the client logs in or spectates.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Msg("WebSocket connection established")

	return nil
}

// BindParticipant attaches the connection to a session seat. Routing of
// private events relies on this binding, never on comparing live handles.
func (c *Connection) BindParticipant(sessionID uuid.UUID, name string) {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	c.sessionID = sessionID
	c.name = name
	c.spectator = false
}

// BindSpectator attaches the connection to a session as a read-only
// observer.
func (c *Connection) BindSpectator(sessionID uuid.UUID) {
	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	c.sessionID = sessionID
	c.name = ""
	c.spectator = true
}

// SessionID returns the bound session, or uuid.Nil when unbound.
func (c *Connection) SessionID() uuid.UUID {
	c.bindMu.RLock()
	defer c.bindMu.RUnlock()
	return c.sessionID
}

// ParticipantName returns the bound participant name, empty for spectators
// and unbound connections.
func (c *Connection) ParticipantName() string {
	c.bindMu.RLock()
	defer c.bindMu.RUnlock()
	return c.name
}

// IsBound reports whether the connection is attached to a session.
func (c *Connection) IsBound() bool {
	return c.SessionID() != uuid.Nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Str("name", conn.ParticipantName()).
			Msg("connection unregistered")
	}
}

// Broadcast queues an event for every connection bound to its session.
func (cm *ConnectionManager) Broadcast(env *events.Envelope) {
	select {
	case cm.broadcastCh <- env:
	default:
		log.Warn().Str("session_id", env.SessionID).Msg("broadcast channel full, dropping message")
	}
}

// SendTo delivers an event only to the named participant's connection.
func (cm *ConnectionManager) SendTo(sessionID uuid.UUID, name string, env *events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal private event")
		return
	}

	cm.mu.RLock()
	var target *Connection
	for conn := range cm.connections {
		if conn.SessionID() == sessionID && conn.ParticipantName() == name {
			target = conn
			break
		}
	}
	cm.mu.RUnlock()

	if target != nil {
		cm.send(target, data)
	}
}

// SendToConn delivers an event to one specific connection, bound or not.
// Used for login acks and connection-scoped errors.
func (cm *ConnectionManager) SendToConn(conn *Connection, env *events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	cm.send(conn, data)
}

func (cm *ConnectionManager) handleBroadcast(env *events.Envelope) {
	sessionID, err := uuid.Parse(env.SessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", env.SessionID).Msg("broadcast with invalid session id")
		return
	}

	cm.mu.RLock()
	var targets []*Connection
	for conn := range cm.connections {
		if conn.SessionID() == sessionID {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	// Marshal the event once
	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		cm.send(conn, data)
	}

	log.Debug().
		Str("event_type", string(env.Type)).
		Str("session_id", env.SessionID).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

func (cm *ConnectionManager) send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Connection is slow/dead, close it
		log.Warn().
			Str("connection_id", conn.ID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// ConnectionCount returns the number of live connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection. A read
// failure is the disconnect signal: the handler is notified exactly once
// so a vanished participant forfeits immediately.
func (c *Connection) readPump() {
	defer func() {
		if c.Manager.handler != nil {
			c.Manager.handler.HandleDisconnect(c)
		}
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.Manager.handler != nil {
			c.Manager.handler.HandleMessage(c, message)
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
