package broadcast

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/KirkDiggler/giftswap/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrHubBusy is returned when the hub's broadcast queue is full
var ErrHubBusy = errors.New("broadcast queue full")

// HubConfig holds configuration for websocket connections
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	QueueSize       int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultHubConfig returns default websocket configuration
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // clients only send control frames
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  32,
		QueueSize:       256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Hub streams snapshots to the websocket clients watching each game
type Hub struct {
	games map[string]map[*client]bool
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   HubConfig

	broadcastCh chan snapshot
}

type snapshot struct {
	gameID string
	data   []byte
}

// client is one websocket connection watching a game
type client struct {
	id          string
	gameID      string
	conn        *websocket.Conn
	send        chan []byte
	hub         *Hub
	connectedAt time.Time
}

// NewHub creates a websocket hub. Start must be running for Publish to deliver.
func NewHub(config HubConfig) *Hub {
	defaults := DefaultHubConfig()
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.SendBufferSize < 1 {
		config.SendBufferSize = defaults.SendBufferSize
	}
	if config.QueueSize < 1 {
		config.QueueSize = defaults.QueueSize
	}

	return &Hub{
		games: make(map[string]map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan snapshot, config.QueueSize),
	}
}

// Start delivers queued snapshots until ctx is cancelled
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("websocket hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info().Msg("websocket hub shutting down")
			return
		case msg := <-h.broadcastCh:
			h.deliver(msg)
		}
	}
}

// Publish queues a snapshot for every client watching gameID
func (h *Hub) Publish(ctx context.Context, gameID string, game *models.Game) error {
	data, err := encodeSnapshot(game)
	if err != nil {
		return err
	}

	select {
	case h.broadcastCh <- snapshot{gameID: gameID, data: data}:
		return nil
	default:
		return fmt.Errorf("%w: dropping update for game %s", ErrHubBusy, gameID)
	}
}

// Serve upgrades the request and subscribes the connection to gameID. The
// current snapshot, if given, is sent first.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, gameID string, current *models.Game) error {
	var initial []byte
	if current != nil {
		data, err := encodeSnapshot(current)
		if err != nil {
			return err
		}
		initial = data
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &client{
		id:          uuid.New().String(),
		gameID:      gameID,
		conn:        conn,
		send:        make(chan []byte, h.config.SendBufferSize),
		hub:         h,
		connectedAt: time.Now(),
	}
	if initial != nil {
		c.send <- initial
	}

	h.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("game_id", gameID).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection established")

	return nil
}

// ConnectionCount returns how many clients are watching gameID
func (h *Hub) ConnectionCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[c.gameID] == nil {
		h.games[c.gameID] = make(map[*client]bool)
	}
	h.games[c.gameID][c] = true

	log.Debug().
		Str("connection_id", c.id).
		Str("game_id", c.gameID).
		Int("total_connections", len(h.games[c.gameID])).
		Msg("connection registered")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.games[c.gameID]
	if !ok || !clients[c] {
		return
	}

	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.games, c.gameID)
	}

	log.Info().
		Str("connection_id", c.id).
		Str("game_id", c.gameID).
		Dur("connected_for", time.Since(c.connectedAt)).
		Msg("connection unregistered")
}

func (h *Hub) deliver(msg snapshot) {
	// Sends happen under the read lock so unregister cannot close a channel mid-send
	h.mu.RLock()
	delivered := 0
	var slow []*client
	for c := range h.games[msg.gameID] {
		select {
		case c.send <- msg.data:
			delivered++
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		// Slow client, drop it rather than stall everyone else
		log.Warn().
			Str("connection_id", c.id).
			Str("game_id", c.gameID).
			Msg("connection send buffer full, closing connection")
		h.unregister(c)
		c.conn.Close()
	}

	log.Debug().
		Str("game_id", msg.gameID).
		Int("connections", delivered).
		Msg("snapshot broadcast")
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	var all []*client
	for _, clients := range h.games {
		for c := range clients {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}

// writePump sends queued snapshots and keepalive pings to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write snapshot")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.id).Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump keeps the read deadline fresh and notices when the client goes away.
// The stream is one-way, so anything the client sends is discarded.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
