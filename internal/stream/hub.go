// Package stream pushes live monitor snapshots to WebSocket clients,
// e.g. a dashboard page watching the apiary.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/afroash/hive-monitor/internal/models"
)

const writeTimeout = 10 * time.Second

// Snapshot is the envelope broadcast to every connected client after
// each monitor cycle.
type Snapshot struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Count     int               `json:"count"`
	Readings  []*models.Reading `json:"readings"`
}

// Hub manages WebSocket subscribers and fans snapshots out to them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// The stream is read-only local monitoring data; any origin may
		// subscribe.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return h
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade stream connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().
		Str("remote", conn.RemoteAddr().String()).
		Int("clients", count).
		Msg("stream client connected")

	// Clients don't send anything meaningful; the read loop just
	// detects disconnects.
	go h.readUntilClosed(conn)
}

func (h *Hub) readUntilClosed(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends the snapshot to every connected client, dropping the
// ones that fail to accept the write.
func (h *Hub) Broadcast(readings []*models.Reading, ts time.Time) {
	payload, err := json.Marshal(Snapshot{
		Type:      "snapshot",
		Timestamp: ts,
		Count:     len(readings),
		Readings:  readings,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode snapshot")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Err(err).
				Msg("dropping stream client")
			h.drop(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if present {
		conn.Close()
	}
}
