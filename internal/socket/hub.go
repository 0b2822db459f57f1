// internal/socket/hub.go
package socket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Hub fans messages out to every connection watching a form session.
type Hub struct {
	// clients is keyed by session id; one session can be watched from several tabs.
	clients map[string]map[*websocket.Conn]*client
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*client),
		logger:  logger,
	}
}

func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*websocket.Conn]*client)
	}
	h.clients[sessionID][conn] = &client{conn: conn}
	h.logger.Info("websocket client registered", zap.String("sessionID", sessionID))
}

func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		h.logger.Info("websocket client unregistered", zap.String("sessionID", sessionID))
	}
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}

// Count returns how many connections watch sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Send delivers message to every watcher of sessionID. A session nobody
// watches is not an error; failed writes are logged and skipped.
func (h *Hub) Send(sessionID string, message []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[sessionID]))
	for _, c := range h.clients[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, message); err != nil {
			h.logger.Warn("failed to push to websocket client", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
}
