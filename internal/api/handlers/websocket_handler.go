// internal/api/handlers/websocket_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"rental-admin-console/internal/socket"
	"rental-admin-console/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Maximum wait for any message, ping included, from the client.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub      *socket.Hub
	Registry *wizard.Registry
	Logger   *zap.Logger
}

// ServeWs streams wizard views for one form session, starting with the current one.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	sessionID := c.Param("sessionID")
	ctrl, err := h.Registry.Open(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	h.Hub.Register(sessionID, conn)
	defer func() {
		h.Hub.Unregister(sessionID, conn)
		conn.Close()
	}()

	if initial, err := json.Marshal(ctrl.View()); err == nil {
		h.Hub.Send(sessionID, initial)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Logger.Warn("unexpected websocket close", zap.String("sessionID", sessionID), zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// Broadcast is the wizard observer that feeds the hub.
func Broadcast(hub *socket.Hub, logger *zap.Logger) func(wizard.View) {
	return func(v wizard.View) {
		msg, err := json.Marshal(v)
		if err != nil {
			logger.Error("failed to encode wizard view", zap.Error(err))
			return
		}
		hub.Send(v.SessionID, msg)
	}
}
