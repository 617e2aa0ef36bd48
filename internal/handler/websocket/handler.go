package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/hub"
)

// WebSocketHandler upgrades push channel requests and hands the connection
// to a hub client. Room membership is decided later by join frames.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	state    hub.StateProvider
}

// NewWebSocketHandler creates a handler. allowedOrigin "*" or "" accepts any
// origin, which is what the browser extension needs.
func NewWebSocketHandler(h *hub.Hub, state hub.StateProvider, allowedOrigin string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if state == nil {
		panic("StateProvider cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == allowedOrigin
		},
	}

	return &WebSocketHandler{upgrader: upgrader, hub: h, state: state}
}

// HandleConnection upgrades the request and starts the client pumps.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logrus.WithError(err).WithField("client_ip", c.ClientIP()).Warn("WS Handler: failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, h.state)
	logrus.WithFields(logrus.Fields{
		"conn_id":   client.ID(),
		"client_ip": c.ClientIP(),
	}).Info("WS Handler: connection upgraded")

	client.Run()
}
