package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"locusfocus-backend/internal/domain"
	"locusfocus-backend/internal/dto"
	"locusfocus-backend/internal/service"
)

// StateProvider returns the current snapshot of a room.
type StateProvider interface {
	GetSnapshot(ctx context.Context, roomID string) (*domain.Snapshot, error)
}

var validate = validator.New()

const stateTimeout = 5 * time.Second

// Client is one websocket connection. It is subscribed to at most one room
// at a time, chosen by the join frames it sends.
type Client struct {
	id    string
	hub   *Hub
	conn  *websocket.Conn
	state StateProvider

	mu     sync.Mutex
	send   chan []byte
	closed bool
	roomID string
	userID string
}

var _ Channel = (*Client)(nil)

// NewClient wraps an upgraded connection.
func NewClient(h *Hub, conn *websocket.Conn, state StateProvider) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		state: state,
		send:  make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

// Send queues a message without blocking.
func (c *Client) Send(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which then closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) logger() *logrus.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return logrus.WithFields(logrus.Fields{"conn_id": c.id, "room_id": c.roomID, "user_id": c.userID})
}

// ReadPump reads client frames until the connection fails, then removes the
// client from every room.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnsubscribeAll(c)
		c.Close()
		c.conn.Close()
		c.logger().Info("readPump exited, client unsubscribed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logger().Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logger().Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg dto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("malformed message")
		return
	}
	if err := validate.Struct(msg); err != nil {
		c.sendError("invalid message: " + err.Error())
		return
	}

	switch msg.Type {
	case domain.MessageJoin:
		c.join(msg.RoomID, msg.UserID)
	case domain.MessageLeave:
		c.leave()
	}
}

func (c *Client) join(roomID, userID string) {
	c.mu.Lock()
	previous := c.roomID
	c.roomID = roomID
	c.userID = userID
	c.mu.Unlock()

	if previous != "" && previous != roomID {
		c.hub.Unsubscribe(previous, c)
	}
	if !c.hub.Subscribe(roomID, c) {
		c.sendError("server is shutting down")
		return
	}
	log := c.logger()
	log.Info("Client joined room channel")

	ctx, cancel := context.WithTimeout(context.Background(), stateTimeout)
	defer cancel()
	snap, err := c.state.GetSnapshot(ctx, roomID)
	if err != nil && !errors.Is(err, service.ErrRoomNotFound) {
		log.WithError(err).Error("Failed to load state for joined client")
		c.sendError("failed to load room state")
		return
	}
	// snap is nil when the room has not been created yet.
	c.sendJSON(domain.StateEvent{Type: domain.MessageState, Data: snap})
}

func (c *Client) leave() {
	c.mu.Lock()
	roomID := c.roomID
	c.roomID = ""
	c.mu.Unlock()

	if roomID != "" {
		c.hub.Unsubscribe(roomID, c)
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "room_id": roomID}).Info("Client left room channel")
	}
}

func (c *Client) sendError(message string) {
	c.sendJSON(dto.ErrorDTO{Type: domain.MessageError, Message: message})
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.logger().WithError(err).Error("Failed to marshal outgoing message")
		return
	}
	if !c.Send(b) {
		c.logger().Warn("Send buffer full or closed, message dropped")
	}
}

// WritePump drains the send channel to the connection and keeps it alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger().WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger().WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

// RoomID returns the room the client is currently subscribed to, if any.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}
