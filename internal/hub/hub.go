package hub

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WebSocket timings shared by the client pumps.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// Channel is a live push destination. Send must not block; it reports
// false when the channel is closed or its buffer is full.
type Channel interface {
	ID() string
	Send(message []byte) bool
	Close()
}

// Hub tracks, per room, the set of subscribed channels and fans messages out
// to them. Subscriber sets live only in memory and are never persisted.
type Hub struct {
	mu sync.RWMutex
	// roomID -> subscribed channels
	rooms map[string]map[Channel]struct{}
	// channel -> rooms it is subscribed to, for UnsubscribeAll
	memberships map[Channel]map[string]struct{}
	closed      bool

	log *logrus.Entry
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[Channel]struct{}),
		memberships: make(map[Channel]map[string]struct{}),
		log:         logrus.WithField("component", "hub"),
	}
}

// Subscribe adds ch to the room's set, creating the set on first use.
// It returns false once the hub has been closed.
func (h *Hub) Subscribe(roomID string, ch Channel) bool {
	if ch == nil {
		h.log.Error("Attempted to subscribe a nil channel")
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	set, ok := h.rooms[roomID]
	if !ok {
		set = make(map[Channel]struct{})
		h.rooms[roomID] = set
	}
	set[ch] = struct{}{}

	joined, ok := h.memberships[ch]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[ch] = joined
	}
	joined[roomID] = struct{}{}

	h.log.WithFields(logrus.Fields{
		"room_id":     roomID,
		"channel_id":  ch.ID(),
		"subscribers": len(set),
	}).Debug("Channel subscribed")
	return true
}

// Unsubscribe removes ch from the room. An empty set drops the room entry.
func (h *Hub) Unsubscribe(roomID string, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(roomID, ch)
}

// UnsubscribeAll removes ch from every room it belongs to.
func (h *Hub) UnsubscribeAll(ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.memberships[ch] {
		h.removeLocked(roomID, ch)
	}
}

func (h *Hub) removeLocked(roomID string, ch Channel) {
	if set, ok := h.rooms[roomID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.rooms, roomID)
			h.log.WithField("room_id", roomID).Debug("Last subscriber left, room entry dropped")
		}
	}
	if joined, ok := h.memberships[ch]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(h.memberships, ch)
		}
	}
}

// Publish JSON-encodes message once and offers it to every channel subscribed
// to roomID. Closed or saturated channels are skipped. A []byte message is
// sent as is. Returns the number of channels that accepted the message.
func (h *Hub) Publish(roomID string, message any) int {
	var payload []byte
	switch m := message.(type) {
	case []byte:
		payload = m
	default:
		b, err := json.Marshal(message)
		if err != nil {
			h.log.WithError(err).WithField("room_id", roomID).Error("Failed to marshal publish payload")
			return 0
		}
		payload = b
	}

	// The read lock is held for the whole loop so a channel removed before
	// this call never receives the message. Send does not block.
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for ch := range h.rooms[roomID] {
		if ch.Send(payload) {
			delivered++
			continue
		}
		h.log.WithFields(logrus.Fields{"room_id": roomID, "channel_id": ch.ID()}).
			Warn("Channel closed or buffer full, message skipped")
	}
	return delivered
}

// ActiveRooms returns the ids of rooms with at least one subscriber, sorted.
func (h *Hub) ActiveRooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SubscriberCount returns the size of the room's subscriber set.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Close drops every subscription and closes every channel. Further
// subscriptions are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	channels := make([]Channel, 0, len(h.memberships))
	for ch := range h.memberships {
		channels = append(channels, ch)
	}
	h.rooms = make(map[string]map[Channel]struct{})
	h.memberships = make(map[Channel]map[string]struct{})
	h.mu.Unlock()

	for _, ch := range channels {
		ch.Close()
	}
	h.log.WithField("channels", len(channels)).Info("Hub closed")
}
