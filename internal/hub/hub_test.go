package hub_test

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locusfocus-backend/internal/hub"
)

// fakeChannel records delivered payloads in memory.
type fakeChannel struct {
	id string

	mu       sync.Mutex
	messages [][]byte
	closed   bool
	full     bool
}

func newFakeChannel(id string) *fakeChannel { return &fakeChannel{id: id} }

func (f *fakeChannel) ID() string { return f.id }

func (f *fakeChannel) Send(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	f.messages = append(f.messages, message)
	return true
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeChannel) Received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func (f *fakeChannel) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestPublish_DeliversOnlyToRoomSubscribers(t *testing.T) {
	h := hub.NewHub()
	a, b, other := newFakeChannel("a"), newFakeChannel("b"), newFakeChannel("other")
	require.True(t, h.Subscribe("r1", a))
	require.True(t, h.Subscribe("r1", b))
	require.True(t, h.Subscribe("r2", other))

	n := h.Publish("r1", map[string]string{"type": "lock_changed"})

	assert.Equal(t, 2, n)
	require.Len(t, a.Received(), 1)
	require.Len(t, b.Received(), 1)
	assert.Empty(t, other.Received())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(a.Received()[0], &decoded))
	assert.Equal(t, "lock_changed", decoded["type"])
	assert.Equal(t, a.Received()[0], b.Received()[0], "payload is encoded once and shared")
}

func TestPublish_RawBytesPassThrough(t *testing.T) {
	h := hub.NewHub()
	ch := newFakeChannel("a")
	h.Subscribe("r1", ch)

	h.Publish("r1", []byte(`{"type":"state"}`))

	require.Len(t, ch.Received(), 1)
	assert.Equal(t, `{"type":"state"}`, string(ch.Received()[0]))
}

func TestPublish_SkipsClosedAndFullChannels(t *testing.T) {
	h := hub.NewHub()
	open, closed, full := newFakeChannel("open"), newFakeChannel("closed"), newFakeChannel("full")
	closed.Close()
	full.full = true
	for _, ch := range []*fakeChannel{open, closed, full} {
		h.Subscribe("r1", ch)
	}

	n := h.Publish("r1", map[string]int{"n": 1})

	assert.Equal(t, 1, n)
	assert.Len(t, open.Received(), 1)
}

func TestPublish_UnknownRoom(t *testing.T) {
	h := hub.NewHub()
	assert.Zero(t, h.Publish("nobody", map[string]int{}))
}

func TestPublish_UnmarshalableMessage(t *testing.T) {
	h := hub.NewHub()
	ch := newFakeChannel("a")
	h.Subscribe("r1", ch)

	assert.Zero(t, h.Publish("r1", make(chan int)))
	assert.Empty(t, ch.Received())
}

func TestUnsubscribe_DropsEmptyRoom(t *testing.T) {
	h := hub.NewHub()
	a, b := newFakeChannel("a"), newFakeChannel("b")
	h.Subscribe("r1", a)
	h.Subscribe("r1", b)
	assert.Equal(t, 2, h.SubscriberCount("r1"))

	h.Unsubscribe("r1", a)
	assert.Equal(t, 1, h.SubscriberCount("r1"))
	assert.Equal(t, []string{"r1"}, h.ActiveRooms())

	h.Unsubscribe("r1", b)
	assert.Zero(t, h.SubscriberCount("r1"))
	assert.Empty(t, h.ActiveRooms())

	// Unsubscribing again is harmless.
	h.Unsubscribe("r1", b)

	h.Publish("r1", map[string]string{"type": "x"})
	assert.Empty(t, a.Received())
	assert.Empty(t, b.Received())

	// The room entry is recreated lazily.
	h.Subscribe("r1", a)
	assert.Equal(t, 1, h.SubscriberCount("r1"))
}

func TestUnsubscribeAll(t *testing.T) {
	h := hub.NewHub()
	ch, stay := newFakeChannel("a"), newFakeChannel("stay")
	h.Subscribe("r1", ch)
	h.Subscribe("r2", ch)
	h.Subscribe("r2", stay)

	h.UnsubscribeAll(ch)

	assert.Equal(t, []string{"r2"}, h.ActiveRooms())
	assert.Equal(t, 1, h.SubscriberCount("r2"))
	assert.Equal(t, 1, h.Publish("r2", map[string]string{}))
	assert.Empty(t, ch.Received())
}

func TestClose_ClosesChannelsAndRefusesSubscriptions(t *testing.T) {
	h := hub.NewHub()
	a, b := newFakeChannel("a"), newFakeChannel("b")
	h.Subscribe("r1", a)
	h.Subscribe("r2", b)

	h.Close()
	h.Close()

	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Empty(t, h.ActiveRooms())
	assert.False(t, h.Subscribe("r1", newFakeChannel("late")))
}

func TestIsolatedHubs(t *testing.T) {
	h1, h2 := hub.NewHub(), hub.NewHub()
	ch := newFakeChannel("a")
	h1.Subscribe("r1", ch)

	assert.Zero(t, h2.Publish("r1", map[string]string{}))
	assert.Equal(t, 1, h1.Publish("r1", map[string]string{}))
}

func TestConcurrentSubscribePublish(t *testing.T) {
	h := hub.NewHub()
	var wg sync.WaitGroup
	channels := make([]*fakeChannel, 50)
	for i := range channels {
		channels[i] = newFakeChannel(fmt.Sprintf("c%d", i))
	}

	for i, ch := range channels {
		wg.Add(2)
		go func(ch *fakeChannel) {
			defer wg.Done()
			h.Subscribe("r1", ch)
		}(ch)
		go func(i int) {
			defer wg.Done()
			h.Publish("r1", map[string]int{"i": i})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, len(channels), h.SubscriberCount("r1"))
	// Every channel is present now, so a final publish reaches all of them.
	assert.Equal(t, len(channels), h.Publish("r1", map[string]string{"final": "yes"}))

	for _, ch := range channels {
		wg.Add(1)
		go func(ch *fakeChannel) {
			defer wg.Done()
			h.UnsubscribeAll(ch)
		}(ch)
	}
	wg.Wait()
	assert.Empty(t, h.ActiveRooms())
}
