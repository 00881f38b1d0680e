package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(sessionID, username string, buffer int) *Client {
	return &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		Username:  username,
		Send:      make(chan Event, buffer),
		Done:      make(chan struct{}),
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	default:
		t.Fatal("expected a buffered event")
		return Event{}
	}
}

func TestHubPublishesToSessionWatchersOnly(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	watcher := newTestClient("session_a", "alice", 4)
	other := newTestClient("session_b", "bob", 4)
	hub.Subscribe(watcher)
	hub.Subscribe(other)

	hub.ParticipantJoined("session_a", "carol", "con_1")

	event := receive(t, watcher)
	assert.Equal(t, EventParticipantJoined, event.Type)

	var payload PresencePayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "session_a", payload.SessionID)
	assert.Equal(t, "carol", payload.Username)
	assert.Equal(t, "con_1", payload.ConnectionID)

	assert.Empty(t, other.Send, "watcher of another session must see nothing")
}

func TestHubSlowWatcherDropsEventWithoutBlocking(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newTestClient("session_a", "alice", 1)
	hub.Subscribe(slow)

	hub.ParticipantJoined("session_a", "bob", "con_1")
	// Second publish finds the buffer full and must return immediately.
	hub.ParticipantLeft("session_a", "bob", "con_1")

	event := receive(t, slow)
	assert.Equal(t, EventParticipantJoined, event.Type)
	assert.Empty(t, slow.Send)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	watcher := newTestClient("session_a", "alice", 4)
	hub.Subscribe(watcher)
	require.Equal(t, 1, hub.WatcherCount("session_a"))

	hub.Unsubscribe(watcher)
	assert.Equal(t, 0, hub.WatcherCount("session_a"))

	hub.ParticipantJoined("session_a", "bob", "con_1")
	assert.Empty(t, watcher.Send)
}

func TestHubSessionEndedNotifiesAndCloses(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	watcher := newTestClient("session_a", "alice", 4)
	hub.Subscribe(watcher)

	hub.SessionEnded("session_a")

	event := receive(t, watcher)
	assert.Equal(t, EventSessionEnded, event.Type)
	assert.False(t, watcher.IsConnected())
	assert.Equal(t, 0, hub.WatcherCount("session_a"))
}

func TestClientCloseIsIdempotent(t *testing.T) {
	client := newTestClient("session_a", "alice", 1)
	client.Close()
	client.Close()
	assert.False(t, client.IsConnected())
}
