package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is one websocket watcher of a session's presence events.
type Client struct {
	ID        uuid.UUID
	SessionID string
	Username  string
	Conn      *websocket.Conn
	Send      chan Event
	Done      chan struct{}

	closeOnce sync.Once
}

// Close tears the client down. Safe to call from both pumps.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// IsConnected reports whether the client has been closed yet.
func (c *Client) IsConnected() bool {
	select {
	case <-c.Done:
		return false
	default:
		return true
	}
}

// Hub fans presence events out to the watchers of each session. It
// implements the orchestrator's SessionNotifier; publishing never blocks a
// request, slow watchers just miss events.
type Hub struct {
	mu       sync.RWMutex
	logger   zerolog.Logger
	watchers map[string]map[uuid.UUID]*Client // key: session id
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:   logger.With().Str("component", "hub").Logger(),
		watchers: make(map[string]map[uuid.UUID]*Client),
	}
}

// Subscribe registers a client as a watcher of its session.
func (h *Hub) Subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.watchers[client.SessionID]
	if !ok {
		clients = make(map[uuid.UUID]*Client)
		h.watchers[client.SessionID] = clients
	}
	clients[client.ID] = client

	h.logger.Debug().
		Str("session_id", client.SessionID).
		Str("username", client.Username).
		Int("watchers", len(clients)).
		Msg("watcher subscribed")
}

// Unsubscribe removes a client; the per-session set is dropped when empty.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.watchers[client.SessionID]
	if !ok {
		return
	}
	delete(clients, client.ID)
	if len(clients) == 0 {
		delete(h.watchers, client.SessionID)
	}
}

// WatcherCount returns how many clients watch a session.
func (h *Hub) WatcherCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[sessionID])
}

func (h *Hub) publish(sessionID string, event Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.watchers[sessionID]))
	for _, c := range h.watchers[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.Send <- event:
		default:
			h.logger.Warn().
				Str("session_id", sessionID).
				Str("event", event.Type).
				Msg("watcher send buffer full, dropping event")
		}
	}
}

// ParticipantJoined publishes a join to the session's watchers.
func (h *Hub) ParticipantJoined(sessionID, username, connectionID string) {
	h.publish(sessionID, newEvent(EventParticipantJoined, PresencePayload{
		SessionID:    sessionID,
		Username:     username,
		ConnectionID: connectionID,
	}))
}

// ParticipantLeft publishes a leave to the session's watchers.
func (h *Hub) ParticipantLeft(sessionID, username, connectionID string) {
	h.publish(sessionID, newEvent(EventParticipantLeft, PresencePayload{
		SessionID:    sessionID,
		Username:     username,
		ConnectionID: connectionID,
	}))
}

// SessionEnded notifies watchers and closes their connections; an ended
// session has nothing further to watch.
func (h *Hub) SessionEnded(sessionID string) {
	h.publish(sessionID, newEvent(EventSessionEnded, SessionEndedPayload{SessionID: sessionID}))

	h.mu.Lock()
	clients := h.watchers[sessionID]
	delete(h.watchers, sessionID)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
