package websocket

import "encoding/json"

// Event is the envelope for everything the hub pushes to watchers.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types published by the orchestrator.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventSessionEnded      = "session_ended"
)

// PresencePayload accompanies participant_joined and participant_left.
type PresencePayload struct {
	SessionID    string `json:"session_id"`
	Username     string `json:"username"`
	ConnectionID string `json:"connection_id"`
}

// SessionEndedPayload accompanies session_ended.
type SessionEndedPayload struct {
	SessionID string `json:"session_id"`
}

func newEvent(eventType string, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: eventType, Payload: data}
}
