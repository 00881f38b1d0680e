package models

import (
	"time"
)

// ChatMessage is one entry of a session's chat transcript. Messages are
// archived as an opaque JSON list; the backend never interprets them beyond
// counting.
type ChatMessage struct {
	Timestamp       string `json:"timestamp"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	Message         string `json:"message"`
	MessageType     string `json:"message_type"`
}

// SessionChatLog is the single archived chat transcript of a session.
// SessionID is unique: repeated saves replace the message list in place and
// bump Version, which is the optimistic concurrency counter guarding racing
// writers (periodic autosave vs final save).
type SessionChatLog struct {
	SessionID        string     `db:"session_id"`
	ChatMessages     string     `db:"chat_messages"` // serialized JSON list
	TotalMessages    int        `db:"total_messages"`
	SessionStartTime *time.Time `db:"session_start_time"`
	SessionEndTime   *time.Time `db:"session_end_time"`
	SavedBy          string     `db:"saved_by"`
	Version          int64      `db:"version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}
