package models

import (
	"time"
)

// Participant is one join record for one (session, connection) pair.
// Connection ids are issued by the RTC provider and are single-use, so a
// reconnect always creates a new row; the old row is marked left and kept
// for history. Identity continuity across reconnects is username + session,
// never connection id.
type Participant struct {
	ConnectionID string     `db:"connection_id"`
	SessionID    string     `db:"session_id"`
	Token        string     `db:"token"`
	Username     string     `db:"username"`
	JoinedAt     time.Time  `db:"joined_at"`
	LeftAt       *time.Time `db:"left_at"`
	IsConnected  bool       `db:"is_connected"`
}

// Leave performs the irreversible LEFT transition. Calling it on an already
// left participant is a no-op.
func (p *Participant) Leave(now time.Time) {
	if !p.IsConnected {
		return
	}
	p.IsConnected = false
	p.LeftAt = &now
}
