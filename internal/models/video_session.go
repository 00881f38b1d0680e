package models

import (
	"time"
)

// VideoSession is one meeting room and its lifecycle state.
// SessionID is the room identifier issued by the RTC provider and is unique
// across all rows; SessionName is a human label and is only unique among
// active rows (enforced by a partial index, see repositories/migrations.go).
type VideoSession struct {
	SessionID   string     `db:"session_id"`
	SessionName string     `db:"session_name"`
	IsActive    bool       `db:"is_active"`
	CreatedAt   time.Time  `db:"created_at"`
	EndedAt     *time.Time `db:"ended_at"`
}

// End transitions the session to inactive. EndedAt is set exactly once and
// never reset; calling End on an already ended session is a no-op.
func (s *VideoSession) End(now time.Time) {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.EndedAt = &now
}
