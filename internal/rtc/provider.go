package rtc

import (
	"context"
)

// Connection is one provider-issued credential pair. Connection ids are
// single-use: after a dropped socket the client must obtain a new Connection,
// it can never present the old id again.
type Connection struct {
	ConnectionID string
	Token        string
}

// Provider talks to the external real-time communication server. Room reuse
// is the orchestrator's job: CreateRoom may be called once per session while
// CreateConnectionToken is called for every join, refresh and reconnect
// against the same room.
type Provider interface {
	// CreateRoom provisions a media room and returns its provider-side id,
	// which becomes the session id of the stored VideoSession.
	CreateRoom(ctx context.Context) (string, error)

	// CreateConnectionToken issues a fresh single-use connection for roomID.
	// metadata is attached to the connection and shown to other peers.
	CreateConnectionToken(ctx context.Context, roomID string, metadata map[string]string) (*Connection, error)
}
