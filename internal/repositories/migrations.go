package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied at startup. All cross-request invariants the services
// rely on under concurrency live here:
//   - at most one active session per session_name (partial unique index),
//   - connection ids are globally unique,
//   - exactly one chat log row per session,
//   - a storage key registers at most once per session.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS video_sessions (
		session_id   TEXT PRIMARY KEY,
		session_name TEXT NOT NULL,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		ended_at     TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_video_sessions_active_name
		ON video_sessions (session_name) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS participants (
		connection_id TEXT PRIMARY KEY,
		session_id    TEXT NOT NULL REFERENCES video_sessions(session_id),
		token         TEXT NOT NULL,
		username      TEXT NOT NULL,
		joined_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		left_at       TIMESTAMPTZ,
		is_connected  BOOLEAN NOT NULL DEFAULT TRUE,
		CHECK (NOT is_connected OR left_at IS NULL)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_session
		ON participants (session_id)`,
	`CREATE TABLE IF NOT EXISTS session_chat_logs (
		session_id         TEXT NOT NULL UNIQUE REFERENCES video_sessions(session_id),
		chat_messages      TEXT NOT NULL,
		total_messages     INTEGER NOT NULL,
		session_start_time TIMESTAMPTZ,
		session_end_time   TIMESTAMPTZ,
		saved_by           TEXT NOT NULL,
		version            BIGINT NOT NULL DEFAULT 1,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS shared_files (
		id                  UUID PRIMARY KEY,
		session_id          TEXT NOT NULL REFERENCES video_sessions(session_id),
		image_key           TEXT NOT NULL,
		file_name           TEXT NOT NULL,
		file_size           BIGINT NOT NULL,
		content_type        TEXT,
		uploaded_by_user_id TEXT NOT NULL,
		uploaded_by_name    TEXT NOT NULL,
		uploaded_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (session_id, image_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shared_files_uploaded_by
		ON shared_files (uploaded_by_user_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
