package models

import (
	"time"

	"github.com/google/uuid"
)

// SharedFile is one file a participant attached to a session. The bytes live
// in external object storage under ImageKey; this row is metadata only and is
// created after the object is already stored. (SessionID, ImageKey) is unique:
// the same storage object cannot be registered twice against one session.
type SharedFile struct {
	ID               uuid.UUID `db:"id"`
	SessionID        string    `db:"session_id"`
	ImageKey         string    `db:"image_key"`
	FileName         string    `db:"file_name"`
	FileSize         int64     `db:"file_size"`
	ContentType      string    `db:"content_type"`
	UploadedByUserID string    `db:"uploaded_by_user_id"`
	UploadedByName   string    `db:"uploaded_by_name"`
	UploadedAt       time.Time `db:"uploaded_at"`
}
