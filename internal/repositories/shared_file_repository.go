package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

type SharedFileRepository struct {
	db *sql.DB
}

func NewSharedFileRepository(db *sql.DB) *SharedFileRepository {
	return &SharedFileRepository{db: db}
}

// Create registers metadata for an object already placed in external storage.
// The (session_id, image_key) unique constraint backstops the service-level
// existence precheck under concurrent registrations.
func (r *SharedFileRepository) Create(ctx context.Context, file *models.SharedFile) error {
	const query = `
	INSERT INTO shared_files
		(id, session_id, image_key, file_name, file_size, content_type,
		 uploaded_by_user_id, uploaded_by_name, uploaded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	RETURNING uploaded_at
	`

	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.SessionID, file.ImageKey, file.FileName, file.FileSize,
		file.ContentType, file.UploadedByUserID, file.UploadedByName,
	).Scan(&file.UploadedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert shared file: %w", err)
	}
	return nil
}

// ExistsByKey reports whether a storage key is already registered for the session.
func (r *SharedFileRepository) ExistsByKey(ctx context.Context, sessionID, imageKey string) (bool, error) {
	const query = `
	SELECT EXISTS (
		SELECT 1 FROM shared_files WHERE session_id = $1 AND image_key = $2
	)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, sessionID, imageKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("check shared file: %w", err)
	}
	return exists, nil
}

// ListBySession returns the session's files, newest upload first.
func (r *SharedFileRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SharedFile, error) {
	const query = `
	SELECT id, session_id, image_key, file_name, file_size, content_type,
	       uploaded_by_user_id, uploaded_by_name, uploaded_at
	FROM shared_files
	WHERE session_id = $1
	ORDER BY uploaded_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	defer rows.Close()

	var files []models.SharedFile
	for rows.Next() {
		var f models.SharedFile
		if err := rows.Scan(
			&f.ID, &f.SessionID, &f.ImageKey, &f.FileName, &f.FileSize,
			&f.ContentType, &f.UploadedByUserID, &f.UploadedByName, &f.UploadedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// FindByKey loads one registration by its storage key within a session.
func (r *SharedFileRepository) FindByKey(ctx context.Context, sessionID, imageKey string) (*models.SharedFile, error) {
	const query = `
	SELECT id, session_id, image_key, file_name, file_size, content_type,
	       uploaded_by_user_id, uploaded_by_name, uploaded_at
	FROM shared_files
	WHERE session_id = $1 AND image_key = $2
	`

	var f models.SharedFile
	err := r.db.QueryRowContext(ctx, query, sessionID, imageKey).Scan(
		&f.ID, &f.SessionID, &f.ImageKey, &f.FileName, &f.FileSize,
		&f.ContentType, &f.UploadedByUserID, &f.UploadedByName, &f.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteByKey removes every registration of a storage key, across sessions.
// Deletion follows the storage object, not the session.
func (r *SharedFileRepository) DeleteByKey(ctx context.Context, imageKey string) error {
	const query = `DELETE FROM shared_files WHERE image_key = $1`

	res, err := r.db.ExecContext(ctx, query, imageKey)
	if err != nil {
		return fmt.Errorf("delete shared file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
