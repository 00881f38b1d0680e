package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/models"
	"github.com/rohitmehra/OpenMentor/internal/repositories"
)

// SharedFileService keeps the catalogue of files attached to a session. The
// caller stores the object bytes in external storage first and registers the
// key here afterwards, so this service only guards metadata duplication and
// never sits on the storage write path.
type SharedFileService struct {
	fileRepo    SharedFileStore
	sessionRepo SessionStore
	logger      zerolog.Logger
}

func NewSharedFileService(fileRepo SharedFileStore, sessionRepo SessionStore, logger zerolog.Logger) *SharedFileService {
	return &SharedFileService{
		fileRepo:    fileRepo,
		sessionRepo: sessionRepo,
		logger:      logger.With().Str("component", "sharedfile").Logger(),
	}
}

// Register attaches an already-stored object to an active session. The same
// storage key registers at most once per session: a repeat registration
// fails with ErrFileAlreadyExists whether it is caught by the precheck or,
// under a race, by the unique constraint.
func (s *SharedFileService) Register(ctx context.Context, sessionID string, req dtos.SharedFileUploadRequest, uploaderID, uploaderName string) (*dtos.SharedFileResponse, error) {
	if _, err := s.sessionRepo.GetActiveBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}

	exists, err := s.fileRepo.ExistsByKey(ctx, sessionID, req.ImageKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: key %q", models.ErrFileAlreadyExists, req.ImageKey)
	}

	file := &models.SharedFile{
		ID:               uuid.New(),
		SessionID:        sessionID,
		ImageKey:         req.ImageKey,
		FileName:         req.FileName,
		FileSize:         req.FileSize,
		ContentType:      req.ContentType,
		UploadedByUserID: uploaderID,
		UploadedByName:   uploaderName,
	}
	err = s.fileRepo.Create(ctx, file)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, fmt.Errorf("%w: key %q", models.ErrFileAlreadyExists, req.ImageKey)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("image_key", req.ImageKey).
		Str("uploaded_by", uploaderID).
		Msg("shared file registered")

	resp := dtos.NewSharedFileResponse(file)
	return &resp, nil
}

// List returns the session's registered files, newest upload first. Listing
// works for ended sessions too; the catalogue outlives the call.
func (s *SharedFileService) List(ctx context.Context, sessionID string) (*dtos.SharedFileListResponse, error) {
	if _, err := s.sessionRepo.GetBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}

	files, err := s.fileRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dtos.SharedFileResponse, 0, len(files))
	for i := range files {
		responses = append(responses, dtos.NewSharedFileResponse(&files[i]))
	}

	return &dtos.SharedFileListResponse{
		SessionID:  sessionID,
		Files:      responses,
		TotalCount: len(responses),
	}, nil
}

// ExistsByKey reports whether a storage key is already registered for the
// session, so clients can probe before uploading bytes.
func (s *SharedFileService) ExistsByKey(ctx context.Context, sessionID, imageKey string) (bool, error) {
	return s.fileRepo.ExistsByKey(ctx, sessionID, imageKey)
}

// Delete removes a registration after its storage object was deleted. Only
// the uploader may delete; the removal then cascades by storage key across
// sessions, mirroring the lifetime of the underlying object.
func (s *SharedFileService) Delete(ctx context.Context, sessionID, imageKey, requesterID string) error {
	file, err := s.fileRepo.FindByKey(ctx, sessionID, imageKey)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: key %q", models.ErrFileNotFound, imageKey)
	}
	if err != nil {
		return err
	}

	if file.UploadedByUserID != requesterID {
		return fmt.Errorf("%w: file %q was uploaded by %q", models.ErrForbidden, imageKey, file.UploadedByUserID)
	}

	if err := s.fileRepo.DeleteByKey(ctx, imageKey); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: key %q", models.ErrFileNotFound, imageKey)
		}
		return err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("image_key", imageKey).
		Str("requested_by", requesterID).
		Msg("shared file deleted")
	return nil
}
