package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/models"
)

type sharedFileFixture struct {
	sessions *fakeSessionStore
	files    *fakeSharedFileStore
	service  *SharedFileService
}

func newSharedFileFixture(t *testing.T) *sharedFileFixture {
	t.Helper()
	f := &sharedFileFixture{
		sessions: newFakeSessionStore(),
		files:    newFakeSharedFileStore(),
	}
	f.service = NewSharedFileService(f.files, f.sessions, zerolog.Nop())
	require.NoError(t, f.sessions.Create(context.Background(), &models.VideoSession{
		SessionID:   "session_files",
		SessionName: "file-room",
	}))
	return f
}

func uploadReq(key string) dtos.SharedFileUploadRequest {
	return dtos.SharedFileUploadRequest{
		ImageKey:    key,
		FileName:    "whiteboard.png",
		FileSize:    2048,
		ContentType: "image/png",
	}
}

func TestRegisterSharedFile(t *testing.T) {
	f := newSharedFileFixture(t)

	resp, err := f.service.Register(context.Background(), "session_files", uploadReq("uploads/a.png"), "user-1", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "session_files", resp.SessionID)
	assert.Equal(t, "uploads/a.png", resp.ImageKey)
	assert.Equal(t, "user-1", resp.UploadedByUserID)
	assert.False(t, resp.UploadedAt.IsZero())
}

func TestRegisterDuplicateKeyRejected(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/a.png"), "user-1", "alice")
	require.NoError(t, err)

	_, err = f.service.Register(ctx, "session_files", uploadReq("uploads/a.png"), "user-2", "bob")
	assert.ErrorIs(t, err, models.ErrFileAlreadyExists)

	list, err := f.service.List(ctx, "session_files")
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
}

func TestRegisterSameKeyDifferentSessions(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Create(ctx, &models.VideoSession{
		SessionID:   "session_other",
		SessionName: "other-room",
	}))

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/shared.png"), "user-1", "alice")
	require.NoError(t, err)
	_, err = f.service.Register(ctx, "session_other", uploadReq("uploads/shared.png"), "user-1", "alice")
	require.NoError(t, err, "uniqueness is per session, not global")
}

func TestRegisterRequiresActiveSession(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.End(ctx, "session_files"))

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/a.png"), "user-1", "alice")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestListNewestFirstAndWorksAfterEnd(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/first.png"), "user-1", "alice")
	require.NoError(t, err)
	_, err = f.service.Register(ctx, "session_files", uploadReq("uploads/second.png"), "user-1", "alice")
	require.NoError(t, err)

	require.NoError(t, f.sessions.End(ctx, "session_files"))

	list, err := f.service.List(ctx, "session_files")
	require.NoError(t, err)
	require.Equal(t, 2, list.TotalCount)
	assert.Equal(t, "uploads/second.png", list.Files[0].ImageKey)
	assert.Equal(t, "uploads/first.png", list.Files[1].ImageKey)
}

func TestListUnknownSession(t *testing.T) {
	f := newSharedFileFixture(t)

	_, err := f.service.List(context.Background(), "session_missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestExistsByKey(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()

	exists, err := f.service.ExistsByKey(ctx, "session_files", "uploads/a.png")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.service.Register(ctx, "session_files", uploadReq("uploads/a.png"), "user-1", "alice")
	require.NoError(t, err)

	exists, err = f.service.ExistsByKey(ctx, "session_files", "uploads/a.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteUploaderOnly(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/a.png"), "user-1", "alice")
	require.NoError(t, err)

	err = f.service.Delete(ctx, "session_files", "uploads/a.png", "user-2")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, f.service.Delete(ctx, "session_files", "uploads/a.png", "user-1"))

	exists, err := f.service.ExistsByKey(ctx, "session_files", "uploads/a.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteCascadesAcrossSessions(t *testing.T) {
	f := newSharedFileFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Create(ctx, &models.VideoSession{
		SessionID:   "session_other",
		SessionName: "other-room",
	}))

	_, err := f.service.Register(ctx, "session_files", uploadReq("uploads/shared.png"), "user-1", "alice")
	require.NoError(t, err)
	_, err = f.service.Register(ctx, "session_other", uploadReq("uploads/shared.png"), "user-1", "alice")
	require.NoError(t, err)

	// Deleting through one session removes every registration of the key;
	// the underlying object is gone for all of them.
	require.NoError(t, f.service.Delete(ctx, "session_files", "uploads/shared.png", "user-1"))

	exists, err := f.service.ExistsByKey(ctx, "session_other", "uploads/shared.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteUnknownKey(t *testing.T) {
	f := newSharedFileFixture(t)

	err := f.service.Delete(context.Background(), "session_files", "uploads/missing.png", "user-1")
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}
