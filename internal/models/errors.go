package models

import "errors"

// Domain error taxonomy. Repositories and services translate storage and
// provider failures into these; HTTP handlers map them to status codes with
// errors.Is. Only ErrConcurrentModification is worth retrying by the caller
// (with a freshly re-read transcript); everything else is terminal for the
// request.
var (
	ErrSessionNotFound        = errors.New("session not found")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrDuplicateConnection    = errors.New("duplicate connection id")
	ErrFileAlreadyExists      = errors.New("file already registered for session")
	ErrConcurrentModification = errors.New("concurrent transcript modification")
	ErrProviderUnavailable    = errors.New("rtc provider unavailable")
	ErrChatSaveFailed         = errors.New("chat transcript save failed")
	ErrAutoReconnectFailed    = errors.New("auto reconnect failed")
)

// Errors for the read/delete side of transcripts and shared files.
var (
	ErrTranscriptNotFound = errors.New("chat transcript not found")
	ErrFileNotFound       = errors.New("shared file not found")
	ErrForbidden          = errors.New("not allowed for this user")
)
