package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// Storage-level sentinel errors. Services translate these into the domain
// taxonomy in models; they must never reach an HTTP handler directly.
var (
	ErrNotFound        = errors.New("row not found")
	ErrDuplicate       = errors.New("unique constraint violated")
	ErrVersionConflict = errors.New("row version changed since read")
)

const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Those are expected under concurrent writers (active session
// name, connection id, transcript session id, shared-file key) and are
// normalized to ErrDuplicate so callers can branch without importing pq.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
