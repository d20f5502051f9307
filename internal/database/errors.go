package database

import (
	"errors"

	"modernc.org/sqlite"
)

// ErrUniqueConstraint is the classification sentinel for unique-constraint
// violations. Store fakes return it directly; real sqlite errors are matched
// by result code.
var ErrUniqueConstraint = errors.New("unique constraint violation")

// SQLite extended result codes for constraint violations on row identity.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// IsUniqueConstraint reports whether err was caused by a unique or primary
// key constraint violation. Only these failures are worth retrying with a
// freshly computed ID; anything else is a real error.
func IsUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUniqueConstraint) {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqliteConstraintPrimaryKey || code == sqliteConstraintUnique
	}
	return false
}
