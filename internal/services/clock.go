package services

import (
	"errors"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
)

// utcNow is the default clock. Stored timestamps are UTC at microsecond
// precision so cursors round-trip exactly through postgres.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// notFound maps a repository miss to the given typed error.
func notFound(op string, err error, typed *Error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return typed
	}
	return storageError(op, err)
}
