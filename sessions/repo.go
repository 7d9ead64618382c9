package sessions

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a table holds no record for a username.
var ErrNotFound = errors.New("session record not found")

// Repo is the session record store. Each logical table is addressed by name; the
// same record shape lives in every table.
type Repo interface {
	// Get returns the record for username or ErrNotFound
	Get(ctx context.Context, table, username string) (*Record, error)

	// Put writes a whole record, replacing any existing one
	Put(ctx context.Context, table string, record *Record) error

	// Update applies a partial write; returns ErrNotFound if the record has gone
	Update(ctx context.Context, table, username string, update Update) error

	// Delete removes the record; deleting a missing record is not an error
	Delete(ctx context.Context, table, username string) error
}
