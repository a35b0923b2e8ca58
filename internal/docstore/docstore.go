// internal/docstore/docstore.go
//
// Document persistence for the session store and the score ledger.
// Each record ("sessions", "scores") is one JSON document that is loaded
// whole at startup and saved whole after every change.
//
// Backends:
//   - file:     <dir>/<record>.json, replaced atomically via rename.
//   - sqlite:   documents table, migrations tracked in _migrations.
//   - redis:    one string key per record.
//   - postgres: documents table created on connect.
//
// The game logic never sees which backend is in use.

package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Backend stores opaque documents by record name.
type Backend interface {
	// Load returns the stored document, or nil if none exists.
	Load(ctx context.Context, record string) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, record string, data []byte) error
	Close() error
}

// ErrMalformed marks a stored document that could not be decoded.
var ErrMalformed = errors.New("malformed document")

// PersistenceError reports a save that still failed after all retries.
// The in-memory change it accompanies has already been applied.
type PersistenceError struct {
	Record   string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: failed after %d attempts: %v", e.Record, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
