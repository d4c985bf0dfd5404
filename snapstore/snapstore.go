// Package snapstore provides the SQLite persistence layer for calque:
// per-viewport layout snapshots and built blueprints, keyed by page.
//
// Snapshots are the diff baseline for responsive synthesis — they are
// captured once per named viewport and reloaded whenever a replica is
// regenerated, so capture and synthesis can run in separate sessions.
package snapstore

import (
	"database/sql"

	"github.com/hazyhaar/calque/dbopen"
)

// Store is the calque database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the calque SQLite database at path, applies
// pragmas and the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
