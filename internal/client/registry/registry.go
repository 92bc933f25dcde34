// Package registry is the default, swappable implementation of
// sync.LocalProjects: a single sqlite table of the local clones the
// CLI knows about, grounded in the sqlite-backed local state
// (internal/db, jmoiron/sqlx) rather than a bespoke on-disk format.
package registry

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/projectsync/internal/client/sync"
	"github.com/openmined/projectsync/internal/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_projects (
	full_name TEXT PRIMARY KEY,
	dir       TEXT NOT NULL,
	version   INTEGER NOT NULL DEFAULT 0
);
`

// Store is a sqlite-backed sync.LocalProjects.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the sqlite database at path (":memory:" for a
// throwaway store in tests) and ensures the local_projects table exists.
func Open(path string) (*Store, error) {
	conn, err := db.NewSqliteDB(db.WithPath(path))
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: create schema: %w", err)
	}
	return &Store{db: conn}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type row struct {
	FullName string `db:"full_name"`
	Dir      string `db:"dir"`
	Version  int    `db:"version"`
}

// Get returns the stored entry for fullName, if any.
func (s *Store) Get(fullName string) (*sync.LocalProjectEntry, bool) {
	var r row
	err := s.db.Get(&r, `SELECT full_name, dir, version FROM local_projects WHERE full_name = ?`, fullName)
	if err != nil {
		return nil, false
	}
	return &sync.LocalProjectEntry{FullName: r.FullName, Dir: r.Dir, Version: r.Version}, true
}

// Upsert inserts or replaces the entry for entry.FullName.
func (s *Store) Upsert(entry sync.LocalProjectEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO local_projects (full_name, dir, version) VALUES (?, ?, ?)
		 ON CONFLICT(full_name) DO UPDATE SET dir = excluded.dir, version = excluded.version`,
		entry.FullName, entry.Dir, entry.Version,
	)
	if err != nil {
		return fmt.Errorf("registry: upsert %s: %w", entry.FullName, err)
	}
	return nil
}

// Remove deletes the entry for fullName. Not an error if it never existed.
func (s *Store) Remove(fullName string) error {
	_, err := s.db.Exec(`DELETE FROM local_projects WHERE full_name = ?`, fullName)
	if err != nil {
		return fmt.Errorf("registry: remove %s: %w", fullName, err)
	}
	return nil
}

// List returns every known local clone, ordered by full name.
func (s *Store) List() ([]sync.LocalProjectEntry, error) {
	var rows []row
	err := s.db.Select(&rows, `SELECT full_name, dir, version FROM local_projects ORDER BY full_name`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("registry: list: %w", err)
	}

	entries := make([]sync.LocalProjectEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, sync.LocalProjectEntry{FullName: r.FullName, Dir: r.Dir, Version: r.Version})
	}
	return entries, nil
}

var _ sync.LocalProjects = (*Store)(nil)
