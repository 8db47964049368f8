/*
Package sqlite is the production Store: one SQLite row per bucket.

PURPOSE:
  The persistence model is deliberately dumb. Whole JSON documents are
  keyed by bucket name and replaced on every write. SQLite gives that
  model a durable single file with crash recovery, which is all a
  single-user deployment needs.

SCHEMA:
  buckets(bucket TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TEXT)

  updated_at is bookkeeping for inspection; it takes no part in sync
  conflict handling (the cloud value wins unconditionally, see package
  sync).

WAL MODE:
  The database is opened with WAL so the HTTP handlers can read while a
  sync push writes. Schema is auto-migrated on New().

USAGE:
  st, err := sqlite.New("./data/fact.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  repos := store.NewRepos(st)

SEE ALSO:
  - store/store.go: the Store interface and bucket names
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements store.Store over a SQLite database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buckets (
		bucket     TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Get(ctx context.Context, bucket string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM buckets WHERE bucket = ?`, bucket).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket %s: %w", bucket, err)
	}
	return raw, nil
}

func (s *Store) Put(ctx context.Context, bucket string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO buckets (bucket, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(bucket) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		bucket, raw, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM buckets WHERE bucket = ?`, bucket); err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *Store) Buckets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT bucket FROM buckets ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
