package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Row is one indexed vault entry. Path is vault-relative and slash separated.
type Row struct {
	Path      string
	IsDir     bool
	Size      int64
	MTime     int64 // unix millis
	IndexedAt int64 // unix millis
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "quickcal")
	}
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "quickcal")
	}
	return filepath.Join(home, ".local", "share", "quickcal")
}

// DataDir is where index databases and the log file live.
func DataDir() string {
	return dataDir()
}

// DBPath returns the index database for a vault root. Each vault gets its own file.
func DBPath(vaultRoot string) string {
	abs, err := filepath.Abs(vaultRoot)
	if err != nil {
		abs = vaultRoot
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(dataDir(), "index-"+hex.EncodeToString(sum[:])[:12]+".db")
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	row := s.db.QueryRow("PRAGMA user_version")
	row.Scan(&version)

	switch version {
	case 0:
		return s.createSchema()
	case 1:
		_, err := s.db.Exec(metaSchema + "PRAGMA user_version = 2;")
		return err
	}
	return nil
}

const metaSchema = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);
`

func (s *Store) createSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
    id          INTEGER PRIMARY KEY,
    path        TEXT    UNIQUE NOT NULL,
    is_dir      BOOLEAN NOT NULL DEFAULT 0,
    size        INTEGER NOT NULL DEFAULT 0,
    mtime       INTEGER NOT NULL DEFAULT 0,
    indexed_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_dir ON files(is_dir);
` + metaSchema + `
PRAGMA user_version = 2;
`
	_, err := s.db.Exec(schema)
	return err
}

// Reset drops every indexed row. Used by --reindex.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM files"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM meta")
	return err
}

// Upsert inserts or replaces the row for r.Path.
func (s *Store) Upsert(r Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsert(s.db, r)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsert(db execer, r Row) error {
	if r.IndexedAt == 0 {
		r.IndexedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO files (path, is_dir, size, mtime, indexed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			is_dir = excluded.is_dir,
			size = excluded.size,
			mtime = excluded.mtime,
			indexed_at = excluded.indexed_at
	`, r.Path, r.IsDir, r.Size, r.MTime, r.IndexedAt)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", r.Path, err)
	}
	return nil
}

// Delete removes path and, for directories, everything below it.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := strings.TrimSuffix(path, "/") + "/"
	_, err := s.db.Exec("DELETE FROM files WHERE path = ? OR substr(path, 1, ?) = ?",
		path, len(prefix), prefix)
	return err
}

// Lookup returns the row indexed at path.
func (s *Store) Lookup(path string) (Row, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r Row
	err := s.db.QueryRow(
		"SELECT path, is_dir, size, mtime, indexed_at FROM files WHERE path = ?", path,
	).Scan(&r.Path, &r.IsDir, &r.Size, &r.MTime, &r.IndexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("lookup %s: %w", path, err)
	}
	return r, true, nil
}

// FileCount returns the number of indexed regular files.
func (s *Store) FileCount() int {
	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM files WHERE is_dir = 0").Scan(&count)
	return count
}

// LastIndexedAt returns when the index was last brought up to date (unix
// millis): the last completed Sync, or the newest row written outside one.
// 0 means never.
func (s *Store) LastIndexedAt() int64 {
	var ts int64
	s.db.QueryRow(`SELECT MAX(
		COALESCE((SELECT value FROM meta WHERE key = 'last_sync'), 0),
		COALESCE((SELECT MAX(indexed_at) FROM files), 0))`).Scan(&ts)
	return ts
}
