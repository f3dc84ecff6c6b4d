package store

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// SyncStats summarises a Sync pass.
type SyncStats struct {
	Scanned int
	Changed int
	Removed int
}

// Sync walks root and reconciles the index with what is on disk: new or
// changed entries (by mtime and size) are upserted, vanished ones removed.
// Hidden files and directories (".git", ".obsidian", ...) are skipped.
func (s *Store) Sync(root string) (SyncStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats SyncStats

	known := make(map[string][2]int64)
	rows, err := s.db.Query("SELECT path, mtime, size FROM files")
	if err != nil {
		return stats, fmt.Errorf("list indexed: %w", err)
	}
	for rows.Next() {
		var p string
		var mtime, size int64
		if err := rows.Scan(&p, &mtime, &size); err != nil {
			rows.Close()
			return stats, err
		}
		known[p] = [2]int64{mtime, size}
	}
	rows.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	seen := make(map[string]bool, len(known))

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // vanished mid-walk
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true
		stats.Scanned++

		var mtime, size int64
		if !d.IsDir() {
			mtime = info.ModTime().UnixMilli()
			size = info.Size()
		}
		if prev, ok := known[rel]; ok && prev[0] == mtime && prev[1] == size {
			return nil // unchanged
		}
		if err := upsert(tx, Row{Path: rel, IsDir: d.IsDir(), Size: size, MTime: mtime, IndexedAt: now}); err != nil {
			return err
		}
		stats.Changed++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", root, err)
	}

	for p := range known {
		if seen[p] {
			continue
		}
		if _, err := tx.Exec("DELETE FROM files WHERE path = ?", p); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('last_sync', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, now); err != nil {
		return stats, fmt.Errorf("record sync: %w", err)
	}
	return stats, tx.Commit()
}

// IndexAge returns the duration since the last indexing operation.
// Returns 0 if nothing is indexed.
func (s *Store) IndexAge() time.Duration {
	ts := s.LastIndexedAt()
	if ts == 0 {
		return 0
	}
	return time.Since(time.UnixMilli(ts))
}
