// Package vault is the note storage: a root directory of markdown files
// plus the SQLite index used for lookups.
package vault

import "time"

// Entry is an indexed file or folder. Path is vault-relative and slash separated.
type Entry struct {
	Path    string
	IsDir   bool
	ModTime time.Time
	Size    int64
}

// Storage is the file access the diary binding needs.
type Storage interface {
	// GetFileAtPath looks path up in the index.
	GetFileAtPath(path string) (*Entry, bool)
	ReadFile(e *Entry) (string, error)
	// WriteFile overwrites e's contents.
	WriteFile(e *Entry, text string) error
	// CreateFile fails with apperr.ErrAlreadyExists if path is taken.
	CreateFile(path, text string) (*Entry, error)
	CreateFolder(path string) error
	FolderExists(path string) bool
}
