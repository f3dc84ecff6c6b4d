package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/thinkwright/quickcal/internal/apperr"
	"github.com/thinkwright/quickcal/internal/fsutil"
	"github.com/thinkwright/quickcal/internal/store"
)

// Vault implements Storage over a directory on disk.
type Vault struct {
	root  string // absolute
	index *store.Store
}

// Open roots a vault at dir. The directory must already exist.
func Open(dir string, index *store.Store) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &Vault{root: abs, index: index}, nil
}

func (v *Vault) Root() string { return v.root }

// Abs returns the absolute on-disk path of a vault-relative path.
func (v *Vault) Abs(rel string) (string, error) {
	return v.safePath(rel)
}

// Sync reconciles the index with the files on disk.
func (v *Vault) Sync() (store.SyncStats, error) {
	return v.index.Sync(v.root)
}

// safePath resolves rel against the root and rejects anything that escapes it.
func (v *Vault) safePath(rel string) (string, error) {
	if rel == "" {
		return v.root, nil
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute path %s", apperr.ErrInvalidPath, rel)
	}
	abs := filepath.Join(v.root, filepath.FromSlash(path.Clean(rel)))
	if abs != v.root && !strings.HasPrefix(abs, v.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s escapes vault root", apperr.ErrInvalidPath, rel)
	}
	return abs, nil
}

func normalize(rel string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(rel)), "./")
}

func entryFromRow(r store.Row) *Entry {
	return &Entry{
		Path:    r.Path,
		IsDir:   r.IsDir,
		Size:    r.Size,
		ModTime: time.UnixMilli(r.MTime),
	}
}

func (v *Vault) GetFileAtPath(rel string) (*Entry, bool) {
	r, ok, err := v.index.Lookup(normalize(rel))
	if err != nil || !ok {
		return nil, false
	}
	return entryFromRow(r), true
}

func (v *Vault) FolderExists(rel string) bool {
	e, ok := v.GetFileAtPath(rel)
	return ok && e.IsDir
}

func (v *Vault) ReadFile(e *Entry) (string, error) {
	abs, err := v.safePath(e.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("vault: read %s: %w", e.Path, apperr.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", e.Path, err)
	}
	return string(data), nil
}

func (v *Vault) WriteFile(e *Entry, text string) error {
	abs, err := v.safePath(e.Path)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(abs, []byte(text), 0o644); err != nil {
		return fmt.Errorf("vault: write %s: %w", e.Path, err)
	}
	return v.reindex(e.Path, abs)
}

func (v *Vault) CreateFile(rel, text string) (*Entry, error) {
	rel = normalize(rel)
	abs, err := v.safePath(rel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(abs); err == nil {
		return nil, fmt.Errorf("vault: create %s: %w", rel, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("vault: mkdir: %w", err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("vault: create %s: %w", rel, apperr.ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("vault: create %s: %w", rel, err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return nil, fmt.Errorf("vault: write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("vault: close %s: %w", rel, err)
	}
	if err := v.reindex(rel, abs); err != nil {
		return nil, err
	}
	e, _ := v.GetFileAtPath(rel)
	return e, nil
}

func (v *Vault) CreateFolder(rel string) error {
	rel = normalize(rel)
	abs, err := v.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir %s: %w", rel, err)
	}
	// Index every ancestor so FolderExists holds for each of them.
	for p := rel; p != "." && p != "/" && p != ""; p = path.Dir(p) {
		if err := v.index.Upsert(store.Row{Path: p, IsDir: true}); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) reindex(rel, abs string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("vault: stat %s: %w", rel, err)
	}
	return v.index.Upsert(store.Row{
		Path:  normalize(rel),
		Size:  info.Size(),
		MTime: info.ModTime().UnixMilli(),
	})
}
