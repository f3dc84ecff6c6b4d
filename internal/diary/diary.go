// Package diary binds calendar days to per-day note files in the vault.
package diary

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/apperr"
	"github.com/thinkwright/quickcal/internal/config"
	"github.com/thinkwright/quickcal/internal/datefmt"
	"github.com/thinkwright/quickcal/internal/vault"
)

// EmptyNote is shown for a note that exists but has no text.
const EmptyNote = "Empty note"

type Binder struct {
	storage vault.Storage
	folder  string
	pattern datefmt.Pattern
	log     *logrus.Entry
}

// NewBinder compiles the settings' date format. Settings are expected to be
// validated already; an invalid format is still reported here.
func NewBinder(storage vault.Storage, s config.Settings, log *logrus.Entry) (*Binder, error) {
	p, err := datefmt.Compile(s.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("diary: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Binder{
		storage: storage,
		folder:  path.Clean("/" + s.DiaryFolder)[1:],
		pattern: p,
		log:     log.WithField("component", "diary"),
	}, nil
}

// Folder is the vault-relative diary folder; "" is the vault root.
func (b *Binder) Folder() string { return b.folder }

// Title is the formatted date used in file names and new-note headings.
func (b *Binder) Title(date time.Time) string {
	return b.pattern.Format(date)
}

// Path is the vault-relative note path for date.
func (b *Binder) Path(date time.Time) string {
	name := b.Title(date) + ".md"
	if b.folder == "" {
		return name
	}
	return b.folder + "/" + name
}

// Resolve returns the note bound to date, or nil if there is none.
func (b *Binder) Resolve(date time.Time) *vault.Entry {
	e, ok := b.storage.GetFileAtPath(b.Path(date))
	if !ok || e.IsDir {
		return nil
	}
	return e
}

// LoadContent reads e. Read errors are logged and yield "".
func (b *Binder) LoadContent(e *vault.Entry) string {
	if e == nil {
		return ""
	}
	text, err := b.storage.ReadFile(e)
	if err != nil {
		b.log.WithError(err).WithField("path", e.Path).Error("read note")
		return ""
	}
	return DisplayContent(text)
}

// Read returns e's raw text, for editing.
func (b *Binder) Read(e *vault.Entry) (string, error) {
	if e == nil {
		return "", fmt.Errorf("read: %w", apperr.ErrNotFound)
	}
	text, err := b.storage.ReadFile(e)
	if err != nil {
		b.log.WithError(err).WithField("path", e.Path).Error("read note")
		return "", fmt.Errorf("read %s: %w", e.Path, err)
	}
	return text, nil
}

// DisplayContent maps empty note text to EmptyNote.
func DisplayContent(text string) string {
	if text == "" {
		return EmptyNote
	}
	return text
}

// CreateEntry creates the note for date, and the diary folder if needed.
func (b *Binder) CreateEntry(date time.Time) (*vault.Entry, error) {
	if b.folder != "" && !b.storage.FolderExists(b.folder) {
		if err := b.storage.CreateFolder(b.folder); err != nil {
			b.log.WithError(err).WithField("folder", b.folder).Error("create diary folder")
			return nil, fmt.Errorf("create folder %s: %w", b.folder, err)
		}
	}
	p := b.Path(date)
	e, err := b.storage.CreateFile(p, "# "+b.Title(date)+"\n\n")
	if err != nil {
		b.log.WithError(err).WithField("path", p).Error("create note")
		return nil, fmt.Errorf("create %s: %w", p, err)
	}
	b.log.WithField("path", p).Info("created note")
	return e, nil
}

// Save overwrites e with text.
func (b *Binder) Save(e *vault.Entry, text string) error {
	if e == nil {
		return fmt.Errorf("save: %w", apperr.ErrNotFound)
	}
	if err := b.storage.WriteFile(e, text); err != nil {
		b.log.WithError(err).WithField("path", e.Path).Error("save note")
		return fmt.Errorf("save %s: %w", e.Path, err)
	}
	return nil
}

// IsNotFound reports whether err means the note is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
