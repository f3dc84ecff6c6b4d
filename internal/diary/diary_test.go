package diary

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/apperr"
	"github.com/thinkwright/quickcal/internal/config"
	"github.com/thinkwright/quickcal/internal/vault"
)

// memStorage is an in-memory vault.Storage.
type memStorage struct {
	files    map[string]string
	folders  map[string]bool
	readErr  error
	writeErr error
}

func newMem() *memStorage {
	return &memStorage{files: map[string]string{}, folders: map[string]bool{}}
}

func (m *memStorage) GetFileAtPath(p string) (*vault.Entry, bool) {
	if m.folders[p] {
		return &vault.Entry{Path: p, IsDir: true}, true
	}
	if _, ok := m.files[p]; ok {
		return &vault.Entry{Path: p}, true
	}
	return nil, false
}

func (m *memStorage) ReadFile(e *vault.Entry) (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	return m.files[e.Path], nil
}

func (m *memStorage) WriteFile(e *vault.Entry, text string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[e.Path] = text
	return nil
}

func (m *memStorage) CreateFile(p, text string) (*vault.Entry, error) {
	if _, ok := m.files[p]; ok {
		return nil, apperr.ErrAlreadyExists
	}
	m.files[p] = text
	return &vault.Entry{Path: p}, nil
}

func (m *memStorage) CreateFolder(p string) error {
	m.folders[p] = true
	return nil
}

func (m *memStorage) FolderExists(p string) bool { return m.folders[p] }

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newBinder(t *testing.T, s vault.Storage, mutate func(*config.Settings)) *Binder {
	t.Helper()
	settings := config.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}
	b, err := NewBinder(s, settings, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

var june15 = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func TestPath(t *testing.T) {
	cases := []struct {
		folder, format, want string
	}{
		{"Diary", "YYYY-MM-DD", "Diary/2024-06-15.md"},
		{"", "YYYY-MM-DD", "2024-06-15.md"},
		{"Journal/Daily/", "DD.MM.YYYY", "Journal/Daily/15.06.2024.md"},
		{"./Diary", "YYYY/MM/YYYY-MM-DD", "Diary/2024/06/2024-06-15.md"},
	}
	for _, c := range cases {
		b := newBinder(t, newMem(), func(s *config.Settings) {
			s.DiaryFolder = c.folder
			s.DateFormat = c.format
		})
		if got := b.Path(june15); got != c.want {
			t.Errorf("Path(folder=%q, format=%q) = %q, want %q", c.folder, c.format, got, c.want)
		}
	}
}

func TestNewBinder_InvalidFormat(t *testing.T) {
	_, err := NewBinder(newMem(), config.Settings{DateFormat: "MM"}, quietLog())
	if err == nil {
		t.Error("expected error for ambiguous format")
	}
}

func TestResolve(t *testing.T) {
	m := newMem()
	m.files["Diary/2024-06-15.md"] = "hello"
	m.folders["Diary/2024-06-16.md"] = true
	b := newBinder(t, m, nil)

	if e := b.Resolve(june15); e == nil || e.Path != "Diary/2024-06-15.md" {
		t.Errorf("Resolve = %+v", e)
	}
	if e := b.Resolve(june15.AddDate(0, 0, 1)); e != nil {
		t.Error("a folder named like a note must not resolve")
	}
	if e := b.Resolve(june15.AddDate(0, 0, 2)); e != nil {
		t.Error("missing note must resolve to nil")
	}
}

func TestLoadContent(t *testing.T) {
	m := newMem()
	m.files["Diary/2024-06-15.md"] = ""
	m.files["Diary/2024-06-16.md"] = "# notes"
	b := newBinder(t, m, nil)

	if got := b.LoadContent(b.Resolve(june15)); got != EmptyNote {
		t.Errorf("empty file = %q, want %q", got, EmptyNote)
	}
	if got := b.LoadContent(b.Resolve(june15.AddDate(0, 0, 1))); got != "# notes" {
		t.Errorf("content = %q", got)
	}
	if got := b.LoadContent(nil); got != "" {
		t.Errorf("nil entry = %q", got)
	}

	m.readErr = errors.New("disk on fire")
	if got := b.LoadContent(&vault.Entry{Path: "Diary/2024-06-16.md"}); got != "" {
		t.Errorf("read failure = %q, want empty", got)
	}
}

func TestCreateEntry(t *testing.T) {
	m := newMem()
	b := newBinder(t, m, nil)

	e, err := b.CreateEntry(june15)
	if err != nil {
		t.Fatal(err)
	}
	if e.Path != "Diary/2024-06-15.md" {
		t.Errorf("path = %q", e.Path)
	}
	if !m.folders["Diary"] {
		t.Error("diary folder not created")
	}
	if got := m.files["Diary/2024-06-15.md"]; got != "# 2024-06-15\n\n" {
		t.Errorf("initial content = %q", got)
	}

	_, err = b.CreateEntry(june15)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second create err = %v", err)
	}
}

func TestCreateEntry_RootFolder(t *testing.T) {
	m := newMem()
	b := newBinder(t, m, func(s *config.Settings) { s.DiaryFolder = "" })
	if _, err := b.CreateEntry(june15); err != nil {
		t.Fatal(err)
	}
	if len(m.folders) != 0 {
		t.Errorf("no folder should be created for the vault root: %v", m.folders)
	}
	if _, ok := m.files["2024-06-15.md"]; !ok {
		t.Error("note not created at vault root")
	}
}

func TestSave(t *testing.T) {
	m := newMem()
	m.files["Diary/2024-06-15.md"] = "old"
	b := newBinder(t, m, nil)
	e := b.Resolve(june15)

	if err := b.Save(e, "new"); err != nil {
		t.Fatal(err)
	}
	if m.files[e.Path] != "new" {
		t.Errorf("saved = %q", m.files[e.Path])
	}

	m.writeErr = errors.New("read-only")
	if err := b.Save(e, "newer"); err == nil {
		t.Error("expected write failure")
	}
	if m.files[e.Path] != "new" {
		t.Error("failed save must not change the file")
	}
	if err := b.Save(nil, "x"); !IsNotFound(err) {
		t.Errorf("nil entry err = %v", err)
	}
}

func TestDisplayContent(t *testing.T) {
	if DisplayContent("") != EmptyNote || DisplayContent("x") != "x" {
		t.Error("DisplayContent mapping broken")
	}
}

func TestRead_Raw(t *testing.T) {
	m := newMem()
	m.files["Diary/2024-06-15.md"] = ""
	b := newBinder(t, m, nil)
	text, err := b.Read(b.Resolve(june15))
	if err != nil || text != "" {
		t.Errorf("Read = %q, %v; editing must see the raw empty text", text, err)
	}
	if _, err := b.Read(nil); !IsNotFound(err) {
		t.Errorf("nil entry err = %v", err)
	}
}
