package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Debounce is how long events must settle before a RefreshMsg is sent.
const Debounce = 500 * time.Millisecond

// RefreshMsg reports what changed since the watch started.
type RefreshMsg struct {
	Settings bool // the config file
	Notes    bool // something under the diary folder
}

// Targets are the paths watched by one Watch call.
type Targets struct {
	ConfigFile string
	VaultRoot  string
	NotesDir   string // absolute; may not exist yet
}

// Watch blocks until a change settles and returns a RefreshMsg. The caller
// issues a new Watch after handling it.
func Watch(t Targets, log *logrus.Entry) tea.Cmd {
	return func() tea.Msg {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			log.WithError(err).Warn("watcher unavailable")
			return nil
		}
		defer w.Close()

		configDir := filepath.Dir(t.ConfigFile)
		_ = os.MkdirAll(configDir, 0o755)
		if err := w.Add(configDir); err != nil {
			log.WithError(err).WithField("dir", configDir).Warn("watch config dir")
		}
		for _, dir := range noteDirs(t) {
			if err := w.Add(dir); err != nil {
				log.WithError(err).WithField("dir", dir).Debug("watch notes dir")
			}
		}

		// Debounce: wait for changes to settle
		debounce := time.NewTimer(time.Hour)
		debounce.Stop()

		var msg RefreshMsg
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				switch {
				case ev.Name == t.ConfigFile:
					msg.Settings = true
				case isNoteEvent(t, ev):
					msg.Notes = true
				default:
					continue
				}
				debounce.Reset(Debounce)
			case <-debounce.C:
				return msg
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.WithError(err).Warn("watcher error")
			}
		}
	}
}

// noteDirs lists the notes folder and its subfolders, or the vault root
// while the notes folder does not exist yet.
func noteDirs(t Targets) []string {
	if info, err := os.Stat(t.NotesDir); err != nil || !info.IsDir() {
		return []string{t.VaultRoot}
	}
	var dirs []string
	_ = filepath.WalkDir(t.NotesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != t.NotesDir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	return dirs
}

func isNoteEvent(t Targets, ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false // temp files from atomic writes
	}
	rel, err := filepath.Rel(t.NotesDir, ev.Name)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, "..") {
		// Only the notes folder itself appearing matters outside it.
		return strings.HasPrefix(t.NotesDir, ev.Name)
	}
	return true
}
