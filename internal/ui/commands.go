package ui

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/thinkwright/quickcal/internal/diary"
	"github.com/thinkwright/quickcal/internal/render"
	"github.com/thinkwright/quickcal/internal/store"
	"github.com/thinkwright/quickcal/internal/vault"
	"github.com/thinkwright/quickcal/internal/watcher"
	"github.com/thinkwright/quickcal/internal/window"
)

type loadedMsg struct {
	result window.Result
}

type renderedMsg struct {
	results []render.Result
}

// noteReadMsg carries the latest text of a note about to be edited.
type noteReadMsg struct {
	date  time.Time
	entry *vault.Entry
	text  string
	err   error
}

type savedMsg struct {
	date    time.Time
	entry   *vault.Entry
	text    string
	session int
	err     error
}

type createdMsg struct {
	date  time.Time
	entry *vault.Entry
	err   error
}

type editorClosedMsg struct {
	date  time.Time
	entry *vault.Entry
	err   error
}

type syncedMsg struct {
	stats   store.SyncStats
	rebuilt bool
	err     error
}

// watchedMsg tags a watcher result with the watch generation that produced it.
type watchedMsg struct {
	gen int
	watcher.RefreshMsg
}

type copiedMsg struct {
	path string
	err  error
}

type scrollTickMsg struct {
	id int
}

type statusExpiredMsg struct {
	id int
}

const (
	scrollFrames   = 8
	scrollInterval = 16 * time.Millisecond
	statusTTL      = 4 * time.Second
)

func scrollTickCmd(id int) tea.Cmd {
	return tea.Tick(scrollInterval, func(time.Time) tea.Msg {
		return scrollTickMsg{id: id}
	})
}

func statusExpireCmd(id int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

func loadCmd(binder *diary.Binder, req window.Request, weekStart time.Weekday, now time.Time) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{result: window.Load(context.Background(), binder, req, weekStart, now)}
	}
}

func renderCmd(pipe *render.Pipe, r render.Renderer, jobs []render.Job) tea.Cmd {
	if len(jobs) == 0 {
		return nil
	}
	return func() tea.Msg {
		return renderedMsg{results: pipe.Run(r, jobs)}
	}
}

func readNoteCmd(binder *diary.Binder, date time.Time, e *vault.Entry) tea.Cmd {
	return func() tea.Msg {
		text, err := binder.Read(e)
		return noteReadMsg{date: date, entry: e, text: text, err: err}
	}
}

func saveCmd(binder *diary.Binder, date time.Time, e *vault.Entry, text string, session int) tea.Cmd {
	return func() tea.Msg {
		err := binder.Save(e, text)
		return savedMsg{date: date, entry: e, text: text, session: session, err: err}
	}
}

func createCmd(binder *diary.Binder, date time.Time) tea.Cmd {
	return func() tea.Msg {
		e, err := binder.CreateEntry(date)
		return createdMsg{date: date, entry: e, err: err}
	}
}

func syncCmd(v *vault.Vault) tea.Cmd {
	return func() tea.Msg {
		stats, err := v.Sync()
		return syncedMsg{stats: stats, err: err}
	}
}

// reindexCmd drops the index and rebuilds it from disk.
func reindexCmd(db *store.Store, v *vault.Vault) tea.Cmd {
	return func() tea.Msg {
		if err := db.Reset(); err != nil {
			return syncedMsg{rebuilt: true, err: err}
		}
		stats, err := v.Sync()
		return syncedMsg{stats: stats, rebuilt: true, err: err}
	}
}

func watchCmd(t watcher.Targets, log *logrus.Entry, gen int) tea.Cmd {
	inner := watcher.Watch(t, log)
	return func() tea.Msg {
		if r, ok := inner().(watcher.RefreshMsg); ok {
			return watchedMsg{gen: gen, RefreshMsg: r}
		}
		return nil
	}
}

// editorCommand resolves the user's editor from $VISUAL, then $EDITOR.
func editorCommand() string {
	if e := strings.TrimSpace(os.Getenv("VISUAL")); e != "" {
		return e
	}
	if e := strings.TrimSpace(os.Getenv("EDITOR")); e != "" {
		return e
	}
	return "vi"
}

// openEditorCmd hands the terminal to the user's editor for the note.
func openEditorCmd(v *vault.Vault, date time.Time, e *vault.Entry) tea.Cmd {
	abs, err := v.Abs(e.Path)
	if err != nil {
		return func() tea.Msg { return editorClosedMsg{date: date, entry: e, err: err} }
	}
	args := strings.Fields(editorCommand())
	c := exec.Command(args[0], append(args[1:], abs)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorClosedMsg{date: date, entry: e, err: err}
	})
}

var clipboardWrite = clipboard.WriteAll

func copyCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{path: path, err: clipboardWrite(path)}
	}
}
