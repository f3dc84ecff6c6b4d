package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thinkwright/quickcal/internal/vault"
)

// EditModal edits one day's note in a centered overlay.
type EditModal struct {
	open    bool
	saving  bool
	err     string
	session int // bumped by every Open; stale save results compare against it

	date  time.Time
	entry *vault.Entry
	title string

	ta     textarea.Model
	width  int
	height int
}

func NewEditModal() EditModal {
	ta := textarea.New()
	ta.Placeholder = "Start writing..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	return EditModal{ta: ta}
}

func (m *EditModal) IsOpen() bool        { return m.open }
func (m *EditModal) IsSaving() bool      { return m.saving }
func (m *EditModal) Err() string         { return m.err }
func (m *EditModal) Date() time.Time     { return m.date }
func (m *EditModal) Entry() *vault.Entry { return m.entry }

// Open shows text for the note bound to date.
func (m *EditModal) Open(date time.Time, entry *vault.Entry, title, text string) tea.Cmd {
	m.open = true
	m.saving = false
	m.err = ""
	m.session++
	m.date = date
	m.entry = entry
	m.title = title
	m.ta.SetValue(text)
	m.layout()
	return m.ta.Focus()
}

// SetText replaces the buffer.
func (m *EditModal) SetText(s string) {
	m.ta.SetValue(s)
}

func (m *EditModal) Text() string { return m.ta.Value() }

// BeginSave marks the modal as saving and returns what to write. It refuses
// while a save is already running.
func (m *EditModal) BeginSave() (entry *vault.Entry, text string, session int, ok bool) {
	if !m.open || m.saving {
		return nil, "", 0, false
	}
	m.saving = true
	m.err = ""
	m.ta.Blur()
	return m.entry, m.ta.Value(), m.session, true
}

// SaveFailed keeps the modal open with the buffer intact.
func (m *EditModal) SaveFailed(session int, err error) tea.Cmd {
	if session != m.session || !m.open {
		return nil
	}
	m.saving = false
	m.err = err.Error()
	return m.ta.Focus()
}

// SaveSucceeded closes the modal if it still shows the saved session.
func (m *EditModal) SaveSucceeded(session int) bool {
	if session != m.session || !m.open {
		return false
	}
	m.Close()
	return true
}

// Close discards the buffer. Safe to call at any time.
func (m *EditModal) Close() {
	m.open = false
	m.saving = false
	m.err = ""
	m.entry = nil
	m.title = ""
	m.ta.Blur()
	m.ta.Reset()
}

func (m *EditModal) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.layout()
}

func (m *EditModal) modalWidth() int {
	w := m.width * 70 / 100
	if w > 100 {
		w = 100
	}
	if w < 40 {
		w = 40
	}
	return w
}

func (m *EditModal) contentHeight() int {
	h := m.height * 70 / 100
	if h < 5 {
		h = 5
	}
	return h
}

func (m *EditModal) layout() {
	m.ta.SetWidth(m.modalWidth() - 6)
	m.ta.SetHeight(m.contentHeight())
}

// Update forwards input to the textarea. Input is ignored while saving.
func (m *EditModal) Update(msg tea.Msg) tea.Cmd {
	if !m.open || m.saving {
		return nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return cmd
}

// View renders the modal box; the caller centers it over the calendar.
func (m *EditModal) View() string {
	if !m.open {
		return ""
	}
	innerW := m.modalWidth() - 2
	dim := lipgloss.NewStyle().Foreground(ColorDim)

	var lines []string
	lines = append(lines, "  "+DimStyle.Render(m.entry.Path))
	lines = append(lines, "")
	for _, l := range splitLines(m.ta.View()) {
		lines = append(lines, "  "+l)
	}
	lines = append(lines, "")

	switch {
	case m.saving:
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorYellow).Render("Saving..."))
	case m.err != "":
		lines = append(lines, "  "+ErrorStyle.Render(fmt.Sprintf("Save failed: %s", m.err)))
	default:
		lines = append(lines, "")
	}
	lines = append(lines, dim.Render("  Ctrl+S save  Ctrl+G go to month  Esc close"))

	return modalBox(m.title, lines, innerW, ColorAccent)
}
