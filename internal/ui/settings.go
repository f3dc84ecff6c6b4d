package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thinkwright/quickcal/internal/config"
)

const (
	settingWeekends = iota
	settingMonday
	settingFolder
	settingFormat
	settingReindex
	settingCount
)

// SettingsModal edits a draft copy of the calendar settings.
type SettingsModal struct {
	open    bool
	cursor  int
	draft   config.Settings
	editing bool
	input   textinput.Model
	err     string
}

func NewSettingsModal() SettingsModal {
	in := textinput.New()
	in.CharLimit = 256
	in.Prompt = "› "
	in.PromptStyle = lipgloss.NewStyle().Foreground(ColorCyan)
	in.TextStyle = lipgloss.NewStyle().Foreground(ColorWhite)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ColorDim)
	return SettingsModal{input: in}
}

func (s *SettingsModal) IsOpen() bool { return s.open }

func (s *SettingsModal) Open(current config.Settings) {
	s.open = true
	s.cursor = 0
	s.draft = current
	s.editing = false
	s.err = ""
}

func (s *SettingsModal) Close() {
	s.open = false
	s.editing = false
	s.err = ""
	s.input.Blur()
}

func (s *SettingsModal) Up() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *SettingsModal) Down() {
	if s.cursor < settingCount-1 {
		s.cursor++
	}
}

// Toggle flips the boolean under the cursor. It reports whether the draft changed.
func (s *SettingsModal) Toggle() bool {
	switch s.cursor {
	case settingWeekends:
		s.draft.ShowWeekends = !s.draft.ShowWeekends
	case settingMonday:
		s.draft.StartWeekOnMonday = !s.draft.StartWeekOnMonday
	default:
		return false
	}
	return true
}

// BeginEdit starts editing the text field under the cursor.
func (s *SettingsModal) BeginEdit() tea.Cmd {
	switch s.cursor {
	case settingFolder:
		s.input.Placeholder = "vault root"
		s.input.SetValue(s.draft.DiaryFolder)
	case settingFormat:
		s.input.Placeholder = "YYYY-MM-DD"
		s.input.SetValue(s.draft.DateFormat)
	default:
		return nil
	}
	s.editing = true
	s.err = ""
	s.input.CursorEnd()
	s.input.Focus()
	return textinput.Blink
}

// CommitEdit validates the edited value into a candidate draft. The draft
// only changes when the candidate is valid.
func (s *SettingsModal) CommitEdit() (config.Settings, bool) {
	next := s.draft
	switch s.cursor {
	case settingFolder:
		next.DiaryFolder = s.input.Value()
	case settingFormat:
		next.DateFormat = s.input.Value()
	}
	if err := next.Validate(); err != nil {
		s.err = err.Error()
		return s.draft, false
	}
	s.draft = next
	s.editing = false
	s.err = ""
	s.input.Blur()
	return next, true
}

func (s *SettingsModal) CancelEdit() {
	s.editing = false
	s.err = ""
	s.input.Blur()
}

func (s *SettingsModal) SetError(err error) {
	s.err = err.Error()
}

func (s *SettingsModal) Draft() config.Settings { return s.draft }

func (s *SettingsModal) UpdateInput(msg tea.Msg) tea.Cmd {
	s.err = ""
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

// View renders the settings box. stats is the index summary line.
func (s *SettingsModal) View(width int, stats string) string {
	innerW := width * 50 / 100
	if innerW > 64 {
		innerW = 64
	}
	if innerW < 44 {
		innerW = 44
	}
	dim := lipgloss.NewStyle().Foreground(ColorDim)
	section := lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	selMark := lipgloss.NewStyle().Foreground(ColorSelect)

	check := func(b bool) string {
		if b {
			return lipgloss.NewStyle().Foreground(ColorGreen).Render("[x]")
		}
		return dim.Render("[ ]")
	}
	folder := s.draft.DiaryFolder
	if folder == "" {
		folder = dim.Render("(vault root)")
	}

	labels := []string{
		fmt.Sprintf("%s Show weekends", check(s.draft.ShowWeekends)),
		fmt.Sprintf("%s Start week on Monday", check(s.draft.StartWeekOnMonday)),
		fmt.Sprintf("Diary folder  %s", folder),
		fmt.Sprintf("Date format   %s", s.draft.DateFormat),
		"[R] Rebuild index",
	}

	lines := []string{"", "  " + section.Render("CALENDAR"), ""}
	for i, label := range labels {
		if i == settingReindex {
			lines = append(lines, "", "  "+section.Render("INDEX"), "", "  "+dim.Render(stats), "")
		}
		if s.editing && i == s.cursor {
			s.input.Width = innerW - 8
			lines = append(lines, "  "+selMark.Render("▸")+" "+s.input.View())
			continue
		}
		if i == s.cursor {
			lines = append(lines, fmt.Sprintf("  %s %s", selMark.Render("▸"), SelectedStyle.Render(stripAnsi(label))))
		} else {
			lines = append(lines, "    "+NormalStyle.Render(label))
		}
	}
	lines = append(lines, "")
	if s.err != "" {
		lines = append(lines, "  "+ErrorStyle.Render(s.err))
	} else {
		lines = append(lines, "")
	}

	switch {
	case s.editing:
		lines = append(lines, dim.Render("  Enter: save  Esc: cancel"))
	default:
		lines = append(lines, dim.Render("  ↑↓ navigate  Enter/Space change  Esc close"))
	}
	return modalBox("SETTINGS", lines, innerW, ColorCyan)
}
