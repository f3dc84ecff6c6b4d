package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Nostromo MU/TH/UR 6000 color palette
var (
	ColorCyan      = lipgloss.Color("#5a9ab5")
	ColorCyanDim   = lipgloss.Color("#3a6678")
	ColorAccent    = lipgloss.Color("#7fcfdf") // bright focus accent
	ColorGreen     = lipgloss.Color("#5aaa7a")
	ColorGreenDim  = lipgloss.Color("#3a6648")
	ColorRed       = lipgloss.Color("#b56a6a")
	ColorYellow    = lipgloss.Color("#b5a05a")
	ColorYellowDim = lipgloss.Color("#5a5030")
	ColorDim       = lipgloss.Color("#3a5565")
	ColorMuted     = lipgloss.Color("#1a2a35")
	ColorBg        = lipgloss.Color("#000000")
	ColorBarBg     = lipgloss.Color("#0f1e28") // status/header bar background
	ColorBarText   = lipgloss.Color("#d0dde5") // white text for status bars
	ColorWhite     = lipgloss.Color("#8899a5")
	ColorSelect    = lipgloss.Color("#c8d84a") // vivid yellow-green for selected items
	ColorSelectBg  = lipgloss.Color("#1a2a1a") // subtle dark green row background for selection

	// Styles
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorSelect).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDim)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// Day cells
	DayNumberStyle   = lipgloss.NewStyle().Foreground(ColorWhite)
	OtherMonthStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	WeekendStyle     = lipgloss.NewStyle().Foreground(ColorCyanDim)
	TodayStyle       = lipgloss.NewStyle().Foreground(ColorBg).Background(ColorAccent).Bold(true)
	HasNoteStyle     = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	SelectedDayStyle = lipgloss.NewStyle().Foreground(ColorSelect).Background(ColorSelectBg).Bold(true)
	NewNoteStyle     = lipgloss.NewStyle().Foreground(ColorYellowDim)
	MonthTitleStyle  = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	WeekdayStyle     = lipgloss.NewStyle().Foreground(ColorDim).Bold(true)
)

// ─── Custom Border Rendering ──────────────────────────────────────────
// Renders panels with inline title in the top border:
//   ┏━━╸ JUNE 2024 ╺━━━━━━━━━━━━┓
//   ┃                             ┃
//   ┗━━━━━━━━━━━━━━━━━━━━━━━━━━━━┛

// RenderPanel draws a panel with an inline title in the top border.
func RenderPanel(title string, content string, w, h int, focused bool) string {
	borderColor := ColorCyanDim
	titleColor := ColorCyan
	if focused {
		borderColor = lipgloss.Color("#70cc90") // bright green border
		titleColor = lipgloss.Color("#a0ffbb")  // near-white green title
	}

	bc := lipgloss.NewStyle().Foreground(borderColor)
	tc := lipgloss.NewStyle().Foreground(titleColor).Bold(true)

	innerW := w - 2 // subtract left+right border chars

	titleText := " " + title + " "
	titleVisLen := utf8.RuneCountInString(titleText)
	fillLen := w - 5 - titleVisLen
	if fillLen < 0 {
		fillLen = 0
	}
	topBorder := bc.Render("┏━╸") + tc.Render(titleText) + bc.Render("╺"+strings.Repeat("━", fillLen)+"┓")
	bottomBorder := bc.Render("┗" + strings.Repeat("━", innerW) + "┛")
	side := bc.Render("┃")

	lines := strings.Split(content, "\n")
	for len(lines) < h {
		lines = append(lines, "")
	}
	if len(lines) > h {
		lines = lines[:h]
	}

	rows := make([]string, 0, h+2)
	rows = append(rows, topBorder)
	for _, line := range lines {
		rows = append(rows, side+fitWidth(line, innerW)+side)
	}
	rows = append(rows, bottomBorder)

	return strings.Join(rows, "\n")
}

// ─── Scrollbar ────────────────────────────────────────────────────────

// RenderScrollbar returns one scrollbar character per visible row for a
// viewport of height rows over totalLines at offset.
func RenderScrollbar(height, totalLines, offset int) []string {
	track := make([]string, height)

	if totalLines <= height || height < 1 {
		for i := range track {
			track[i] = " "
		}
		return track
	}

	// Thumb size: proportional to viewport/content ratio, min 1 row
	thumbSize := (height * height) / totalLines
	if thumbSize < 1 {
		thumbSize = 1
	}

	maxOffset := totalLines - height
	if maxOffset < 1 {
		maxOffset = 1
	}
	thumbPos := (offset * (height - thumbSize)) / maxOffset

	thumbChar := lipgloss.NewStyle().Foreground(ColorAccent).Render("┃")
	trackChar := lipgloss.NewStyle().Foreground(ColorMuted).Render("╎")

	for i := range track {
		if i >= thumbPos && i < thumbPos+thumbSize {
			track[i] = thumbChar
		} else {
			track[i] = trackChar
		}
	}

	return track
}
