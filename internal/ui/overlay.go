package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// overlayKind names an entry of the overlay stack. The last entry is the
// top-most overlay and receives keys first.
type overlayKind int

const (
	overlayEditor overlayKind = iota
	overlayPicker
	overlaySettings
	overlayQuit
)

// modalBox draws the heavy modal border around lines, with title in
// the top border. innerW is the width between the side borders.
func modalBox(title string, lines []string, innerW int, color lipgloss.Color) string {
	bc := lipgloss.NewStyle().Foreground(color)
	tc := lipgloss.NewStyle().Foreground(color).Bold(true)

	title = " " + title + " "
	fillLen := innerW - 3 - utf8.RuneCountInString(title)
	if fillLen < 0 {
		fillLen = 0
	}
	rows := make([]string, 0, len(lines)+2)
	rows = append(rows, bc.Render("┏━╸")+tc.Render(title)+bc.Render("╺"+strings.Repeat("━", fillLen)+"┓"))

	side := bc.Render("┃")
	for _, l := range lines {
		rows = append(rows, side+fitWidth(l, innerW)+side)
	}
	rows = append(rows, bc.Render("┗"+strings.Repeat("━", innerW)+"┛"))
	return strings.Join(rows, "\n")
}

// centeredRect returns the top-left corner of a w×h box centered in the screen.
func centeredRect(screenW, screenH, w, h int) (left, top int) {
	left = (screenW - w) / 2
	top = (screenH - h) / 2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return left, top
}

// overlayCenter composites a small modal on top of a rendered background,
// replacing lines in the center while keeping the calendar visible around it.
func overlayCenter(bg, modal string, width, height int) string {
	bgLines := strings.Split(bg, "\n")
	modalLines := strings.Split(modal, "\n")

	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}

	modalW := 0
	for _, ml := range modalLines {
		if w := visibleLen(ml); w > modalW {
			modalW = w
		}
	}
	leftOff, topOff := centeredRect(width, height, modalW, len(modalLines))

	for i, ml := range modalLines {
		row := topOff + i
		if row < len(bgLines) {
			bgLines[row] = spliceAnsiLine(bgLines[row], ml, leftOff, width)
		}
	}

	return strings.Join(bgLines, "\n")
}

// ansiSeg is either an ANSI escape sequence (visible=false) or a single
// visible rune (visible=true).
type ansiSeg struct {
	text    string
	visible bool
}

func splitAnsiSegments(s string) []ansiSeg {
	var segs []ansiSeg
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' {
			// Scan to end of escape sequence (letter terminates)
			j := i + 1
			for j < len(s) && !((s[j] >= 'a' && s[j] <= 'z') || (s[j] >= 'A' && s[j] <= 'Z')) {
				j++
			}
			if j < len(s) {
				j++
			}
			segs = append(segs, ansiSeg{s[i:j], false})
			i = j
		} else {
			_, size := utf8.DecodeRuneInString(s[i:])
			segs = append(segs, ansiSeg{s[i : i+size], true})
			i += size
		}
	}
	return segs
}

// spliceAnsiLine composites modalLine on top of bgLine starting at visible
// column leftOff. Preserves background on both sides of the modal.
func spliceAnsiLine(bgLine, modalLine string, leftOff, totalWidth int) string {
	modalVisW := visibleLen(modalLine)
	segs := splitAnsiSegments(bgLine)

	var out strings.Builder
	col := 0

	for _, seg := range segs {
		if col >= leftOff {
			break
		}
		out.WriteString(seg.text)
		if seg.visible {
			col += runewidth.StringWidth(seg.text)
		}
	}
	for col < leftOff {
		out.WriteByte(' ')
		col++
	}

	out.WriteString("\x1b[0m")
	out.WriteString(modalLine)

	rightStart := leftOff + modalVisW
	bgCol := 0
	for _, seg := range segs {
		if !seg.visible {
			if bgCol > rightStart {
				out.WriteString(seg.text)
			}
			continue
		}
		bgCol += runewidth.StringWidth(seg.text)
		if bgCol <= rightStart {
			continue
		}
		out.WriteString(seg.text)
	}

	return out.String()
}

// truncateToWidth cuts s to at most w visible columns, keeping escape
// sequences intact and resetting styles at the cut.
func truncateToWidth(s string, w int) string {
	if visibleLen(s) <= w {
		return s
	}
	var out strings.Builder
	col := 0
	for _, seg := range splitAnsiSegments(s) {
		if !seg.visible {
			out.WriteString(seg.text)
			continue
		}
		rw := runewidth.StringWidth(seg.text)
		if col+rw > w {
			break
		}
		out.WriteString(seg.text)
		col += rw
	}
	out.WriteString("\x1b[0m")
	return out.String()
}

// fitWidth truncates or pads s to exactly w visible columns.
func fitWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = truncateToWidth(s, w)
	if pad := w - visibleLen(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func visibleLen(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

func stripAnsi(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
