package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/thinkwright/quickcal/internal/calendar"
	"github.com/thinkwright/quickcal/internal/render"
	"github.com/thinkwright/quickcal/internal/window"
)

// Screen rows outside the calendar body: header bar, panel borders, status bar.
const (
	headerRows   = 1
	panelTopY    = headerRows
	contentTopY  = panelTopY + 1
	chromeRows   = 4
	noteLines    = 3
	blockHeadRow = 2 // month title + weekday labels
	weeksPerGrid = calendar.GridSize / 7
)

// geometry is the character-cell layout of the month blocks.
type geometry struct {
	cols   int
	cellW  int
	cellH  int
	blockH int
	viewH  int
}

func newGeometry(screenW, screenH int, showWeekends bool) geometry {
	cols := calendar.Columns(showWeekends)
	gridW := screenW - 3 // panel borders + scrollbar
	cellW := gridW / cols
	if cellW < 4 {
		cellW = 4
	}
	cellH := 1 + noteLines
	viewH := screenH - chromeRows
	if viewH < 1 {
		viewH = 1
	}
	return geometry{
		cols:   cols,
		cellW:  cellW,
		cellH:  cellH,
		blockH: blockHeadRow + weeksPerGrid*cellH + 1,
		viewH:  viewH,
	}
}

// noteWidth is the width note text is rendered at inside a cell.
func (g geometry) noteWidth() int { return g.cellW - 1 }

func (g geometry) contentHeight(blocks int) int { return blocks * g.blockH }

func (g geometry) maxOffset(blocks int) int {
	if n := g.contentHeight(blocks) - g.viewH; n > 0 {
		return n
	}
	return 0
}

func (g geometry) metrics(blocks, offset int) window.ScrollMetrics {
	extents := make([]window.Extent, blocks)
	for i := range extents {
		extents[i] = window.Extent{Top: i * g.blockH, Bottom: (i + 1) * g.blockH}
	}
	return window.ScrollMetrics{
		ScrollTop:    offset,
		ClientHeight: g.viewH,
		ScrollHeight: g.contentHeight(blocks),
		Blocks:       extents,
	}
}

// cellRow returns the content row of the first line of the cell at idx
// (index into the visible days) of block bi.
func (g geometry) cellRow(bi, idx int) int {
	return bi*g.blockH + blockHeadRow + (idx/g.cols)*g.cellH
}

// hitTest maps a screen position to the day under it.
func hitTest(g geometry, months []calendar.MonthData, showWeekends bool, offset, x, y int) (calendar.Month, calendar.Day, bool) {
	if y < contentTopY || y >= contentTopY+g.viewH || x < 1 {
		return calendar.Month{}, calendar.Day{}, false
	}
	row := offset + y - contentTopY
	bi := row / g.blockH
	if bi < 0 || bi >= len(months) {
		return calendar.Month{}, calendar.Day{}, false
	}
	r := row%g.blockH - blockHeadRow
	if r < 0 || r >= weeksPerGrid*g.cellH {
		return calendar.Month{}, calendar.Day{}, false
	}
	col := (x - 1) / g.cellW
	if col >= g.cols {
		return calendar.Month{}, calendar.Day{}, false
	}
	days := calendar.VisibleDays(months[bi].Days, showWeekends)
	idx := (r/g.cellH)*g.cols + col
	if idx >= len(days) {
		return calendar.Month{}, calendar.Day{}, false
	}
	return months[bi].Month, days[idx], true
}

// blockView holds what renderBlock needs besides the month itself.
type blockView struct {
	g            geometry
	weekStart    time.Weekday
	showWeekends bool
	selected     render.Key
	pipe         *render.Pipe
}

// renderBlock returns exactly g.blockH lines for md.
func renderBlock(v blockView, md calendar.MonthData) []string {
	g := v.g
	lines := make([]string, 0, g.blockH)
	lines = append(lines, " "+MonthTitleStyle.Render(md.Month.Title()))

	var hdr strings.Builder
	for _, l := range calendar.WeekdayLabels(v.weekStart, v.showWeekends) {
		hdr.WriteString(fitWidth(" "+WeekdayStyle.Render(l), g.cellW))
	}
	lines = append(lines, hdr.String())

	days := calendar.VisibleDays(md.Days, v.showWeekends)
	for w := 0; w < weeksPerGrid; w++ {
		rows := make([]strings.Builder, g.cellH)
		for c := 0; c < g.cols; c++ {
			idx := w*g.cols + c
			var cell []string
			if idx < len(days) {
				cell = renderCell(v, md.Month, days[idx])
			}
			for i := range rows {
				text := ""
				if i < len(cell) {
					text = cell[i]
				}
				rows[i].WriteString(fitWidth(text, g.cellW))
			}
		}
		for i := range rows {
			lines = append(lines, rows[i].String())
		}
	}
	lines = append(lines, "")
	return lines
}

func renderCell(v blockView, month calendar.Month, d calendar.Day) []string {
	key := render.Key{Month: month, Date: d.Key()}
	selected := key == v.selected

	num := fmt.Sprintf(" %2d ", d.Date.Day())
	style := DayNumberStyle
	switch {
	case selected:
		style = SelectedDayStyle
	case d.IsToday:
		style = TodayStyle
	case !d.IsCurrentMonth:
		style = OtherMonthStyle
	case d.File != nil:
		style = HasNoteStyle
	case d.IsWeekend():
		style = WeekendStyle
	}
	head := style.Render(num)
	if d.File != nil && d.IsCurrentMonth {
		head += HasNoteStyle.Render("•")
	}
	cell := []string{head}

	w := v.g.noteWidth()
	switch {
	case d.File != nil && d.Content != "":
		text, ok := "", false
		if v.pipe != nil {
			text, ok = v.pipe.Output(key)
		}
		if !ok {
			text = DimStyle.Render(d.Content)
		}
		for _, l := range noteLinesOf(text, noteLines) {
			cell = append(cell, " "+truncateToWidth(l, w))
		}
	case d.File == nil && d.IsCurrentMonth && selected:
		cell = append(cell, " "+NewNoteStyle.Render("+ new"))
	}
	if !d.IsCurrentMonth {
		for i := 1; i < len(cell); i++ {
			cell[i] = OtherMonthStyle.Render(stripAnsi(cell[i]))
		}
	}
	return cell
}

// noteLinesOf returns up to n non-blank lines of s.
func noteLinesOf(s string, n int) []string {
	var out []string
	for _, l := range splitLines(s) {
		if strings.TrimSpace(stripAnsi(l)) == "" {
			continue
		}
		out = append(out, l)
		if len(out) == n {
			break
		}
	}
	return out
}

func splitLines(s string) []string {
	return strings.Split(s, "\n")
}

// visibleRows renders the content rows [offset, offset+g.viewH).
func visibleRows(v blockView, months []calendar.MonthData, offset int) []string {
	g := v.g
	out := make([]string, 0, g.viewH)
	if len(months) == 0 {
		return out
	}
	first := offset / g.blockH
	for bi := first; bi < len(months) && len(out) < g.viewH; bi++ {
		lines := renderBlock(v, months[bi])
		start := 0
		if bi == first {
			start = offset - bi*g.blockH
		}
		for _, l := range lines[start:] {
			if len(out) == g.viewH {
				break
			}
			out = append(out, l)
		}
	}
	return out
}
