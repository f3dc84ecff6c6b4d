package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/thinkwright/quickcal/internal/calendar"
)

// PickerYears is how far the picker reaches either side of today's year.
const PickerYears = 10

// MonthPicker holds a pending month/year choice until it is confirmed.
type MonthPicker struct {
	open    bool
	minYear int
	maxYear int
	year    int
	month   time.Month
}

func NewMonthPicker() MonthPicker {
	return MonthPicker{}
}

func (p *MonthPicker) IsOpen() bool { return p.open }

// Open starts a selection at visible. Years are today's ±PickerYears.
func (p *MonthPicker) Open(visible calendar.Month, today time.Time) {
	p.open = true
	p.minYear = today.Year() - PickerYears
	p.maxYear = today.Year() + PickerYears
	p.year = visible.Year
	p.month = visible.Month
	p.clampYear()
}

// Close discards the pending selection.
func (p *MonthPicker) Close() {
	p.open = false
}

// Pending is the current, unconfirmed selection.
func (p *MonthPicker) Pending() calendar.Month {
	return calendar.Month{Year: p.year, Month: p.month}
}

// Confirm closes the picker and returns the selection.
func (p *MonthPicker) Confirm() (calendar.Month, bool) {
	if !p.open {
		return calendar.Month{}, false
	}
	p.open = false
	return p.Pending(), true
}

// MoveMonth moves within the 4×3 month grid; it stays inside the year.
func (p *MonthPicker) MoveMonth(delta int) {
	m := int(p.month) + delta
	if m < 1 || m > 12 {
		return
	}
	p.month = time.Month(m)
}

func (p *MonthPicker) MoveYear(delta int) {
	p.year += delta
	p.clampYear()
}

// SelectMonth picks a month by its 1-based number.
func (p *MonthPicker) SelectMonth(m time.Month) {
	if m >= time.January && m <= time.December {
		p.month = m
	}
}

func (p *MonthPicker) clampYear() {
	if p.year < p.minYear {
		p.year = p.minYear
	}
	if p.year > p.maxYear {
		p.year = p.maxYear
	}
}

const pickerCols = 3

func (p *MonthPicker) innerWidth() int { return 46 }

// View renders the picker box.
func (p *MonthPicker) View() string {
	if !p.open {
		return ""
	}
	innerW := p.innerWidth()
	dim := lipgloss.NewStyle().Foreground(ColorDim)

	left, right := "◂", "▸"
	if p.year <= p.minYear {
		left = " "
	}
	if p.year >= p.maxYear {
		right = " "
	}
	yearLine := fmt.Sprintf("%s  %s  %s", dim.Render(left), SelectedStyle.Render(fmt.Sprint(p.year)), dim.Render(right))
	pad := (innerW - visibleLen(yearLine)) / 2

	lines := []string{"", strings.Repeat(" ", pad) + yearLine, ""}
	for row := 0; row < 12/pickerCols; row++ {
		var cells []string
		for col := 0; col < pickerCols; col++ {
			m := time.Month(row*pickerCols + col + 1)
			name := fmt.Sprintf(" %-9s ", m.String())
			if m == p.month {
				cells = append(cells, SelectedDayStyle.Render(name))
			} else {
				cells = append(cells, NormalStyle.Render(name))
			}
		}
		lines = append(lines, "  "+strings.Join(cells, ""))
	}
	lines = append(lines, "")
	lines = append(lines, dim.Render("  ←↑↓→ month  [ ] year  Enter go  Esc cancel"))

	return modalBox("GO TO MONTH", lines, innerW, ColorCyan)
}

// Size returns the rendered box dimensions.
func (p *MonthPicker) Size() (w, h int) {
	return p.innerWidth() + 2, 12/pickerCols + 5 + 2
}
