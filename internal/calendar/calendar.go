// Package calendar builds the fixed 6-week day grids shown for each month.
package calendar

import (
	"fmt"
	"time"

	"github.com/thinkwright/quickcal/internal/vault"
)

// GridSize is the number of cells in a month grid: 6 full weeks.
const GridSize = 42

// DateLayout is the canonical per-day key, independent of the configured file name format.
const DateLayout = "2006-01-02"

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Add returns the month n months after m (n may be negative).
func (m Month) Add(n int) Month {
	idx := m.Year*12 + int(m.Month-1) + n
	year := idx / 12
	mon := idx % 12
	if mon < 0 {
		mon += 12
		year--
	}
	return Month{Year: year, Month: time.Month(mon + 1)}
}

// Compare returns -1, 0 or 1 depending on whether m is before, equal to or after o.
func (m Month) Compare(o Month) int {
	switch {
	case m.Year < o.Year, m.Year == o.Year && m.Month < o.Month:
		return -1
	case m == o:
		return 0
	default:
		return 1
	}
}

func (m Month) Before(o Month) bool { return m.Compare(o) < 0 }

// Contains reports whether t falls in m.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// First returns midnight of the 1st of m in loc.
func (m Month) First(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// String formats the month as "2006-01".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Title formats the month for headers, e.g. "June 2024".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Day is one cell of a month grid.
type Day struct {
	Date           time.Time
	IsCurrentMonth bool
	IsToday        bool
	Content        string
	File           *vault.Entry
}

// Key returns the day's date in DateLayout.
func (d Day) Key() string {
	return d.Date.Format(DateLayout)
}

// IsWeekend reports whether the day is a Saturday or Sunday.
func (d Day) IsWeekend() bool {
	wd := d.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MonthData is a loaded month: its grid with content and file bindings.
type MonthData struct {
	Month Month
	Days  []Day
}

// Find returns the index of the cell for dateKey, or -1.
func (md MonthData) Find(dateKey string) int {
	for i, d := range md.Days {
		if d.Key() == dateKey {
			return i
		}
	}
	return -1
}

// WeekStart maps the start-on-Monday setting to a weekday.
func WeekStart(startOnMonday bool) time.Weekday {
	if startOnMonday {
		return time.Monday
	}
	return time.Sunday
}

// Truncate returns midnight of t's day in t's location.
func Truncate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// Grid returns the 42 placeholder days for month, starting on the last
// weekStart on or before the 1st. isToday is evaluated against now.
func Grid(month Month, weekStart time.Weekday, now time.Time) []Day {
	loc := now.Location()
	first := month.First(loc)
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	start := first.AddDate(0, 0, -offset)
	today := Truncate(now)

	days := make([]Day, GridSize)
	for i := range days {
		date := start.AddDate(0, 0, i)
		days[i] = Day{
			Date:           date,
			IsCurrentMonth: month.Contains(date),
			IsToday:        date.Equal(today),
		}
	}
	return days
}

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayLabels returns the column headers in display order. With weekends
// hidden only Mon..Fri remain.
func WeekdayLabels(weekStart time.Weekday, showWeekends bool) []string {
	labels := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(weekStart) + i) % 7)
		if !showWeekends && (wd == time.Saturday || wd == time.Sunday) {
			continue
		}
		labels = append(labels, weekdayShort[wd])
	}
	return labels
}

// VisibleDays drops weekend cells when showWeekends is false.
func VisibleDays(days []Day, showWeekends bool) []Day {
	if showWeekends {
		return days
	}
	out := make([]Day, 0, len(days)*5/7)
	for _, d := range days {
		if !d.IsWeekend() {
			out = append(out, d)
		}
	}
	return out
}

// Columns returns how many cells a grid row has.
func Columns(showWeekends bool) int {
	if showWeekends {
		return 7
	}
	return 5
}
