package render

import "github.com/thinkwright/quickcal/internal/calendar"

// Key addresses one day cell inside one month block. The same date can sit
// in two blocks (trailing/leading days), so the month is part of the key.
type Key struct {
	Month calendar.Month
	Date  string // calendar.DateLayout
}

func (k Key) String() string { return k.Month.String() + "/" + k.Date }
