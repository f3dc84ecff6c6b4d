// Package datefmt formats dates with moment-style patterns such as "YYYY-MM-DD",
// the notation diary folders are usually configured with.
package datefmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmpty        = errors.New("date format is empty")
	ErrUnterminated = errors.New("unterminated [ in date format")
	ErrAmbiguous    = errors.New("date format does not identify a single day")
)

type kind int

const (
	literal kind = iota
	year4
	year2
	monthLong
	monthShort
	month2
	month1
	day2
	day1
	dayOrdinal
	dayOfYear3
	dayOfYear1
	weekdayLong
	weekdayShort
	weekdayMin
	weekdayNum
	isoWeekdayNum
	quarter
	week2
	week1
)

type token struct {
	kind kind
	text string
}

// tokens are matched longest first at each position.
var tokenTable = []struct {
	pat  string
	kind kind
}{
	{"YYYY", year4},
	{"YY", year2},
	{"MMMM", monthLong},
	{"MMM", monthShort},
	{"MM", month2},
	{"M", month1},
	{"DDDD", dayOfYear3},
	{"DDD", dayOfYear1},
	{"DD", day2},
	{"Do", dayOrdinal},
	{"D", day1},
	{"dddd", weekdayLong},
	{"ddd", weekdayShort},
	{"dd", weekdayMin},
	{"d", weekdayNum},
	{"E", isoWeekdayNum},
	{"Q", quarter},
	{"ww", week2},
	{"w", week1},
}

// Pattern is a compiled date format.
type Pattern struct {
	src    string
	tokens []token
}

// Compile parses a moment-style pattern. Text inside [brackets] is literal,
// as is any rune that does not start a known token.
func Compile(src string) (Pattern, error) {
	if strings.TrimSpace(src) == "" {
		return Pattern{}, ErrEmpty
	}
	var toks []token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			toks = append(toks, token{kind: literal, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		if src[i] == '[' {
			end := strings.IndexByte(src[i+1:], ']')
			if end < 0 {
				return Pattern{}, fmt.Errorf("%w: %q", ErrUnterminated, src)
			}
			lit.WriteString(src[i+1 : i+1+end])
			i += end + 2
			continue
		}
		matched := false
		for _, t := range tokenTable {
			if strings.HasPrefix(src[i:], t.pat) {
				flush()
				toks = append(toks, token{kind: t.kind})
				i += len(t.pat)
				matched = true
				break
			}
		}
		if !matched {
			lit.WriteByte(src[i])
			i++
		}
	}
	flush()

	p := Pattern{src: src, tokens: toks}
	if !p.identifiesDay() {
		return Pattern{}, fmt.Errorf("%w: %q", ErrAmbiguous, src)
	}
	return p, nil
}

// Validate reports whether src compiles.
func Validate(src string) error {
	_, err := Compile(src)
	return err
}

func (p Pattern) identifiesDay() bool {
	var hasYear, hasMonth, hasDay, hasDayOfYear bool
	for _, t := range p.tokens {
		switch t.kind {
		case year4, year2:
			hasYear = true
		case monthLong, monthShort, month2, month1:
			hasMonth = true
		case day2, day1, dayOrdinal:
			hasDay = true
		case dayOfYear3, dayOfYear1:
			hasDayOfYear = true
		}
	}
	return hasYear && (hasDayOfYear || (hasMonth && hasDay))
}

// String returns the source pattern.
func (p Pattern) String() string { return p.src }

// Format renders t with the pattern.
func (p Pattern) Format(t time.Time) string {
	var b strings.Builder
	for _, tok := range p.tokens {
		switch tok.kind {
		case literal:
			b.WriteString(tok.text)
		case year4:
			fmt.Fprintf(&b, "%04d", t.Year())
		case year2:
			fmt.Fprintf(&b, "%02d", t.Year()%100)
		case monthLong:
			b.WriteString(t.Month().String())
		case monthShort:
			b.WriteString(t.Month().String()[:3])
		case month2:
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case month1:
			b.WriteString(strconv.Itoa(int(t.Month())))
		case day2:
			fmt.Fprintf(&b, "%02d", t.Day())
		case day1:
			b.WriteString(strconv.Itoa(t.Day()))
		case dayOrdinal:
			b.WriteString(ordinal(t.Day()))
		case dayOfYear3:
			fmt.Fprintf(&b, "%03d", t.YearDay())
		case dayOfYear1:
			b.WriteString(strconv.Itoa(t.YearDay()))
		case weekdayLong:
			b.WriteString(t.Weekday().String())
		case weekdayShort:
			b.WriteString(t.Weekday().String()[:3])
		case weekdayMin:
			b.WriteString(t.Weekday().String()[:2])
		case weekdayNum:
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case isoWeekdayNum:
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			b.WriteString(strconv.Itoa(wd))
		case quarter:
			b.WriteString(strconv.Itoa((int(t.Month())-1)/3 + 1))
		case week2:
			fmt.Fprintf(&b, "%02d", localeWeek(t))
		case week1:
			b.WriteString(strconv.Itoa(localeWeek(t)))
		}
	}
	return b.String()
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 10 {
	case 1:
		suffix = "st"
	case 2:
		suffix = "nd"
	case 3:
		suffix = "rd"
	}
	if n%100 >= 11 && n%100 <= 13 {
		suffix = "th"
	}
	return strconv.Itoa(n) + suffix
}

// localeWeek is the en-US week of year: weeks start on Sunday and week 1
// contains January 1st. The last days of December fall in week 1 when their
// week already holds the next January 1st.
func localeWeek(t time.Time) int {
	if sat := t.AddDate(0, 0, 6-int(t.Weekday())); sat.Year() > t.Year() {
		return 1
	}
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	offset := int(jan1.Weekday())
	return (t.YearDay()-1+offset)/7 + 1
}
