package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Calendar day without time-of-day or zone.
// The zero value is the "invalid" date: it never falls inside a Period.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// ParseCalendarDate parses a strict YYYY-MM-DD string.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// NormalizeDate extracts the calendar day from a trip timestamp.
//
// Two layouts are recognized by the position of their separators:
// "DD-MM-YYYY HH:MM:SS" (dashes at offsets 2 and 5) and anything beginning
// with "YYYY-MM-DD". Time of day is ignored. Input matching neither layout,
// or naming a day that does not exist, yields the zero CalendarDate.
func NormalizeDate(raw string) CalendarDate {
	s := strings.TrimSpace(raw)
	if len(s) < 10 {
		return CalendarDate{}
	}

	var iso string
	if s[2] == '-' && s[5] == '-' {
		iso = s[6:10] + "-" + s[3:5] + "-" + s[0:2]
	} else {
		iso = s[:10]
	}

	d, err := ParseCalendarDate(iso)
	if err != nil {
		return CalendarDate{}
	}
	return d
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Compare returns -1, 0 or 1.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d CalendarDate) Before(o CalendarDate) bool { return d.Compare(o) < 0 }

func (d CalendarDate) After(o CalendarDate) bool { return d.Compare(o) > 0 }

// AddDays shifts the date by n days across month and year boundaries.
func (d CalendarDate) AddDays(n int) CalendarDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Inclusive settlement date range.
type Period struct {
	Start CalendarDate
	End   CalendarDate
}

// ParsePeriod validates the caller-supplied bounds of a settlement period.
// Both bounds are required, must be YYYY-MM-DD, and start must not be after end.
func ParsePeriod(start, end string) (Period, error) {
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return Period{}, fmt.Errorf("%w: inicio and fim are required (YYYY-MM-DD)", ErrValidation)
	}

	s, err := ParseCalendarDate(start)
	if err != nil {
		return Period{}, fmt.Errorf("parse period start: %w", err)
	}
	e, err := ParseCalendarDate(end)
	if err != nil {
		return Period{}, fmt.Errorf("parse period end: %w", err)
	}
	if s.After(e) {
		return Period{}, fmt.Errorf("%w: inicio %s is after fim %s", ErrValidation, s, e)
	}

	return Period{Start: s, End: e}, nil
}

// Contains reports whether a trip with the given normalized dates lies fully
// inside the period. Trips crossing either boundary are excluded, never split.
func (p Period) Contains(start, end CalendarDate) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !start.Before(p.Start) && !end.After(p.End)
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}
