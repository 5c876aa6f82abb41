/*
dates.go - Calendar dates and closed date ranges

PURPOSE:
  Leave is booked in whole calendar days. This file holds the day-granular
  Date type, closed Periods, and the day counting used by both application
  submission and the per-year balance window.

RULES:
  - Dates carry no time of day and are always normalised to UTC midnight.
  - A Period is CLOSED: [Start, End], both days included.
  - DaysBetween counts inclusively: 2025-02-10..2025-02-12 is 3 days.
  - An inverted range (end before start) is an error, never a negative count.

SEE ALSO:
  - balance.go: uses YearBounds for the balance window
  - apply.go: uses DaysBetween for application duration
*/
package leave

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar-date format exchanged with clients.
const DateLayout = "2006-01-02"

// =============================================================================
// DATE
// =============================================================================

// Date is a calendar day.
type Date struct {
	Time time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day (in t's own location).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &DateFormatError{Value: s}
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for fixtures; it panics on bad input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

// String returns the ISO form. 0001-01-01 is a valid calendar date and
// renders as such.
func (d Date) String() string {
	return d.normalize().Format(DateLayout)
}

// =============================================================================
// PERIOD
// =============================================================================

const secondsPerDay = 24 * 60 * 60

// Period is a closed range of days [Start, End].
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, &InvalidRangeError{Start: start, End: end}
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether d lies inside the period.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Encloses reports whether other lies entirely inside p. A range that
// straddles either boundary is not enclosed.
func (p Period) Encloses(other Period) bool {
	return other.Start.AfterOrEqual(p.Start) && other.End.BeforeOrEqual(p.End)
}

// Days is the inclusive day count of the period. It counts on Unix seconds
// since time.Duration overflows past ~292 years.
func (p Period) Days() int {
	return int((p.End.normalize().Unix()-p.Start.normalize().Unix())/secondsPerDay) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// DAY COUNTING
// =============================================================================

// DaysBetween returns the inclusive number of days from start to end.
// It fails with *InvalidRangeError when end is before start.
func DaysBetween(start, end Date) (int, error) {
	p, err := NewPeriod(start, end)
	if err != nil {
		return 0, err
	}
	return p.Days(), nil
}

// YearBounds returns the closed interval [Jan 1, Dec 31] of year.
func YearBounds(year int) Period {
	return Period{
		Start: NewDate(year, time.January, 1),
		End:   NewDate(year, time.December, 31),
	}
}
