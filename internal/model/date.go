package model

import (
	"fmt"
	"time"
)

// dateLayout is the wire and display format for calendar dates.
const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. Scheduling
// comparisons are whole-day: a task due today is not overdue. The zero
// Date is "no date".
type Date struct {
	t time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the calendar date of the given instant.
func Today(now time.Time) Date {
	return DateOf(now)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.t.AddDate(0, 0, n))
}

// AddDate returns the date shifted by the given years, months and days.
// Out-of-range results normalize the way time.AddDate does: January 31
// plus one month is March 2 (or March 3 in leap years), not a clamped
// February day.
func (d Date) AddDate(years, months, days int) Date {
	return DateOf(d.t.AddDate(years, months, days))
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.t.Year()
}

// Month returns the calendar month.
func (d Date) Month() time.Month {
	return d.t.Month()
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.t.Day()
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("parsing date %s: not a JSON string", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
