package model

import (
	"fmt"
	"time"
)

// Date is a civil date with no time-of-day component, stored as UTC midnight.
// The zero value means "no date"; an open-ended validity window uses it for
// its upper bound.
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, m, d)
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Equal reports whether d and o are the same date.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Key returns the YYYYMMDD integer date key used on fact rows,
// or 0 for the zero date.
func (d Date) Key() int {
	if d.IsZero() {
		return 0
	}
	y, m, day := d.t.Date()
	return y*10000 + int(m)*100 + day
}

// Time returns the date as UTC midnight.
func (d Date) Time() time.Time {
	return d.t
}

// String returns the date in YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthEnd returns the last day of the given month.
func MonthEnd(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

// MinDate returns the earlier of a and b. A zero date is treated as unset
// and loses to any set date.
func MinDate(a, b Date) Date {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later of a and b. A zero upper bound means open-ended
// and wins over any set date.
func MaxDate(a, b Date) Date {
	if a.IsZero() || b.IsZero() {
		return Date{}
	}
	if b.After(a) {
		return b
	}
	return a
}
