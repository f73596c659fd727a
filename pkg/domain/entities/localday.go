package entities

import (
	"fmt"
	"time"
)

// LocalDay is a local calendar day, distinct from an instant in time. All
// day-boundary decisions (generator expiry, wear reset) compare LocalDays so
// that no timezone normalization can skew them.
type LocalDay struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalDayOf returns the calendar day of t in t's own location.
func LocalDayOf(t time.Time) LocalDay {
	y, m, d := t.Date()
	return LocalDay{Year: y, Month: m, Day: d}
}

// ParseLocalDay parses a "2006-01-02" day string.
func ParseLocalDay(s string) (LocalDay, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDay{}, fmt.Errorf("while parsing local day %q: %w", s, err)
	}
	return LocalDayOf(t), nil
}

func (d LocalDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d LocalDay) Equal(o LocalDay) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// IsZero reports whether d is the uninitialized day.
func (d LocalDay) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// End returns the last schedulable minute of the day (23:59) in loc.
// Timestamps in this system carry minute resolution, so an instant strictly
// after End is on the next day.
func (d LocalDay) End(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 0, 0, loc)
}

// MarshalJSON encodes the day as "2006-01-02".
func (d LocalDay) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" string; an empty string is the zero day.
func (d *LocalDay) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("local day must be a JSON string, got %s", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = LocalDay{}
		return nil
	}
	parsed, err := ParseLocalDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
