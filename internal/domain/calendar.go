package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day or timezone component.
// The zero value is not a valid date; use IsZero to detect it.
// Date is comparable and can be used as a map key.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate returns the calendar date for the given year, month and day.
// Out-of-range values are normalized the same way time.Date normalizes them.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD)
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseTimestampDate accepts "YYYY-MM-DD" or a full RFC 3339 timestamp. A timestamp
// is converted to loc before its date is taken, so "2024-06-02T22:00:00Z" is
// 2024-06-03 in Africa/Tripoli. A nil loc keeps the offset written in the string.
func ParseTimestampDate(s string, loc *time.Location) (Date, error) {
	if len(s) <= len(DateLayout) {
		return ParseDate(s)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	if loc != nil {
		t = t.In(loc)
	}
	return DateOf(t), nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and constants.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Year returns the year of d
func (d Date) Year() int { return d.year }

// Month returns the month of d
func (d Date) Month() time.Month { return d.month }

// Day returns the day of month of d
func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n days (n may be negative)
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return cmpInt(d.year, other.year)
	case d.month != other.month:
		return cmpInt(int(d.month), int(other.month))
	default:
		return cmpInt(d.day, other.day)
	}
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly after other
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// DaysUntil returns the number of whole days from d to other (negative if other is earlier)
func (d Date) DaysUntil(other Date) int {
	// UTC midnights are exactly 86400 seconds apart
	return int((other.Time().Unix() - d.Time().Unix()) / 86400)
}

// FirstOfMonth returns the first day of d's month
func (d Date) FirstOfMonth() Date {
	return Date{year: d.year, month: d.month, day: 1}
}

// String formats d as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes d as a JSON string, or null for the zero Date
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", a full RFC 3339 timestamp (date part as written) or null.
// Feeds that serialize local midnights as UTC instants need ParseTimestampDate with their zone.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("calendar date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseTimestampDate(s, nil)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is a stay from CheckIn (first night) to CheckOut (departure day).
// The nights covered are the half-open interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

// NewDateRange builds a DateRange without validating it
func NewDateRange(checkIn, checkOut Date) DateRange {
	return DateRange{CheckIn: checkIn, CheckOut: checkOut}
}

// Nights returns the number of nights in the range; zero or negative for illegal ranges
func (r DateRange) Nights() int {
	return r.CheckIn.DaysUntil(r.CheckOut)
}

// Contains reports whether d is one of the booked nights
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Each calls fn for every night in [CheckIn, CheckOut) in ascending order
func (r DateRange) Each(fn func(Date)) {
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDays(1) {
		fn(d)
	}
}

// String formats the range as "check_in..check_out"
func (r DateRange) String() string {
	return r.CheckIn.String() + ".." + r.CheckOut.String()
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
