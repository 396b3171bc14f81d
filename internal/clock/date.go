package clock

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day and no zone.
// The zero value is the "invalid" marker returned when a timestamp cannot be
// bucketed. Dates are comparable and can be used as map keys.
type Date struct {
	t time.Time // midnight UTC of the day; zero when invalid
}

// NewDate returns the calendar date y-m-d. Out-of-range values normalize the
// same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if t.IsZero() {
		return Date{}
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDate(y, m, d)
}

// ParseDate parses "2006-01-02". A full timestamp is accepted too and
// contributes the date as written in its own offset. Anything else yields the
// invalid Date.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewDate(t.Date())
	}
	if i := ParseInstant(s); i.IsValid() {
		return NewDate(i.t.Date())
	}
	return Date{}
}

// IsValid reports whether d is a real calendar day.
func (d Date) IsValid() bool {
	return !d.t.IsZero()
}

// AddDays returns d shifted by n calendar days. Invalid stays invalid.
func (d Date) AddDays(n int) Date {
	if !d.IsValid() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Between reports whether d lies in [from, to], both ends inclusive.
// An invalid d is never between anything.
func (d Date) Between(from, to Date) bool {
	return d.IsValid() && !d.Before(from) && !d.After(to)
}

// Year, Month and Day return the calendar fields.
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time { return d.t }

// String formats d as 2006-01-02, or "invalid".
func (d Date) String() string {
	if !d.IsValid() {
		return "invalid"
	}
	return d.t.Format(DateLayout)
}

// MarshalText encodes d as 2006-01-02; the invalid date encodes as "".
func (d Date) MarshalText() ([]byte, error) {
	if !d.IsValid() {
		return []byte{}, nil
	}
	return []byte(d.t.Format(DateLayout)), nil
}

// UnmarshalText never fails: unparsable input becomes the invalid Date.
func (d *Date) UnmarshalText(b []byte) error {
	*d = ParseDate(string(b))
	return nil
}

// UnmarshalJSON accepts any JSON value; anything but a parsable date string
// becomes the invalid Date. null leaves d unchanged.
func (d *Date) UnmarshalJSON(b []byte) error {
	s, isString, isNull := jsonText(b)
	switch {
	case isNull:
	case isString:
		*d = ParseDate(s)
	default:
		*d = Date{}
	}
	return nil
}

// ─── Date sets ──────────────────────────────────────────────────────────────

// DateSet is a set of calendar days. Duplicates collapse.
type DateSet map[Date]struct{}

// NewDateSet builds a set from dates, dropping invalid ones.
func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts d. Invalid dates are ignored.
func (s DateSet) Add(d Date) {
	if d.IsValid() {
		s[d] = struct{}{}
	}
}

// Remove deletes d.
func (s DateSet) Remove(d Date) {
	delete(s, d)
}

// Has reports membership.
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
