package clock

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWorkingHour is the hour reported when there is no completion data.
const DefaultWorkingHour = 9

// Calendar applies one timezone policy to every "today", bucket and
// hour-of-day computation.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar pairs a clock with a location. A nil clock means the system
// clock; a nil location means UTC.
func NewCalendar(c Clock, loc *time.Location) Calendar {
	if c == nil {
		c = NewReal()
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{clock: c, loc: loc}
}

// LoadLocation resolves a configured timezone name. Empty means UTC and
// "Local" means the host zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Now returns the current instant in the calendar's location.
func (c Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Location returns the timezone used for bucketing.
func (c Calendar) Location() *time.Location {
	return c.loc
}

// Today returns the current calendar date.
func (c Calendar) Today() Date {
	return DateOf(c.clock.Now(), c.loc)
}

// DaysAgo returns today minus n days.
func (c Calendar) DaysAgo(n int) Date {
	return c.Today().AddDays(-n)
}

// Bucket drops the time of day from i. Absent or malformed instants return
// the invalid Date.
func (c Calendar) Bucket(i Instant) Date {
	t, ok := i.Time()
	if !ok {
		return Date{}
	}
	return DateOf(t, c.loc)
}

// Hour returns the hour of day (0-23) of i in the calendar's location.
func (c Calendar) Hour(i Instant) (int, bool) {
	t, ok := i.Time()
	if !ok {
		return 0, false
	}
	return t.In(c.loc).Hour(), true
}
