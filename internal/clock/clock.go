// Package clock provides the injectable time source and calendar-date
// bucketing used by every analytics component.
//
// Core logic must not call time.Now() directly. Services receive a Clock
// (usually wrapped in a Calendar) so tests can pin "now" to a fixed instant:
//
//	cal := clock.NewCalendar(clock.NewFixed(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)), time.UTC)
//	today := cal.Today() // 2025-01-15
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual system time.
// Use only at application entry points.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time.
func (c FixedClock) Now() time.Time {
	return c.T
}

// FuncClock wraps a function as a Clock.
type FuncClock func() time.Time

// Now calls the wrapped function.
func (f FuncClock) Now() time.Time {
	return f()
}

// NewReal returns a Clock backed by the system time.
func NewReal() Clock {
	return RealClock{}
}

// NewFixed returns a Clock that always returns t.
func NewFixed(t time.Time) Clock {
	return FixedClock{T: t}
}

// NewFunc returns a Clock backed by f.
func NewFunc(f func() time.Time) Clock {
	return FuncClock(f)
}

var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
	_ Clock = FuncClock(nil)
)
