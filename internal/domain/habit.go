package domain

import (
	"strings"

	"github.com/productive-me/momentum/internal/clock"
)

// Habit is a recurring routine tracked by the days it was done.
type Habit struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	Description     string        `json:"description,omitempty" yaml:"description,omitempty"`
	Color           string        `json:"color,omitempty" yaml:"color,omitempty"`
	TargetFrequency int           `json:"targetFrequency" yaml:"targetFrequency"` // times per week
	Completions     []clock.Date  `json:"completions" yaml:"completions"`
	CreatedAt       clock.Instant `json:"createdAt" yaml:"createdAt"`
}

// CompletionSet returns the completion days as a set. Duplicates collapse and
// invalid dates are dropped.
func (h Habit) CompletionSet() clock.DateSet {
	return clock.NewDateSet(h.Completions...)
}

// WeeklyTarget returns TargetFrequency clamped to at least 1.
func (h Habit) WeeklyTarget() int {
	if h.TargetFrequency < 1 {
		return 1
	}
	return h.TargetFrequency
}

// Toggle flips day in the completion set: a marked day is unmarked and an
// unmarked day is marked. It reports whether the day is marked afterwards.
func (h *Habit) Toggle(day clock.Date) bool {
	set := h.CompletionSet()
	marked := !set.Has(day)
	if marked {
		set.Add(day)
	} else {
		set.Remove(day)
	}
	h.Completions = set.Sorted()
	return marked && day.IsValid()
}

// Validate checks fields a user must supply when creating a habit.
func (h Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrInvalidHabit
	}
	return nil
}
