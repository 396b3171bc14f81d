// Package domain holds the tracker's record and report types.
// Domain types are pure and carry no infrastructure dependency.
package domain

import (
	"strings"

	"github.com/productive-me/momentum/internal/clock"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority normalizes user input. Unknown values map to medium so that
// priority tallies always account for every task.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Rank orders priorities for sorting: high=3, medium=2, low=1.
func (p Priority) Rank() int {
	switch ParsePriority(string(p)) {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// UncategorizedLabel replaces an empty category.
const UncategorizedLabel = "Uncategorized"

// Task is a to-do item.
// Invariant (enforced by the tracker on writes): CompletedAt != nil ⇔ Completed.
type Task struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string         `json:"category" yaml:"category"`
	Priority    Priority       `json:"priority" yaml:"priority"`
	Completed   bool           `json:"completed" yaml:"completed"`
	CreatedAt   clock.Instant  `json:"createdAt" yaml:"createdAt"`
	CompletedAt *clock.Instant `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Deadline    *clock.Date    `json:"deadline,omitempty" yaml:"deadline,omitempty"`
}

// CategoryLabel returns the category, or UncategorizedLabel when blank.
func (t Task) CategoryLabel() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return UncategorizedLabel
}

// CompletionInstant returns the completion timestamp of a completed task.
// It reports false when the task is open or the timestamp is absent or malformed.
func (t Task) CompletionInstant() (clock.Instant, bool) {
	if !t.Completed || t.CompletedAt == nil || !t.CompletedAt.IsValid() {
		return clock.Instant{}, false
	}
	return *t.CompletedAt, true
}

// DeadlineDate returns the deadline if present and valid.
func (t Task) DeadlineDate() (clock.Date, bool) {
	if t.Deadline == nil || !t.Deadline.IsValid() {
		return clock.Date{}, false
	}
	return *t.Deadline, true
}

// Validate checks fields a user must supply when creating a task.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTask
	}
	return nil
}
