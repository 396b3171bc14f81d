package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Returned by stores and the tracker. The analytics engine itself never
// returns errors.

var (
	// Record errors
	ErrTaskNotFound     = errors.New("task not found")
	ErrHabitNotFound    = errors.New("habit not found")
	ErrRevisionNotFound = errors.New("revision not found")

	// Validation errors
	ErrInvalidTask  = errors.New("task title is required")
	ErrInvalidHabit = errors.New("habit name is required")

	// Configuration errors
	ErrUnknownStore = errors.New("unknown store driver")
)
