package domain

import (
	"fmt"

	"github.com/productive-me/momentum/internal/clock"
)

// Revision is a spaced-repetition review of a completed task.
type Revision struct {
	ID             string         `json:"id" yaml:"id"`
	OriginalTaskID string         `json:"originalTaskId" yaml:"originalTaskId"`
	OriginalTitle  string         `json:"originalTitle" yaml:"originalTitle"`
	RevisionNumber int            `json:"revisionNumber" yaml:"revisionNumber"`
	ScheduledDate  clock.Date     `json:"scheduledDate" yaml:"scheduledDate"`
	Completed      bool           `json:"completed" yaml:"completed"`
	CompletedAt    *clock.Instant `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
}

// RevisionID derives the deterministic id of the n-th revision of a task.
// Rescheduling the same task yields the same ids, which lets stores detect
// a batch that already exists.
func RevisionID(taskID string, n int) string {
	return fmt.Sprintf("%s-revision-%d", taskID, n)
}
