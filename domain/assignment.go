package domain

import "time"

// AssignmentStatus is the per-assignee completion state of a task.
type AssignmentStatus string

const (
	StatusOpen     AssignmentStatus = "open"
	StatusComplete AssignmentStatus = "complete"
)

// Valid reports whether s is one of the two known statuses.
func (s AssignmentStatus) Valid() bool {
	return s == StatusOpen || s == StatusComplete
}

// Assignment is one person's responsibility record for one task. Exactly one
// row may exist per (TaskID, AssigneeID) pair.
type Assignment struct {
	ID             string           `json:"id"`
	TaskID         string           `json:"task_id"`
	AssigneeID     string           `json:"assignee_id"`
	Status         AssignmentStatus `json:"status"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	CompletionNote string           `json:"completion_note,omitempty"`
	IsOwner        bool             `json:"is_owner,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (a *Assignment) IsComplete() bool {
	return a != nil && a.Status == StatusComplete
}

// Clone returns a copy with no shared pointers.
func (a Assignment) Clone() Assignment {
	out := a
	if a.CompletedAt != nil {
		at := *a.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
