package repository

import (
	"context"

	"github.com/splitlist/taskboard/domain"
)

// AssignmentRepository manages the per-assignee rows attached to a task.
//
// SyncSet replaces the assignee set of a task atomically relative to the
// stored set: it locks the task row, diffs the desired ids against the rows
// it finds, and applies inserts and deletes in one transaction. It reports
// the ids actually added and removed.
type AssignmentRepository interface {
	ListForTask(ctx context.Context, taskID string) ([]domain.Assignment, error)
	Get(ctx context.Context, taskID, assigneeID string) (*domain.Assignment, error)
	SetStatus(ctx context.Context, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error)
	SyncSet(ctx context.Context, taskID string, desired []string) (added, removed []string, err error)
}
