// Package client implements the board-side view of the task system: a local
// task store fed by full fetches from a remote record source, completion
// merging that never downgrades a locally known complete row, assignee
// reconciliation with per-task in-flight rejection, and the self and
// per-person projections rendered from the store.
package client

import (
	"context"

	"github.com/splitlist/taskboard/domain"
)

// Source is the remote record surface the client consumes. Implementations
// classify their failures with domain error codes; anything transport-level
// (timeouts, connection refusals) surfaces as TRANSIENT and is never retried
// automatically by the client.
type Source interface {
	// FetchTasks returns the full task list visible to the authenticated
	// identity, assignments embedded.
	FetchTasks(ctx context.Context) ([]domain.Task, error)

	CreateTask(ctx context.Context, draft TaskDraft) (*domain.Task, error)
	PatchTask(ctx context.Context, patch TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) error

	// SetAssignmentStatus flips one assignment row and returns it as stored.
	SetAssignmentStatus(ctx context.Context, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error)

	// SyncAssignments replaces the assignee set of a task in one call; the
	// remote applies the change atomically against its own current set.
	SyncAssignments(ctx context.Context, taskID string, assigneeIDs []string) error
}

// Directory lists the people and categories the board renders against.
type Directory interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// TaskDraft carries a new task towards the source. Due may be nil.
type TaskDraft struct {
	Title       string
	Note        string
	Due         *domain.Due
	CategoryID  string
	AssigneeIDs []string
}

// TaskPatch carries partial updates. Nil fields stay unchanged; an empty
// string in Due or CategoryID clears the field.
type TaskPatch struct {
	TaskID     string
	Title      *string
	Note       *string
	Due        *string
	CategoryID *string
}
