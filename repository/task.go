package repository

import (
	"context"

	"github.com/splitlist/taskboard/domain"
)

// TaskFilter narrows List. AssigneeID scopes the listing to tasks carrying an
// assignment for that profile; empty means an unscoped (administrative) read.
type TaskFilter struct {
	AssigneeID string
	CategoryID string
	Limit      int
	Offset     int
}

// TaskRepository persists tasks together with their assignment rows; reads
// return tasks with assignments embedded.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
