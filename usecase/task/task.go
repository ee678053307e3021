package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/splitlist/taskboard/domain"
	appLogger "github.com/splitlist/taskboard/pkg/logger"
	"github.com/splitlist/taskboard/repository"
)

// CreatePolicy toggles which task fields are mandatory at creation time.
// Both default to off: tasks may start without assignees and without a due.
type CreatePolicy struct {
	RequireAssignee bool
	RequireDue      bool
}

type UseCase struct {
	tasks       repository.TaskRepository
	assignments repository.AssignmentRepository
	profiles    repository.ProfileRepository
	categories  repository.CategoryRepository
	policy      CreatePolicy
	logger      *zap.Logger
}

func New(tasks repository.TaskRepository, assignments repository.AssignmentRepository, profiles repository.ProfileRepository, categories repository.CategoryRepository, policy CreatePolicy, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:       tasks,
		assignments: assignments,
		profiles:    profiles,
		categories:  categories,
		policy:      policy,
		logger:      logger,
	}
}

// CreateInput carries the fields of a new task.
type CreateInput struct {
	Title       string
	Note        string
	Due         *domain.Due
	CategoryID  string
	AssigneeIDs []string
}

// PatchInput carries partial task updates. Nil means leave unchanged; for Due
// and CategoryID an empty string clears the field.
type PatchInput struct {
	Title      *string
	Note       *string
	Due        *string
	CategoryID *string
}

// ListTasks returns tasks visible to the viewer: admins see everything,
// everyone else only tasks they hold an assignment on.
func (uc *UseCase) ListTasks(ctx context.Context, viewer *domain.Profile, filter repository.TaskFilter) ([]domain.Task, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	if !viewer.IsAdmin() {
		filter.AssigneeID = viewer.ID
	}
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, creator *domain.Profile, in CreateInput) (*domain.Task, error) {
	if creator == nil {
		return nil, domain.ErrUnauthorized
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if uc.policy.RequireDue && in.Due == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "a due date is required")
	}

	assigneeIDs := dedupe(in.AssigneeIDs)
	if uc.policy.RequireAssignee && len(assigneeIDs) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "at least one assignee is required")
	}
	for _, id := range assigneeIDs {
		if _, err := uc.profiles.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	task := &domain.Task{
		Title:      title,
		Note:       in.Note,
		Due:        in.Due,
		CategoryID: in.CategoryID,
		CreatorID:  creator.ID,
	}
	if in.CategoryID != "" {
		if _, err := uc.categories.GetByID(ctx, in.CategoryID); err != nil {
			return nil, err
		}
	}
	for _, assigneeID := range assigneeIDs {
		task.Assignments = append(task.Assignments, domain.Assignment{
			AssigneeID: assigneeID,
			Status:     domain.StatusOpen,
			IsOwner:    assigneeID == creator.ID,
		})
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Info("task created",
		zap.String("task_id", created.ID),
		zap.Int("assignees", len(created.Assignments)),
	)
	return created, nil
}

// PatchTask applies the partial update and returns the stored task afterwards.
func (uc *UseCase) PatchTask(ctx context.Context, taskID string, patch PatchInput) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "title cannot be empty")
		}
		task.Title = title
	}
	if patch.Note != nil {
		task.Note = *patch.Note
	}
	if patch.Due != nil {
		due, err := domain.ParseDue(*patch.Due)
		if err != nil {
			return nil, err
		}
		task.Due = due
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID != "" {
			if _, err := uc.categories.GetByID(ctx, *patch.CategoryID); err != nil {
				return nil, err
			}
		}
		task.CategoryID = *patch.CategoryID
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return uc.tasks.GetByID(ctx, taskID)
}

// DeleteTask removes the task with its assignment rows.
func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	appLogger.WithRequestID(ctx, uc.logger).Info("task deleted", zap.String("task_id", id))
	return nil
}

// SetStatus flips the completion state of one assignment row. Callers may
// only toggle their own row unless they are admins.
func (uc *UseCase) SetStatus(ctx context.Context, caller *domain.Profile, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "status must be open or complete")
	}
	if caller.ID != assigneeID && !caller.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}

	updated, err := uc.assignments.SetStatus(ctx, taskID, assigneeID, status, note)
	if err != nil {
		return nil, err
	}
	appLogger.WithRequestID(ctx, uc.logger).Info("assignment status set",
		zap.String("task_id", taskID),
		zap.String("assignee_id", assigneeID),
		zap.String("status", string(status)),
	)
	return updated, nil
}

// SyncAssignees replaces the assignee set of a task. Every desired id must
// resolve to a known profile.
func (uc *UseCase) SyncAssignees(ctx context.Context, caller *domain.Profile, taskID string, desired []string) (added, removed []string, err error) {
	if caller == nil {
		return nil, nil, domain.ErrUnauthorized
	}

	desired = dedupe(desired)
	for _, id := range desired {
		if _, err := uc.profiles.GetByID(ctx, id); err != nil {
			return nil, nil, err
		}
	}

	added, removed, err = uc.assignments.SyncSet(ctx, taskID, desired)
	if err != nil {
		return nil, nil, err
	}
	if len(added) > 0 || len(removed) > 0 {
		appLogger.WithRequestID(ctx, uc.logger).Info("assignees synced",
			zap.String("task_id", taskID),
			zap.Strings("added", added),
			zap.Strings("removed", removed),
		)
	}
	return added, removed, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
