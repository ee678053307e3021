package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/splitlist/taskboard/domain"
)

// fakeSource is an in-memory Source and Directory. It keeps its own task set
// and applies assignee syncs as a server would, diffing the pushed set
// against its current rows. Counters and failure hooks let tests pin down
// exactly which remote writes a client operation issued.
type fakeSource struct {
	mu    sync.Mutex
	seq   int
	order []string
	tasks map[string]*domain.Task

	profiles   []domain.Profile
	categories []domain.Category

	fetchCalls  int
	createCalls int
	patchCalls  int
	deleteCalls int
	statusCalls int
	syncCalls   int

	failFetch    error
	failCreate   error
	failStatus   error
	failSync     error
	failProfiles error

	// When set, SyncAssignments signals syncStarted and then parks until
	// syncRelease is closed, so a test can overlap a second call with it.
	syncStarted chan struct{}
	syncRelease chan struct{}

	requireAssignee bool
}

func newFakeSource(tasks ...domain.Task) *fakeSource {
	s := &fakeSource{tasks: make(map[string]*domain.Task)}
	for _, task := range tasks {
		clone := task.Clone()
		s.order = append(s.order, clone.ID)
		s.tasks[clone.ID] = &clone
	}
	return s
}

func (s *fakeSource) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeSource) FetchTasks(_ context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.failFetch != nil {
		return nil, s.failFetch
	}
	out := make([]domain.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out, nil
}

func (s *fakeSource) CreateTask(_ context.Context, draft TaskDraft) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if s.requireAssignee && len(draft.AssigneeIDs) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "at least one assignee is required")
	}

	task := domain.Task{
		ID:         s.nextID("task"),
		Title:      strings.TrimSpace(draft.Title),
		Note:       draft.Note,
		Due:        draft.Due,
		CategoryID: draft.CategoryID,
		CreatedAt:  time.Now(),
	}
	for _, assigneeID := range draft.AssigneeIDs {
		task.Assignments = append(task.Assignments, domain.Assignment{
			ID:         s.nextID("asg"),
			TaskID:     task.ID,
			AssigneeID: assigneeID,
			Status:     domain.StatusOpen,
			CreatedAt:  time.Now(),
		})
	}
	s.order = append(s.order, task.ID)
	s.tasks[task.ID] = &task
	clone := task.Clone()
	return &clone, nil
}

func (s *fakeSource) PatchTask(_ context.Context, patch TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchCalls++
	task, ok := s.tasks[patch.TaskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Note != nil {
		task.Note = *patch.Note
	}
	if patch.Due != nil {
		if *patch.Due == "" {
			task.Due = nil
		} else {
			due, err := domain.ParseDue(*patch.Due)
			if err != nil {
				return nil, err
			}
			task.Due = due
		}
	}
	if patch.CategoryID != nil {
		task.CategoryID = *patch.CategoryID
	}
	clone := task.Clone()
	return &clone, nil
}

func (s *fakeSource) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if _, ok := s.tasks[taskID]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	for i, id := range s.order {
		if id == taskID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeSource) SetAssignmentStatus(_ context.Context, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	if s.failStatus != nil {
		return nil, s.failStatus
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	row, err := task.AssignmentFor(assigneeID)
	if err != nil {
		return nil, err
	}
	row.Status = status
	if status == domain.StatusComplete {
		now := time.Now()
		row.CompletedAt = &now
		row.CompletionNote = note
	} else {
		row.CompletedAt = nil
		row.CompletionNote = ""
	}
	clone := row.Clone()
	return &clone, nil
}

func (s *fakeSource) SyncAssignments(_ context.Context, taskID string, assigneeIDs []string) error {
	s.mu.Lock()
	started := s.syncStarted
	release := s.syncRelease
	s.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCalls++
	if s.failSync != nil {
		return s.failSync
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	desired := make(map[string]struct{}, len(assigneeIDs))
	for _, id := range assigneeIDs {
		desired[id] = struct{}{}
	}

	kept := task.Assignments[:0]
	for _, row := range task.Assignments {
		if _, keep := desired[row.AssigneeID]; keep {
			kept = append(kept, row)
			delete(desired, row.AssigneeID)
		}
	}
	task.Assignments = kept
	for _, id := range assigneeIDs {
		if _, missing := desired[id]; !missing {
			continue
		}
		task.Assignments = append(task.Assignments, domain.Assignment{
			ID:         s.nextID("asg"),
			TaskID:     taskID,
			AssigneeID: id,
			Status:     domain.StatusOpen,
			CreatedAt:  time.Now(),
		})
	}
	return nil
}

func (s *fakeSource) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProfiles != nil {
		return nil, s.failProfiles
	}
	return append([]domain.Profile(nil), s.profiles...), nil
}

func (s *fakeSource) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Category(nil), s.categories...), nil
}

// forceRowStatus rewrites a row server-side without going through the write
// path, simulating state another client or a lagging replica produced.
func (s *fakeSource) forceRowStatus(taskID, assigneeID string, status domain.AssignmentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return
	}
	for i := range task.Assignments {
		if task.Assignments[i].AssigneeID != assigneeID {
			continue
		}
		task.Assignments[i].Status = status
		if status != domain.StatusComplete {
			task.Assignments[i].CompletedAt = nil
			task.Assignments[i].CompletionNote = ""
		}
	}
}

// assigneesOf reports the server-side assignee set of a task, in row order.
func (s *fakeSource) assigneesOf(taskID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	return task.AssigneeIDs()
}

func (s *fakeSource) calls() (fetch, sync, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls, s.syncCalls, s.statusCalls
}
