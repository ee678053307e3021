package client

import (
	"sync"

	"github.com/splitlist/taskboard/domain"
)

// Store holds the client's view of the board. It is replaced wholesale by
// merged fetch results; the only in-place mutation is the optimistic patch of
// a single assignment row after a confirmed remote write. All reads hand out
// deep copies, so callers can never alias store state.
type Store struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]domain.Task
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]domain.Task)}
}

// Replace swaps the whole snapshot, keeping the given task order.
func (s *Store) Replace(tasks []domain.Task) {
	order := make([]string, 0, len(tasks))
	byID := make(map[string]domain.Task, len(tasks))
	for _, task := range tasks {
		if _, dup := byID[task.ID]; dup {
			continue
		}
		order = append(order, task.ID)
		byID[task.ID] = task.Clone()
	}

	s.mu.Lock()
	s.order = order
	s.tasks = byID
	s.mu.Unlock()
}

// Get returns a copy of the task, if present.
func (s *Store) Get(taskID string) (*domain.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	clone := task.Clone()
	return &clone, true
}

// All returns the full snapshot in stored order.
func (s *Store) All() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out
}

// AssignmentsFor returns the assignment rows of one task.
func (s *Store) AssignmentsFor(taskID string) ([]domain.Assignment, error) {
	task, ok := s.Get(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.Assignments, nil
}

// AssignmentFor returns the single row held by assigneeID on the task.
// Duplicated rows for the pair surface as ErrDuplicateAssignment.
func (s *Store) AssignmentFor(taskID, assigneeID string) (*domain.Assignment, error) {
	task, ok := s.Get(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task.AssignmentFor(assigneeID)
}

// ApplyAssignment patches one row in place after a confirmed remote write.
// The row must already exist; the next full merge re-confirms the state.
func (s *Store) ApplyAssignment(updated domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[updated.TaskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	matched := -1
	for i := range task.Assignments {
		if task.Assignments[i].AssigneeID != updated.AssigneeID {
			continue
		}
		if matched >= 0 {
			return domain.ErrDuplicateAssignment
		}
		matched = i
	}
	if matched < 0 {
		return domain.ErrAssignmentNotFound
	}

	task.Assignments[matched] = updated.Clone()
	s.tasks[updated.TaskID] = task
	return nil
}

// Len reports the number of stored tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
