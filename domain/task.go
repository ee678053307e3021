package domain

import "time"

// Task is a unit of work on the shared board. Completion state lives on the
// per-assignee Assignment rows, never on the task itself; a task with zero
// assignments is simply unassigned.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Note        string       `json:"note,omitempty"`
	Due         *Due         `json:"due,omitempty"`
	CategoryID  string       `json:"category_id,omitempty"`
	CreatorID   string       `json:"creator_id"`
	Assignments []Assignment `json:"assignments"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AssignmentFor returns the single assignment row held by assigneeID.
// Finding more than one row for the pair is a data-integrity fault and is
// reported as ErrDuplicateAssignment instead of picking a winner.
func (t *Task) AssignmentFor(assigneeID string) (*Assignment, error) {
	if t == nil {
		return nil, ErrTaskNotFound
	}
	var found *Assignment
	for i := range t.Assignments {
		if t.Assignments[i].AssigneeID != assigneeID {
			continue
		}
		if found != nil {
			return nil, ErrDuplicateAssignment
		}
		found = &t.Assignments[i]
	}
	if found == nil {
		return nil, ErrAssignmentNotFound
	}
	return found, nil
}

// AssigneeIDs lists the task's assignees in row order.
func (t *Task) AssigneeIDs() []string {
	if t == nil || len(t.Assignments) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.AssigneeID)
	}
	return ids
}

// HasAssignee reports whether assigneeID holds at least one assignment row.
func (t *Task) HasAssignee(assigneeID string) bool {
	if t == nil {
		return false
	}
	for _, a := range t.Assignments {
		if a.AssigneeID == assigneeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand across store boundaries.
func (t Task) Clone() Task {
	out := t
	if t.Due != nil {
		due := *t.Due
		out.Due = &due
	}
	if t.Assignments != nil {
		out.Assignments = make([]Assignment, len(t.Assignments))
		for i, a := range t.Assignments {
			out.Assignments[i] = a.Clone()
		}
	}
	return out
}
