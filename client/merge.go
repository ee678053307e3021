package client

import (
	"time"

	"github.com/splitlist/taskboard/domain"
)

// Merge reconciles a freshly fetched snapshot with the previously held one.
// The fetched snapshot wins on membership and on every task field; the single
// exception is completion state: a row known complete locally is never
// downgraded to open by a fetch. For such a row the completion timestamp is
// carried over from the previous record, or stamped with now when the
// previous record had none, and the completion note is carried over as-is.
//
// Tasks absent from next disappear; tasks new in next appear untouched. The
// deterministic outcome: merging the same previous and next always yields the
// same result.
func Merge(previous, next []domain.Task, now time.Time) []domain.Task {
	if len(previous) == 0 {
		out := make([]domain.Task, len(next))
		for i, task := range next {
			out[i] = task.Clone()
		}
		return out
	}

	prevByID := make(map[string]*domain.Task, len(previous))
	for i := range previous {
		prevByID[previous[i].ID] = &previous[i]
	}

	out := make([]domain.Task, len(next))
	for i, task := range next {
		merged := task.Clone()
		if prev, ok := prevByID[task.ID]; ok {
			mergeAssignments(prev, &merged, now)
		}
		out[i] = merged
	}
	return out
}

func mergeAssignments(prev, next *domain.Task, now time.Time) {
	if len(prev.Assignments) == 0 || len(next.Assignments) == 0 {
		return
	}

	// Index the previous rows by assignee. Should the previous snapshot hold
	// duplicated rows for one assignee, the complete one drives the
	// no-downgrade check; the duplication itself still surfaces through every
	// lookup and mutation path.
	prevByAssignee := make(map[string]*domain.Assignment, len(prev.Assignments))
	for i := range prev.Assignments {
		row := &prev.Assignments[i]
		if existing, ok := prevByAssignee[row.AssigneeID]; ok && existing.IsComplete() {
			continue
		}
		prevByAssignee[row.AssigneeID] = row
	}

	for i := range next.Assignments {
		row := &next.Assignments[i]
		prevRow, ok := prevByAssignee[row.AssigneeID]
		if !ok || !prevRow.IsComplete() || row.IsComplete() {
			continue
		}

		row.Status = domain.StatusComplete
		if prevRow.CompletedAt != nil {
			at := *prevRow.CompletedAt
			row.CompletedAt = &at
		} else {
			at := now
			row.CompletedAt = &at
		}
		row.CompletionNote = prevRow.CompletionNote
	}
}
