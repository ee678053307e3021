package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitlist/taskboard/domain"
)

func taskWithRows(id, title string, rows ...domain.Assignment) domain.Task {
	for i := range rows {
		rows[i].TaskID = id
	}
	return domain.Task{ID: id, Title: title, Assignments: rows}
}

func openRow(id, assigneeID string) domain.Assignment {
	return domain.Assignment{ID: id, AssigneeID: assigneeID, Status: domain.StatusOpen}
}

func completeRow(id, assigneeID string, at time.Time, note string) domain.Assignment {
	return domain.Assignment{
		ID:             id,
		AssigneeID:     assigneeID,
		Status:         domain.StatusComplete,
		CompletedAt:    &at,
		CompletionNote: note,
	}
}

func TestMerge_EmptyPrevious_AdoptsNext(t *testing.T) {
	now := time.Now()
	next := []domain.Task{taskWithRows("t1", "Fresh", openRow("a1", "alice"))}

	merged := Merge(nil, next, now)

	require.Len(t, merged, 1)
	assert.Equal(t, "Fresh", merged[0].Title)
	assert.Equal(t, domain.StatusOpen, merged[0].Assignments[0].Status)
}

func TestMerge_CompleteNeverDowngradesToOpen(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	completedAt := now.Add(-2 * time.Hour)

	prev := []domain.Task{taskWithRows("t1", "Ship report",
		completeRow("a1", "alice", completedAt, "done before lunch"),
	)}
	next := []domain.Task{taskWithRows("t1", "Ship report",
		openRow("a1", "alice"),
	)}

	merged := Merge(prev, next, now)

	require.Len(t, merged, 1)
	row := merged[0].Assignments[0]
	assert.Equal(t, domain.StatusComplete, row.Status)
	require.NotNil(t, row.CompletedAt)
	assert.True(t, row.CompletedAt.Equal(completedAt))
	assert.Equal(t, "done before lunch", row.CompletionNote)
}

func TestMerge_SynthesizesCompletedAtWhenPreviousLacksOne(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	prevRow := domain.Assignment{ID: "a1", AssigneeID: "alice", Status: domain.StatusComplete}
	prev := []domain.Task{taskWithRows("t1", "Ship report", prevRow)}
	next := []domain.Task{taskWithRows("t1", "Ship report", openRow("a1", "alice"))}

	merged := Merge(prev, next, now)

	row := merged[0].Assignments[0]
	assert.Equal(t, domain.StatusComplete, row.Status)
	require.NotNil(t, row.CompletedAt)
	assert.True(t, row.CompletedAt.Equal(now))
	assert.Empty(t, row.CompletionNote)
}

func TestMerge_RemoteCompletionIsAdoptedVerbatim(t *testing.T) {
	now := time.Now()
	remoteDone := now.Add(-30 * time.Minute)

	prev := []domain.Task{taskWithRows("t1", "Shared chore", openRow("a1", "alice"))}
	next := []domain.Task{taskWithRows("t1", "Shared chore",
		completeRow("a1", "alice", remoteDone, "finished on another device"),
	)}

	merged := Merge(prev, next, now)

	row := merged[0].Assignments[0]
	assert.Equal(t, domain.StatusComplete, row.Status)
	assert.True(t, row.CompletedAt.Equal(remoteDone))
	assert.Equal(t, "finished on another device", row.CompletionNote)
}

func TestMerge_NextControlsMembershipAndFields(t *testing.T) {
	now := time.Now()

	prev := []domain.Task{
		taskWithRows("gone", "Deleted remotely", completeRow("a1", "alice", now, "")),
		taskWithRows("kept", "Old title", openRow("a2", "alice"), completeRow("a3", "bob", now, "")),
	}
	next := []domain.Task{
		taskWithRows("kept", "New title", openRow("a2", "alice")),
		taskWithRows("born", "Added remotely", openRow("a4", "carol")),
	}

	merged := Merge(prev, next, now)

	require.Len(t, merged, 2)
	assert.Equal(t, "kept", merged[0].ID)
	assert.Equal(t, "New title", merged[0].Title)
	// Bob's row vanished remotely; his old completion does not resurrect it.
	require.Len(t, merged[0].Assignments, 1)
	assert.Equal(t, "alice", merged[0].Assignments[0].AssigneeID)

	assert.Equal(t, "born", merged[1].ID)
}

func TestMerge_RowsWithoutPreviousCounterpartStayVerbatim(t *testing.T) {
	now := time.Now()

	prev := []domain.Task{taskWithRows("t1", "Crew task", completeRow("a1", "alice", now, ""))}
	next := []domain.Task{taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
		openRow("a2", "bob"),
	)}

	merged := Merge(prev, next, now)

	rows := merged[0].Assignments
	require.Len(t, rows, 2)
	assert.Equal(t, domain.StatusComplete, rows[0].Status)
	assert.Equal(t, domain.StatusOpen, rows[1].Status)
	assert.Nil(t, rows[1].CompletedAt)
}

func TestMerge_IsDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	prev := []domain.Task{
		taskWithRows("t1", "One", completeRow("a1", "alice", now.Add(-time.Hour), "n")),
		taskWithRows("t2", "Two", openRow("a2", "bob")),
	}
	next := []domain.Task{
		taskWithRows("t1", "One", openRow("a1", "alice")),
		taskWithRows("t2", "Two", openRow("a2", "bob")),
	}

	first := Merge(prev, next, now)
	second := Merge(prev, next, now)

	assert.Equal(t, first, second)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	now := time.Now()
	next := []domain.Task{taskWithRows("t1", "Guarded", openRow("a1", "alice"))}

	merged := Merge(nil, next, now)
	merged[0].Assignments[0].Status = domain.StatusComplete

	assert.Equal(t, domain.StatusOpen, next[0].Assignments[0].Status)
}
