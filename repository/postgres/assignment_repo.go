package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/repository"
)

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository returns a Postgres-backed implementation of AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) repository.AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, task_id, assignee_id, status, completed_at, completion_note, is_owner, created_at`

func (r *assignmentRepository) ListForTask(ctx context.Context, taskID string) ([]domain.Assignment, error) {
	const query = `
	SELECT ` + assignmentColumns + `
	FROM assignments
	WHERE task_id = $1
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) Get(ctx context.Context, taskID, assigneeID string) (*domain.Assignment, error) {
	const query = `
	SELECT ` + assignmentColumns + `
	FROM assignments
	WHERE task_id = $1 AND assignee_id = $2
	`
	row := r.pool.QueryRow(ctx, query, taskID, assigneeID)
	return scanAssignment(row)
}

// SetStatus flips a row between open and complete. Completing stamps
// completed_at and stores the note; reopening clears both.
func (r *assignmentRepository) SetStatus(ctx context.Context, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE assignments
	SET status = $3,
		completed_at = CASE WHEN $3 = 'complete' THEN NOW() ELSE NULL END,
		completion_note = CASE WHEN $3 = 'complete' THEN $4 ELSE '' END
	WHERE task_id = $1 AND assignee_id = $2
	RETURNING ` + assignmentColumns + `
	`
	row := r.pool.QueryRow(ctx, query, taskID, assigneeID, string(status), note)
	return scanAssignment(row)
}

// SyncSet locks the task row, diffs desired against the stored assignee set
// and applies the inserts and deletes in the same transaction. Rows that stay
// keep their status, completion fields and owner flag untouched.
func (r *assignmentRepository) SyncSet(ctx context.Context, taskID string, desired []string) (added, removed []string, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var lockedID string
	if err := tx.QueryRow(ctx, `SELECT id FROM tasks WHERE id = $1 FOR UPDATE`, taskID).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrTaskNotFound
		}
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, `SELECT assignee_id FROM assignments WHERE task_id = $1 ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, nil, err
	}
	current := make([]string, 0, 4)
	for rows.Next() {
		var assigneeID string
		if err := rows.Scan(&assigneeID); err != nil {
			rows.Close()
			return nil, nil, err
		}
		current = append(current, assigneeID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, id := range current {
		if _, dup := currentSet[id]; dup {
			return nil, nil, domain.ErrDuplicateAssignment
		}
		currentSet[id] = struct{}{}
	}

	desiredSet := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, seen := desiredSet[id]; seen {
			continue
		}
		desiredSet[id] = struct{}{}
		if _, exists := currentSet[id]; !exists {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if _, keep := desiredSet[id]; !keep {
			removed = append(removed, id)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return nil, nil, tx.Commit(ctx)
	}

	if len(removed) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE task_id = $1 AND assignee_id = ANY($2)`, taskID, removed); err != nil {
			return nil, nil, err
		}
	}

	const insert = `
	INSERT INTO assignments (id, task_id, assignee_id, status)
	VALUES ($1, $2, $3, 'open')
	`
	for _, assigneeID := range added {
		if _, err := tx.Exec(ctx, insert, uuid.NewString(), taskID, assigneeID); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return added, removed, nil
}

func scanAssignment(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Assignment, error) {
	var assignment domain.Assignment
	var completedAt *time.Time

	if err := row.Scan(
		&assignment.ID,
		&assignment.TaskID,
		&assignment.AssigneeID,
		&assignment.Status,
		&completedAt,
		&assignment.CompletionNote,
		&assignment.IsOwner,
		&assignment.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}

	assignment.CompletedAt = completedAt
	return &assignment, nil
}
