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

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, note, due_at, due_date_only, category_id, creator_id, created_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachAssignments(ctx, []*domain.Task{task}); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR EXISTS (
		SELECT 1 FROM assignments a
		WHERE a.task_id = tasks.id AND a.assignee_id = $1
	))
	  AND ($2 = '' OR category_id = $2)
	ORDER BY created_at DESC, id
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.AssigneeID, filter.CategoryID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	var refs []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tasks {
		refs = append(refs, &tasks[i])
	}
	if err := r.attachAssignments(ctx, refs); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertTask = `
	INSERT INTO tasks (id, title, note, due_at, due_date_only, category_id, creator_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at
	`

	dueAt, dateOnly := dueArgs(task.Due)
	if err := tx.QueryRow(ctx, insertTask,
		task.ID,
		task.Title,
		task.Note,
		dueAt,
		dateOnly,
		nullString(task.CategoryID),
		task.CreatorID,
	).Scan(&task.CreatedAt); err != nil {
		return nil, err
	}

	const insertAssignment = `
	INSERT INTO assignments (id, task_id, assignee_id, status, is_owner)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`

	for i := range task.Assignments {
		a := &task.Assignments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.TaskID = task.ID
		if a.Status == "" {
			a.Status = domain.StatusOpen
		}
		if err := tx.QueryRow(ctx, insertAssignment,
			a.ID,
			a.TaskID,
			a.AssigneeID,
			a.Status,
			a.IsOwner,
		).Scan(&a.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		note = $3,
		due_at = $4,
		due_date_only = $5,
		category_id = $6
	WHERE id = $1
	`

	dueAt, dateOnly := dueArgs(task.Due)
	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Note,
		dueAt,
		dateOnly,
		nullString(task.CategoryID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete removes the task and its assignment rows in one transaction,
// assignments first so no orphan rows survive a partial failure.
func (r *taskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM assignments WHERE task_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return tx.Commit(ctx)
}

func (r *taskRepository) attachAssignments(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, 0, len(tasks))
	byID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	const query = `
	SELECT ` + assignmentColumns + `
	FROM assignments
	WHERE task_id = ANY($1)
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return err
		}
		if task, ok := byID[assignment.TaskID]; ok {
			task.Assignments = append(task.Assignments, *assignment)
		}
	}
	return rows.Err()
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		dueAt      *time.Time
		dateOnly   bool
		categoryID *string
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Note,
		&dueAt,
		&dateOnly,
		&categoryID,
		&task.CreatorID,
		&task.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Due = scanDue(dueAt, dateOnly)
	if categoryID != nil {
		task.CategoryID = *categoryID
	}

	return &task, nil
}
