package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/pkg/keylock"
)

// ErrSyncInFlight rejects a write against a task that already has one in
// flight. The caller retries after the first write settles; nothing queues.
var ErrSyncInFlight = domain.NewError(domain.ErrCodeConflict, "a sync for this task is already in flight")

// SyncResult reports what a reconciliation changed.
type SyncResult struct {
	// Added and Removed are the diff computed against the locally known
	// baseline at the moment the sync started.
	Added   []string
	Removed []string
	// Refreshed is true once the follow-up full re-read has landed in the
	// store. A false value alongside a non-empty diff means the remote write
	// applied but the re-read failed; the store still shows the old state.
	Refreshed bool
}

// NoChange reports whether the sync turned out to be a no-op.
func (r SyncResult) NoChange() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0
}

// Reconciler replaces the assignee set of one task at a time. It diffs the
// desired set against the store's baseline, pushes the full desired set in a
// single remote call, and triggers a full re-read once the write lands. The
// per-task guard is shared with the completion toggle, so an assignee sync
// and a status write can never interleave on the same task.
type Reconciler struct {
	source Source
	store  *Store
	guard  *keylock.Guard
	reload func(context.Context) error
	logger *zap.Logger
}

func NewReconciler(source Source, store *Store, guard *keylock.Guard, reload func(context.Context) error, logger *zap.Logger) *Reconciler {
	if guard == nil {
		guard = keylock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		source: source,
		store:  store,
		guard:  guard,
		reload: reload,
		logger: logger,
	}
}

// Sync reconciles the task's assignee set towards desired. Applying the same
// desired set twice is idempotent: the second run finds no diff and performs
// zero writes. A failed remote write leaves the store untouched.
func (r *Reconciler) Sync(ctx context.Context, taskID string, desired []string) (SyncResult, error) {
	if taskID == "" {
		return SyncResult{}, domain.NewError(domain.ErrCodeInvalid, "missing task id")
	}
	if !r.guard.TryAcquire(taskID) {
		return SyncResult{}, ErrSyncInFlight
	}
	defer r.guard.Release(taskID)

	task, ok := r.store.Get(taskID)
	if !ok {
		return SyncResult{}, domain.ErrTaskNotFound
	}

	current := make([]string, 0, len(task.Assignments))
	currentSet := make(map[string]struct{}, len(task.Assignments))
	for _, a := range task.Assignments {
		if _, dup := currentSet[a.AssigneeID]; dup {
			// The baseline itself is corrupt; refusing beats diffing
			// against rows whose meaning is ambiguous.
			return SyncResult{}, domain.ErrDuplicateAssignment
		}
		currentSet[a.AssigneeID] = struct{}{}
		current = append(current, a.AssigneeID)
	}

	var result SyncResult
	desiredSet := make(map[string]struct{}, len(desired))
	cleaned := make([]string, 0, len(desired))
	for _, id := range desired {
		if id == "" {
			continue
		}
		if _, seen := desiredSet[id]; seen {
			continue
		}
		desiredSet[id] = struct{}{}
		cleaned = append(cleaned, id)
		if _, exists := currentSet[id]; !exists {
			result.Added = append(result.Added, id)
		}
	}
	for _, id := range current {
		if _, keep := desiredSet[id]; !keep {
			result.Removed = append(result.Removed, id)
		}
	}

	if result.NoChange() {
		r.logger.Debug("assignee sync is a no-op", zap.String("task_id", taskID))
		return result, nil
	}

	if err := r.source.SyncAssignments(ctx, taskID, cleaned); err != nil {
		return SyncResult{}, err
	}

	if r.reload != nil {
		if err := r.reload(ctx); err != nil {
			r.logger.Warn("re-read after assignee sync failed",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
			return result, err
		}
	}
	result.Refreshed = true

	r.logger.Info("assignees reconciled",
		zap.String("task_id", taskID),
		zap.Strings("added", result.Added),
		zap.Strings("removed", result.Removed),
	)
	return result, nil
}

// TryLock claims the task's write guard for a non-sync mutation such as a
// completion toggle. Callers must Unlock.
func (r *Reconciler) TryLock(taskID string) bool {
	return r.guard.TryAcquire(taskID)
}

// Unlock releases the task's write guard.
func (r *Reconciler) Unlock(taskID string) {
	r.guard.Release(taskID)
}
