package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitlist/taskboard/domain"
)

type reconcileHarness struct {
	src   *fakeSource
	store *Store
	rec   *Reconciler
}

func newReconcileHarness(t *testing.T, tasks ...domain.Task) *reconcileHarness {
	t.Helper()
	src := newFakeSource(tasks...)
	store := NewStore()
	reload := func(ctx context.Context) error {
		fetched, err := src.FetchTasks(ctx)
		if err != nil {
			return err
		}
		store.Replace(Merge(store.All(), fetched, time.Now()))
		return nil
	}
	rec := NewReconciler(src, store, nil, reload, zap.NewNop())
	require.NoError(t, reload(context.Background()))
	return &reconcileHarness{src: src, store: store, rec: rec}
}

func TestReconciler_Sync_AppliesDiff(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
		openRow("a2", "bob"),
	))

	result, err := h.rec.Sync(context.Background(), "t1", []string{"bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, []string{"carol"}, result.Added)
	assert.Equal(t, []string{"alice"}, result.Removed)
	assert.True(t, result.Refreshed)

	assert.Equal(t, []string{"bob", "carol"}, h.src.assigneesOf("t1"))

	task, ok := h.store.Get("t1")
	require.True(t, ok)
	assert.Equal(t, []string{"bob", "carol"}, task.AssigneeIDs())
	// Bob's row survived on the server rather than being recreated.
	row, err := h.store.AssignmentFor("t1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "a2", row.ID)

	_, syncs, _ := h.src.calls()
	assert.Equal(t, 1, syncs)
}

func TestReconciler_Sync_SecondIdenticalCallIssuesNoWrites(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
	))

	_, err := h.rec.Sync(context.Background(), "t1", []string{"alice", "bob"})
	require.NoError(t, err)
	fetchesAfterFirst, syncsAfterFirst, _ := h.src.calls()
	require.Equal(t, 1, syncsAfterFirst)

	result, err := h.rec.Sync(context.Background(), "t1", []string{"alice", "bob"})
	require.NoError(t, err)

	assert.True(t, result.NoChange())
	assert.False(t, result.Refreshed)
	fetches, syncs, _ := h.src.calls()
	assert.Equal(t, syncsAfterFirst, syncs)
	assert.Equal(t, fetchesAfterFirst, fetches)
}

func TestReconciler_Sync_RejectsOverlappingSyncForSameTask(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
	))
	h.src.syncStarted = make(chan struct{})
	h.src.syncRelease = make(chan struct{})

	type outcome struct {
		result SyncResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := h.rec.Sync(context.Background(), "t1", []string{"bob"})
		done <- outcome{result, err}
	}()

	// First sync is now parked inside the remote write, guard held.
	<-h.src.syncStarted

	_, err := h.rec.Sync(context.Background(), "t1", []string{"carol"})
	assert.ErrorIs(t, err, ErrSyncInFlight)

	close(h.src.syncRelease)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, []string{"bob"}, first.result.Added)

	// The rejected call never reached the source.
	_, syncs, _ := h.src.calls()
	assert.Equal(t, 1, syncs)
	assert.Equal(t, []string{"bob"}, h.src.assigneesOf("t1"))
}

func TestReconciler_Sync_FailedWriteLeavesStoreUntouched(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
		openRow("a2", "bob"),
	))
	fetchesBefore, _, _ := h.src.calls()
	h.src.failSync = domain.WrapError(domain.ErrCodeTransient, "remote unreachable", context.DeadlineExceeded)

	result, err := h.rec.Sync(context.Background(), "t1", []string{"bob", "carol"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTransient))
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)

	task, ok := h.store.Get("t1")
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, task.AssigneeIDs())

	// No re-read was issued for the failed write.
	fetches, _, _ := h.src.calls()
	assert.Equal(t, fetchesBefore, fetches)

	// The guard was released; a retry initiated by the caller goes through.
	h.src.failSync = nil
	result, err = h.rec.Sync(context.Background(), "t1", []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, result.Added)
}

func TestReconciler_Sync_ReloadFailureReportsUnrefreshed(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
	))
	h.src.failFetch = domain.NewError(domain.ErrCodeTransient, "remote unreachable")

	result, err := h.rec.Sync(context.Background(), "t1", []string{"alice", "bob"})
	require.Error(t, err)

	// The write itself landed; only the confirming re-read is missing.
	assert.Equal(t, []string{"bob"}, result.Added)
	assert.False(t, result.Refreshed)
	assert.Equal(t, []string{"alice", "bob"}, h.src.assigneesOf("t1"))

	// The store stays at its last reloaded state.
	task, ok := h.store.Get("t1")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, task.AssigneeIDs())
}

func TestReconciler_Sync_UnknownTask(t *testing.T) {
	h := newReconcileHarness(t)

	_, err := h.rec.Sync(context.Background(), "ghost", []string{"alice"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = h.rec.Sync(context.Background(), "", []string{"alice"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, syncs, _ := h.src.calls()
	assert.Zero(t, syncs)
}

func TestReconciler_Sync_RefusesCorruptBaseline(t *testing.T) {
	h := newReconcileHarness(t)
	h.store.Replace([]domain.Task{taskWithRows("t1", "Broken",
		openRow("a1", "alice"),
		openRow("a2", "alice"),
	)})

	_, err := h.rec.Sync(context.Background(), "t1", []string{"alice", "bob"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAssignment)

	_, syncs, _ := h.src.calls()
	assert.Zero(t, syncs)
}

func TestReconciler_Sync_CleansDesiredInput(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "bob"),
	))

	result, err := h.rec.Sync(context.Background(), "t1", []string{"", "bob", "bob", "carol"})
	require.NoError(t, err)

	assert.Equal(t, []string{"carol"}, result.Added)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{"bob", "carol"}, h.src.assigneesOf("t1"))
}

func TestReconciler_TryLock_SharesGuardWithSync(t *testing.T) {
	h := newReconcileHarness(t, taskWithRows("t1", "Crew task",
		openRow("a1", "alice"),
	))

	require.True(t, h.rec.TryLock("t1"))
	_, err := h.rec.Sync(context.Background(), "t1", []string{"bob"})
	assert.ErrorIs(t, err, ErrSyncInFlight)

	h.rec.Unlock("t1")
	_, err = h.rec.Sync(context.Background(), "t1", []string{"bob"})
	assert.NoError(t, err)
}
