package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/internal/infrastructure/snapshot"
)

var (
	viewerAlice = domain.Profile{ID: "alice", DisplayName: "Alice", Role: domain.RoleUser}
	viewerRoot  = domain.Profile{ID: "root", DisplayName: "Root", Role: domain.RoleAdmin}
)

type clientHarness struct {
	src *fakeSource
	c   *Client
}

func newClientHarness(t *testing.T, viewer domain.Profile, opts Options, tasks ...domain.Task) *clientHarness {
	t.Helper()
	src := newFakeSource(tasks...)
	if opts.Directory == nil {
		opts.Directory = src
	}
	c := New(src, viewer, opts)
	require.NoError(t, c.Refresh(context.Background()))
	return &clientHarness{src: src, c: c}
}

func TestClient_Refresh_KeepsLocalCompletionOverStaleEcho(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)

	row, err := h.c.Complete(context.Background(), "t1", "", "done early")
	require.NoError(t, err)
	require.True(t, row.IsComplete())

	// A lagging server hands back the row as open again.
	h.src.forceRowStatus("t1", "alice", domain.StatusOpen)
	require.NoError(t, h.c.Refresh(context.Background()))

	got, err := h.c.Store().AssignmentFor("t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "done early", got.CompletionNote)

	// Once the server itself reports completion, the next refresh converges.
	h.src.forceRowStatus("t1", "alice", domain.StatusComplete)
	require.NoError(t, h.c.Refresh(context.Background()))
	got, err = h.c.Store().AssignmentFor("t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, got.Status)
}

func TestClient_Complete_PatchesRowWithoutFullReread(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice"), openRow("a2", "bob")),
	)
	fetchesBefore, _, _ := h.src.calls()

	row, err := h.c.Complete(context.Background(), "t1", "", "all folded")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, row.Status)
	require.NotNil(t, row.CompletedAt)

	stored, err := h.c.Store().AssignmentFor("t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, stored.Status)
	assert.Equal(t, "all folded", stored.CompletionNote)

	// The confirmed row was patched in place; no fetch was issued.
	fetches, _, statusCalls := h.src.calls()
	assert.Equal(t, fetchesBefore, fetches)
	assert.Equal(t, 1, statusCalls)

	// Reopen clears the completion fields again.
	row, err = h.c.Reopen(context.Background(), "t1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, row.Status)
	assert.Nil(t, row.CompletedAt)
	assert.Empty(t, row.CompletionNote)
}

func TestClient_Complete_SameStatusIsNoop(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)

	_, err := h.c.Complete(context.Background(), "t1", "", "")
	require.NoError(t, err)
	_, _, after := h.src.calls()
	require.Equal(t, 1, after)

	row, err := h.c.Complete(context.Background(), "t1", "", "")
	require.NoError(t, err)
	assert.True(t, row.IsComplete())
	_, _, again := h.src.calls()
	assert.Equal(t, after, again)
}

func TestClient_Complete_FailedWriteLeavesNoLocalPatch(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)
	h.src.failStatus = domain.NewError(domain.ErrCodeTransient, "remote unreachable")

	_, err := h.c.Complete(context.Background(), "t1", "", "")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTransient))

	row, err := h.c.Store().AssignmentFor("t1", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, row.Status)
	assert.Nil(t, row.CompletedAt)
}

func TestClient_Toggle_Authorization(t *testing.T) {
	tasks := []domain.Task{
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	}

	t.Run("no row for viewer reads as not authorized", func(t *testing.T) {
		carol := domain.Profile{ID: "carol", Role: domain.RoleUser}
		h := newClientHarness(t, carol, Options{}, tasks...)

		_, err := h.c.Complete(context.Background(), "t1", "", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
		_, _, statusCalls := h.src.calls()
		assert.Zero(t, statusCalls)
	})

	t.Run("acting on another row requires admin", func(t *testing.T) {
		h := newClientHarness(t, viewerAlice, Options{},
			taskWithRows("t1", "Fold laundry", openRow("a1", "alice"), openRow("a2", "bob")),
		)

		_, err := h.c.Complete(context.Background(), "t1", "bob", "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("admin on another row succeeds", func(t *testing.T) {
		h := newClientHarness(t, viewerRoot, Options{}, tasks...)

		row, err := h.c.Complete(context.Background(), "t1", "alice", "closed for them")
		require.NoError(t, err)
		assert.True(t, row.IsComplete())
	})

	t.Run("admin on a missing row gets the lookup failure", func(t *testing.T) {
		h := newClientHarness(t, viewerRoot, Options{}, tasks...)

		_, err := h.c.Complete(context.Background(), "t1", "carol", "")
		assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
	})
}

func TestClient_Toggle_SharesGuardWithAssigneeSync(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)

	require.True(t, h.c.guard.TryAcquire("t1"))
	_, err := h.c.Complete(context.Background(), "t1", "", "")
	assert.ErrorIs(t, err, ErrSyncInFlight)
	_, err = h.c.SyncAssignees(context.Background(), "t1", []string{"bob"})
	assert.ErrorIs(t, err, ErrSyncInFlight)
	h.c.guard.Release("t1")

	_, err = h.c.Complete(context.Background(), "t1", "", "")
	assert.NoError(t, err)
}

func TestClient_CreateTask_PolicyRejectsUnassignedDraft(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{Policy: CreatePolicy{RequireAssignee: true}})

	_, err := h.c.CreateTask(context.Background(), TaskDraft{Title: "Plan trip"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	// The draft never left the client.
	h.src.mu.Lock()
	creates := h.src.createCalls
	h.src.mu.Unlock()
	assert.Zero(t, creates)

	created, err := h.c.CreateTask(context.Background(), TaskDraft{
		Title:       "Plan trip",
		AssigneeIDs: []string{"alice"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	task, ok := h.c.Store().Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, task.AssigneeIDs())
}

func TestClient_CreateTask_ServerPolicyStillApplies(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{})
	h.src.requireAssignee = true

	_, err := h.c.CreateTask(context.Background(), TaskDraft{Title: "Plan trip"})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Zero(t, h.c.Store().Len())
}

func TestClient_PatchTask_RefusesBlankTitle(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)

	blank := "   "
	_, err := h.c.PatchTask(context.Background(), TaskPatch{TaskID: "t1", Title: &blank})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	title := "Fold and iron"
	updated, err := h.c.PatchTask(context.Background(), TaskPatch{TaskID: "t1", Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Fold and iron", updated.Title)

	task, _ := h.c.Store().Get("t1")
	assert.Equal(t, "Fold and iron", task.Title)
}

func TestClient_DeleteTask_DropsFromStore(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
		taskWithRows("t2", "Water plants", openRow("a2", "alice")),
	)

	require.NoError(t, h.c.DeleteTask(context.Background(), "t1"))

	_, ok := h.c.Store().Get("t1")
	assert.False(t, ok)
	assert.Equal(t, 1, h.c.Store().Len())

	assert.ErrorIs(t, h.c.DeleteTask(context.Background(), "ghost"), domain.ErrTaskNotFound)
}

func TestClient_SyncAssignees_EndToEnd(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice"), openRow("a2", "bob")),
	)

	result, err := h.c.SyncAssignees(context.Background(), "t1", []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, result.Added)
	assert.Equal(t, []string{"alice"}, result.Removed)
	assert.True(t, result.Refreshed)

	task, _ := h.c.Store().Get("t1")
	assert.Equal(t, []string{"bob", "carol"}, task.AssigneeIDs())
}

func TestClient_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boards.db")
	cache, err := snapshot.Open(path)
	require.NoError(t, err)
	defer cache.Close()

	h := newClientHarness(t, viewerAlice, Options{Snapshot: cache},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)
	_ = h

	// A fresh client for the same identity starts from the saved state.
	restored := New(newFakeSource(), viewerAlice, Options{Snapshot: cache})
	savedAt, err := restored.RestoreLastKnown()
	require.NoError(t, err)
	assert.False(t, savedAt.IsZero())
	assert.Equal(t, 1, restored.Store().Len())

	view := restored.SelfView(Filter{})
	require.Len(t, view.Open, 1)
	assert.Equal(t, "t1", view.Open[0].Task.ID)

	// Another identity shares the file but not the state.
	other := New(newFakeSource(), viewerRoot, Options{Snapshot: cache})
	savedAt, err = other.RestoreLastKnown()
	require.NoError(t, err)
	assert.True(t, savedAt.IsZero())
	assert.Zero(t, other.Store().Len())
}

func TestClient_RestoreLastKnown_SkipsPopulatedStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boards.db")
	cache, err := snapshot.Open(path)
	require.NoError(t, err)
	defer cache.Close()

	h := newClientHarness(t, viewerAlice, Options{Snapshot: cache},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)

	savedAt, err := h.c.RestoreLastKnown()
	require.NoError(t, err)
	assert.True(t, savedAt.IsZero())
}

func TestClient_AdminView_Authorization(t *testing.T) {
	tasks := []domain.Task{
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
		{ID: "t2", Title: "Pick a gift"},
	}

	t.Run("non-admin is refused", func(t *testing.T) {
		h := newClientHarness(t, viewerAlice, Options{}, tasks...)
		_, err := h.c.AdminView(Filter{}, "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("admin fans out over the directory", func(t *testing.T) {
		h := newClientHarness(t, viewerRoot, Options{}, tasks...)
		h.src.profiles = []domain.Profile{
			{ID: "alice", DisplayName: "Alice", Role: domain.RoleUser},
			{ID: "bob", DisplayName: "Bob", Role: domain.RoleUser},
		}
		require.NoError(t, h.c.RefreshDirectory(context.Background()))

		view, err := h.c.AdminView(Filter{}, "")
		require.NoError(t, err)
		assert.Len(t, view.Profiles, 2)
		assert.Equal(t, []string{"t2"}, taskIDs(view.Unassigned.Items))

		restricted, err := h.c.AdminView(Filter{}, "alice")
		require.NoError(t, err)
		require.Len(t, restricted.Profiles, 1)
		assert.Equal(t, []string{"t1"}, taskIDs(restricted.Profiles[0].Items))
		assert.Empty(t, restricted.Unassigned.Items)

		unassigned, err := h.c.AdminView(Filter{}, BucketUnassigned)
		require.NoError(t, err)
		assert.Empty(t, unassigned.Profiles)
		assert.Equal(t, []string{"t2"}, taskIDs(unassigned.Unassigned.Items))
	})

	t.Run("unknown bucket is refused", func(t *testing.T) {
		h := newClientHarness(t, viewerRoot, Options{}, tasks...)
		_, err := h.c.AdminView(Filter{}, "nobody")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}

func TestClient_RefreshDirectory_FeedsViews(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		func() domain.Task {
			task := taskWithRows("t1", "Fold laundry", openRow("a1", "alice"))
			task.CategoryID = "cat-chores"
			return task
		}(),
	)
	h.src.profiles = []domain.Profile{viewerAlice}
	h.src.categories = []domain.Category{{ID: "cat-chores", Name: "Chores"}}

	require.NoError(t, h.c.RefreshDirectory(context.Background()))
	assert.Len(t, h.c.Profiles(), 1)
	require.Len(t, h.c.Categories(), 1)

	view := h.c.SelfView(Filter{})
	require.Len(t, view.Open, 1)
	assert.Equal(t, "Chores", view.Open[0].CategoryName)
}

func TestClient_RefreshDirectory_ToleratesProfileRestriction(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{})
	h.src.profiles = []domain.Profile{viewerAlice}
	h.src.categories = []domain.Category{{ID: "cat-chores", Name: "Chores"}}
	h.src.failProfiles = domain.ErrNotAuthorized

	require.NoError(t, h.c.RefreshDirectory(context.Background()))

	// Categories still land even though the profile listing is admin-only.
	assert.Empty(t, h.c.Profiles())
	require.Len(t, h.c.Categories(), 1)
	assert.Equal(t, "Chores", h.c.Categories()[0].Name)
}

func TestClient_Refresh_PropagatesFetchFailure(t *testing.T) {
	h := newClientHarness(t, viewerAlice, Options{},
		taskWithRows("t1", "Fold laundry", openRow("a1", "alice")),
	)
	h.src.failFetch = domain.NewError(domain.ErrCodeTransient, "remote unreachable")

	err := h.c.Refresh(context.Background())
	require.Error(t, err)

	// The last reloaded state stays in place.
	assert.Equal(t, 1, h.c.Store().Len())
}

func TestClient_ViewerAndClock(t *testing.T) {
	fixed := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	h := newClientHarness(t, viewerAlice, Options{Now: func() time.Time { return fixed }},
		func() domain.Task {
			task := taskWithRows("t1", "Fold laundry", openRow("a1", "alice"))
			task.Due = &domain.Due{At: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), DateOnly: true}
			return task
		}(),
	)

	assert.Equal(t, "alice", h.c.Viewer().ID)

	view := h.c.SelfView(Filter{})
	require.Len(t, view.Open, 1)
	assert.Equal(t, domain.BucketToday, view.Open[0].Bucket)
}
