package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/internal/infrastructure/snapshot"
	"github.com/splitlist/taskboard/pkg/keylock"
)

// CreatePolicy toggles which task fields are mandatory when drafting locally.
// The remote enforces its own policy; this one fails fast before any call.
type CreatePolicy struct {
	RequireAssignee bool
	RequireDue      bool
}

// Options tunes a Client beyond its source and viewer.
type Options struct {
	// Directory supplies profiles and categories; without one, the admin
	// projection has no buckets and category names stay blank.
	Directory Directory
	// Snapshot persists the last merged state per identity. Optional.
	Snapshot *snapshot.Cache
	Policy   CreatePolicy
	Logger   *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Client owns the local board state for one authenticated identity. All
// mutations go through the source first; local state changes only after the
// remote write is confirmed, either by an optimistic row patch or by a full
// re-read.
type Client struct {
	source Source
	dir    Directory
	store  *Store
	guard  *keylock.Guard
	rec    *Reconciler
	snap   *snapshot.Cache
	viewer domain.Profile
	policy CreatePolicy
	logger *zap.Logger
	now    func() time.Time

	mu         sync.RWMutex
	profiles   []domain.Profile
	categories []domain.Category
}

func New(source Source, viewer domain.Profile, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		source: source,
		dir:    opts.Directory,
		store:  NewStore(),
		guard:  keylock.New(),
		snap:   opts.Snapshot,
		viewer: viewer,
		policy: opts.Policy,
		logger: logger,
		now:    now,
	}
	c.rec = NewReconciler(source, c.store, c.guard, c.Refresh, logger)
	return c
}

// Viewer returns the identity the client acts as.
func (c *Client) Viewer() domain.Profile {
	return c.viewer
}

// Store exposes the local task store for read access.
func (c *Client) Store() *Store {
	return c.store
}

// Refresh fetches the full task list, merges it against the held state and
// replaces the store. The merged result is also written to the snapshot
// cache, best effort.
func (c *Client) Refresh(ctx context.Context) error {
	fetched, err := c.source.FetchTasks(ctx)
	if err != nil {
		return err
	}

	merged := Merge(c.store.All(), fetched, c.now())
	c.store.Replace(merged)

	if c.snap != nil {
		if err := c.snap.Save(c.viewer.ID, merged); err != nil {
			c.logger.Warn("snapshot save failed", zap.Error(err))
		}
	}
	c.logger.Debug("board refreshed", zap.Int("tasks", len(merged)))
	return nil
}

// RestoreLastKnown loads the snapshot saved for the viewer into an empty
// store, returning when it was saved. It does nothing once the store holds
// fetched state.
func (c *Client) RestoreLastKnown() (time.Time, error) {
	if c.snap == nil || c.store.Len() > 0 {
		return time.Time{}, nil
	}
	tasks, savedAt, err := c.snap.Load(c.viewer.ID)
	if err != nil {
		return time.Time{}, err
	}
	if len(tasks) > 0 {
		c.store.Replace(tasks)
	}
	return savedAt, nil
}

// RefreshDirectory fetches profiles and categories concurrently. Sources may
// restrict the profile listing to admins; that refusal keeps the previous
// profile cache instead of failing the whole refresh, since regular viewers
// still need category names.
func (c *Client) RefreshDirectory(ctx context.Context) error {
	if c.dir == nil {
		return nil
	}

	var (
		profiles    []domain.Profile
		categories  []domain.Category
		keepProfile bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profiles, err = c.dir.ListProfiles(gctx)
		if domain.IsDomainError(err, domain.ErrCodeForbidden) {
			keepProfile = true
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.dir.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	if !keepProfile {
		c.profiles = profiles
	}
	c.categories = categories
	c.mu.Unlock()
	return nil
}

// Profiles returns the cached directory listing.
func (c *Client) Profiles() []domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Categories returns the cached category listing.
func (c *Client) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// SelfView projects the viewer's own board.
func (c *Client) SelfView(f Filter) SelfView {
	return ProjectSelf(c.store.All(), c.viewer.ID, c.Categories(), f, c.now())
}

// AdminView projects the per-person board. Only admins may call it; a bucket
// restriction must name BucketUnassigned or a known profile.
func (c *Client) AdminView(f Filter, only string) (AdminView, error) {
	if !c.viewer.IsAdmin() {
		return AdminView{}, domain.ErrNotAuthorized
	}

	profiles := c.Profiles()
	if only != "" && only != BucketUnassigned {
		known := false
		for _, p := range profiles {
			if p.ID == only {
				known = true
				break
			}
		}
		if !known {
			return AdminView{}, domain.ErrProfileNotFound
		}
	}
	return ProjectAdmin(c.store.All(), profiles, c.Categories(), f, only, c.now()), nil
}

// CreateTask drafts a task remotely and re-reads the board on success.
func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*domain.Task, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if c.policy.RequireDue && draft.Due == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "a due date is required")
	}
	if c.policy.RequireAssignee && len(draft.AssigneeIDs) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "at least one assignee is required")
	}

	created, err := c.source.CreateTask(ctx, draft)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// PatchTask edits task fields remotely and re-reads the board on success.
func (c *Client) PatchTask(ctx context.Context, patch TaskPatch) (*domain.Task, error) {
	if patch.TaskID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "missing task id")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "title cannot be empty")
	}

	updated, err := c.source.PatchTask(ctx, patch)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// DeleteTask removes the task remotely and re-reads the board on success.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.source.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Complete marks an assignment row complete. An empty actingAssigneeID means
// the viewer's own row.
func (c *Client) Complete(ctx context.Context, taskID, actingAssigneeID, note string) (*domain.Assignment, error) {
	return c.setStatus(ctx, taskID, actingAssigneeID, domain.StatusComplete, note)
}

// Reopen flips an assignment row back to open.
func (c *Client) Reopen(ctx context.Context, taskID, actingAssigneeID string) (*domain.Assignment, error) {
	return c.setStatus(ctx, taskID, actingAssigneeID, domain.StatusOpen, "")
}

// setStatus drives the completion toggle: resolve and authorize the target
// row locally, write remotely, then patch the confirmed row into the store.
// It shares the per-task guard with assignee syncs.
func (c *Client) setStatus(ctx context.Context, taskID, actingAssigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error) {
	if taskID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "missing task id")
	}
	assigneeID := actingAssigneeID
	if assigneeID == "" {
		assigneeID = c.viewer.ID
	}
	if assigneeID != c.viewer.ID && !c.viewer.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}

	if !c.guard.TryAcquire(taskID) {
		return nil, ErrSyncInFlight
	}
	defer c.guard.Release(taskID)

	row, err := c.store.AssignmentFor(taskID, assigneeID)
	if err != nil {
		// Toggling without holding a row on the task is an authorization
		// problem for regular users; admins acting on a named row get the
		// honest lookup failure.
		if err == domain.ErrAssignmentNotFound && assigneeID == c.viewer.ID && !c.viewer.IsAdmin() {
			return nil, domain.ErrNotAuthorized
		}
		return nil, err
	}

	if row.Status == status {
		return row, nil
	}

	updated, err := c.source.SetAssignmentStatus(ctx, taskID, assigneeID, status, note)
	if err != nil {
		return nil, err
	}
	if err := c.store.ApplyAssignment(*updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// SyncAssignees reconciles the task's assignee set towards desired.
func (c *Client) SyncAssignees(ctx context.Context, taskID string, desired []string) (SyncResult, error) {
	return c.rec.Sync(ctx, taskID, desired)
}
