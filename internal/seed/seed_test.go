package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/repository"
)

const fixture = `
profiles:
  - id: admin-1
    email: admin@example.com
    display_name: Admin
    role: admin
  - id: alice-1
    email: alice@example.com
    display_name: Alice
categories:
  - id: cat-1
    name: Chores
tasks:
  - id: task-1
    title: Water the plants
    due: "2026-09-01"
    category_id: cat-1
    creator_id: admin-1
    assignee_ids: [alice-1]
  - id: task-2
    title: Own the backlog
    creator_id: alice-1
    assignee_ids: [alice-1]
`

type seedProfileRepo struct {
	upserted map[string]*domain.Profile
}

func (r *seedProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p, ok := r.upserted[id]; ok {
		return p, nil
	}
	return nil, domain.ErrProfileNotFound
}

func (r *seedProfileRepo) GetByEmail(_ context.Context, _ string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}

func (r *seedProfileRepo) List(_ context.Context) ([]domain.Profile, error) { return nil, nil }

func (r *seedProfileRepo) Upsert(_ context.Context, p *domain.Profile) error {
	r.upserted[p.ID] = p
	return nil
}

type seedCategoryRepo struct {
	upserted map[string]*domain.Category
}

func (r *seedCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	if c, ok := r.upserted[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *seedCategoryRepo) List(_ context.Context) ([]domain.Category, error) { return nil, nil }

func (r *seedCategoryRepo) Upsert(_ context.Context, c *domain.Category) error {
	r.upserted[c.ID] = c
	return nil
}

type seedTaskRepo struct {
	tasks map[string]*domain.Task
}

func (r *seedTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := r.tasks[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (r *seedTaskRepo) List(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *seedTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.tasks[task.ID] = task
	return task, nil
}

func (r *seedTaskRepo) Update(_ context.Context, _ *domain.Task) error { return nil }

func (r *seedTaskRepo) Delete(_ context.Context, _ string) error { return nil }

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ParsesFixture(t *testing.T) {
	f, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	require.Len(t, f.Profiles, 2)
	assert.Equal(t, "admin", f.Profiles[0].Role)
	require.Len(t, f.Categories, 1)
	require.Len(t, f.Tasks, 2)
	assert.Equal(t, []string{"alice-1"}, f.Tasks[0].AssigneeIDs)
}

func TestLoad_RejectsBrokenYAML(t *testing.T) {
	_, err := Load(writeFixture(t, "profiles: [\n"))
	assert.Error(t, err)
}

func TestSeeder_Apply_CreatesEverythingOnce(t *testing.T) {
	f, err := Load(writeFixture(t, fixture))
	require.NoError(t, err)

	profiles := &seedProfileRepo{upserted: make(map[string]*domain.Profile)}
	categories := &seedCategoryRepo{upserted: make(map[string]*domain.Category)}
	tasks := &seedTaskRepo{tasks: make(map[string]*domain.Task)}
	seeder := NewSeeder(profiles, categories, tasks, nil)

	require.NoError(t, seeder.Apply(context.Background(), f))

	assert.Len(t, profiles.upserted, 2)
	assert.Equal(t, domain.RoleAdmin, profiles.upserted["admin-1"].Role)
	assert.Equal(t, domain.RoleUser, profiles.upserted["alice-1"].Role)
	assert.Len(t, categories.upserted, 1)
	require.Len(t, tasks.tasks, 2)

	seeded := tasks.tasks["task-1"]
	require.NotNil(t, seeded.Due)
	assert.True(t, seeded.Due.DateOnly)
	require.Len(t, seeded.Assignments, 1)
	assert.False(t, seeded.Assignments[0].IsOwner)

	// task-2's creator assigned themselves, so the row carries the owner flag.
	assert.True(t, tasks.tasks["task-2"].Assignments[0].IsOwner)

	// A second apply touches no existing tasks.
	require.NoError(t, seeder.Apply(context.Background(), f))
	assert.Len(t, tasks.tasks, 2)
}

func TestSeeder_Apply_RejectsProfileWithoutID(t *testing.T) {
	seeder := NewSeeder(
		&seedProfileRepo{upserted: make(map[string]*domain.Profile)},
		&seedCategoryRepo{upserted: make(map[string]*domain.Category)},
		&seedTaskRepo{tasks: make(map[string]*domain.Task)},
		nil,
	)

	err := seeder.Apply(context.Background(), &File{Profiles: []ProfileSeed{{Email: "ghost@example.com"}}})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
