package seed

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/repository"
)

// File is a YAML fixture describing board contents. Ids are explicit so the
// fixture is idempotent: a task that already exists is left alone.
type File struct {
	Profiles   []ProfileSeed  `yaml:"profiles"`
	Categories []CategorySeed `yaml:"categories"`
	Tasks      []TaskSeed     `yaml:"tasks"`
}

type ProfileSeed struct {
	ID          string `yaml:"id"`
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
}

type CategorySeed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type TaskSeed struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Note        string   `yaml:"note"`
	Due         string   `yaml:"due"`
	CategoryID  string   `yaml:"category_id"`
	CreatorID   string   `yaml:"creator_id"`
	AssigneeIDs []string `yaml:"assignee_ids"`
}

// Load parses the fixture at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Seeder applies fixtures against the repositories.
type Seeder struct {
	profiles   repository.ProfileRepository
	categories repository.CategoryRepository
	tasks      repository.TaskRepository
	logger     *zap.Logger
}

func NewSeeder(profiles repository.ProfileRepository, categories repository.CategoryRepository, tasks repository.TaskRepository, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		profiles:   profiles,
		categories: categories,
		tasks:      tasks,
		logger:     logger,
	}
}

// Apply upserts profiles and categories and creates any tasks that do not
// exist yet.
func (s *Seeder) Apply(ctx context.Context, f *File) error {
	if f == nil {
		return nil
	}

	for _, p := range f.Profiles {
		if p.ID == "" {
			return domain.NewError(domain.ErrCodeInvalid, "seed profile without id")
		}
		role := domain.Role(p.Role)
		if role == "" {
			role = domain.RoleUser
		}
		profile := &domain.Profile{
			ID:          p.ID,
			Email:       p.Email,
			DisplayName: p.DisplayName,
			Role:        role,
		}
		if err := s.profiles.Upsert(ctx, profile); err != nil {
			return fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
	}

	for _, c := range f.Categories {
		if c.ID == "" {
			return domain.NewError(domain.ErrCodeInvalid, "seed category without id")
		}
		if err := s.categories.Upsert(ctx, &domain.Category{ID: c.ID, Name: c.Name}); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}

	created := 0
	for _, t := range f.Tasks {
		if t.ID == "" || t.Title == "" {
			return domain.NewError(domain.ErrCodeInvalid, "seed task needs id and title")
		}
		if _, err := s.tasks.GetByID(ctx, t.ID); err == nil {
			continue
		} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}

		due, err := domain.ParseDue(t.Due)
		if err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}

		task := &domain.Task{
			ID:         t.ID,
			Title:      t.Title,
			Note:       t.Note,
			Due:        due,
			CategoryID: t.CategoryID,
			CreatorID:  t.CreatorID,
		}
		for _, assigneeID := range t.AssigneeIDs {
			task.Assignments = append(task.Assignments, domain.Assignment{
				TaskID:     t.ID,
				AssigneeID: assigneeID,
				Status:     domain.StatusOpen,
				IsOwner:    assigneeID == t.CreatorID,
			})
		}
		if _, err := s.tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
		created++
	}

	s.logger.Info("seed applied",
		zap.Int("profiles", len(f.Profiles)),
		zap.Int("categories", len(f.Categories)),
		zap.Int("tasks_created", created),
	)
	return nil
}
