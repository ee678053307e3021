package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/splitlist/taskboard/domain"
	"github.com/splitlist/taskboard/repository"
)

type UseCase struct {
	profiles   repository.ProfileRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

func New(profiles repository.ProfileRepository, categories repository.CategoryRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		profiles:   profiles,
		categories: categories,
		logger:     logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return uc.profiles.GetByID(ctx, id)
}

// ListProfiles returns the directory; it backs the per-person board and is
// restricted to admins.
func (uc *UseCase) ListProfiles(ctx context.Context, viewer *domain.Profile) ([]domain.Profile, error) {
	if viewer == nil {
		return nil, domain.ErrUnauthorized
	}
	if !viewer.IsAdmin() {
		return nil, domain.ErrNotAuthorized
	}
	return uc.profiles.List(ctx)
}

// ListCategories returns all categories; any authenticated caller may read them.
func (uc *UseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return uc.categories.List(ctx)
}
