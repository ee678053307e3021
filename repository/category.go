package repository

import (
	"context"

	"github.com/splitlist/taskboard/domain"
)

type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, category *domain.Category) error
}
