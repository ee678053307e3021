package repository

import (
	"context"
	"time"

	"github.com/splitlist/taskboard/domain"
)

// SessionRepository stores login sessions keyed by id. Implementations
// are expected to expire entries on their own once the TTL passes.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error

	// Extend pushes the session expiry ttl past now.
	Extend(ctx context.Context, id string, ttl time.Duration) error
}
