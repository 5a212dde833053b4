package match

import (
	"context"
	"time"
)

// Repository exposes match persistence operations.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	List(ctx context.Context) ([]Match, error)
	Create(ctx context.Context, item Match) error
	UpdateStatus(ctx context.Context, matchID string, status Status, updatedAt time.Time) error
}
