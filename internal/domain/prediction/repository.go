package prediction

import "context"

// Repository exposes prediction persistence operations.
//
// Upsert creates the document when its id is absent and otherwise replaces it
// wholesale, keeping the stored CreatedAt.
//
// ApplyOutcome reads, patches and writes one document atomically so that a
// resubmission landing concurrently is never overwritten with a stale roster.
// It reports whether the stored document changed; a missing document is not
// an error.
type Repository interface {
	GetByID(ctx context.Context, predictionID string) (Prediction, bool, error)
	GetByUserAndMatch(ctx context.Context, userID, matchID string) (Prediction, bool, error)
	ListByUser(ctx context.Context, userID string) ([]Prediction, error)
	ListByMatch(ctx context.Context, matchID string) ([]Prediction, error)
	Upsert(ctx context.Context, item Prediction) (Prediction, error)
	ApplyOutcome(ctx context.Context, predictionID, playerID string, actual float64) (bool, error)
}
