package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items map[string]prediction.Prediction
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{items: make(map[string]prediction.Prediction)}
}

func (r *PredictionRepository) GetByID(_ context.Context, predictionID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[predictionID]
	if !ok {
		return prediction.Prediction{}, false, nil
	}

	return p.Clone(), true, nil
}

func (r *PredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	return r.GetByID(ctx, prediction.ID(userID, matchID))
}

func (r *PredictionRepository) ListByUser(_ context.Context, userID string) ([]prediction.Prediction, error) {
	return r.filter(func(p prediction.Prediction) bool { return p.UserID == userID }), nil
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID string) ([]prediction.Prediction, error) {
	return r.filter(func(p prediction.Prediction) bool { return p.MatchID == matchID }), nil
}

func (r *PredictionRepository) Upsert(_ context.Context, item prediction.Prediction) (prediction.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := item.Clone()
	if current, ok := r.items[item.ID]; ok && !current.CreatedAt.IsZero() {
		stored.CreatedAt = current.CreatedAt
	}
	r.items[item.ID] = stored

	return stored.Clone(), nil
}

func (r *PredictionRepository) ApplyOutcome(_ context.Context, predictionID, playerID string, actual float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[predictionID]
	if !ok {
		return false, nil
	}
	next := current.Clone()
	if !next.ApplyOutcome(playerID, actual) {
		return false, nil
	}
	r.items[predictionID] = next

	return true, nil
}

func (r *PredictionRepository) filter(keep func(prediction.Prediction) bool) []prediction.Prediction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, p := range r.items {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
