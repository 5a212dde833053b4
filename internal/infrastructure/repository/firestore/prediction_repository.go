package firestore

import (
	"context"
	"sort"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
)

type PredictionRepository struct {
	client *gcfirestore.Client
}

func NewPredictionRepository(client *gcfirestore.Client) *PredictionRepository {
	return &PredictionRepository{client: client}
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	snap, err := r.client.Collection(predictionsCollection).Doc(predictionID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, errors.Wrapf(err, "get prediction %s", predictionID)
	}

	item, err := decodePrediction(snap)
	if err != nil {
		return prediction.Prediction{}, false, errors.Wrapf(err, "decode prediction %s", predictionID)
	}
	return item, true, nil
}

func (r *PredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	return r.GetByID(ctx, prediction.ID(userID, matchID))
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	return r.listWhere(ctx, "userId", userID)
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	return r.listWhere(ctx, "matchId", matchID)
}

// Upsert replaces the document inside a transaction so an existing
// createdAt is read and written back atomically.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) (prediction.Prediction, error) {
	ref := r.client.Collection(predictionsCollection).Doc(item.ID)
	doc := predictionToDocument(item)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfirestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing predictionDocument
			if err := snap.DataTo(&existing); err != nil {
				return errors.Wrap(err, "decode existing prediction")
			}
			if !existing.CreatedAt.IsZero() {
				doc.CreatedAt = existing.CreatedAt.UTC()
			}
		case isNotFound(err):
		default:
			return err
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return prediction.Prediction{}, errors.Wrapf(err, "upsert prediction %s", item.ID)
	}

	out := item.Clone()
	out.CreatedAt = doc.CreatedAt
	out.Status = doc.Status
	return out, nil
}

// ApplyOutcome patches the snapshot inside a transaction, so a resubmission
// committed in between forces a retry against the fresh roster.
func (r *PredictionRepository) ApplyOutcome(ctx context.Context, predictionID, playerID string, actual float64) (bool, error) {
	ref := r.client.Collection(predictionsCollection).Doc(predictionID)

	var changed bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *gcfirestore.Transaction) error {
		changed = false
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		item, err := decodePrediction(snap)
		if err != nil {
			return errors.Wrap(err, "decode prediction")
		}
		if !item.ApplyOutcome(playerID, actual) {
			return nil
		}
		changed = true
		return tx.Update(ref, []gcfirestore.Update{
			{Path: "selectedPlayers", Value: predictionToDocument(item).SelectedPlayers},
		})
	})
	if err != nil {
		return false, errors.Wrapf(err, "apply outcome to prediction %s", predictionID)
	}
	return changed, nil
}

func (r *PredictionRepository) listWhere(ctx context.Context, field, value string) ([]prediction.Prediction, error) {
	iter := r.client.Collection(predictionsCollection).Where(field, "==", value).Documents(ctx)
	items, err := collect(iter, decodePrediction)
	if err != nil {
		return nil, errors.Wrapf(err, "list predictions by %s", field)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func decodePrediction(snap *gcfirestore.DocumentSnapshot) (prediction.Prediction, error) {
	var doc predictionDocument
	if err := snap.DataTo(&doc); err != nil {
		return prediction.Prediction{}, err
	}
	return predictionFromDocument(snap.Ref.ID, doc), nil
}
