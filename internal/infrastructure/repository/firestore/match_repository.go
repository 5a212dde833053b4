package firestore

import (
	"context"
	"sort"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
)

type MatchRepository struct {
	client *gcfirestore.Client
}

func NewMatchRepository(client *gcfirestore.Client) *MatchRepository {
	return &MatchRepository{client: client}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	snap, err := r.client.Collection(matchesCollection).Doc(matchID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, errors.Wrapf(err, "get match %s", matchID)
	}

	item, err := decodeMatch(snap)
	if err != nil {
		return match.Match{}, false, errors.Wrapf(err, "decode match %s", matchID)
	}
	return item, true, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	iter := r.client.Collection(matchesCollection).OrderBy("timestamp", gcfirestore.Asc).Documents(ctx)
	items, err := collect(iter, decodeMatch)
	if err != nil {
		return nil, errors.Wrap(err, "list matches")
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartsAt.Equal(items[j].StartsAt) {
			return items[i].StartsAt.Before(items[j].StartsAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	_, err := r.client.Collection(matchesCollection).Doc(item.ID).Create(ctx, matchToDocument(item))
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Newf("match %s already exists", item.ID)
		}
		return errors.Wrapf(err, "create match %s", item.ID)
	}
	return nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, status match.Status, updatedAt time.Time) error {
	_, err := r.client.Collection(matchesCollection).Doc(matchID).Update(ctx, []gcfirestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.Newf("match %s not found", matchID)
		}
		return errors.Wrapf(err, "update status of match %s", matchID)
	}
	return nil
}

func decodeMatch(snap *gcfirestore.DocumentSnapshot) (match.Match, error) {
	var doc matchDocument
	if err := snap.DataTo(&doc); err != nil {
		return match.Match{}, err
	}
	return matchFromDocument(snap.Ref.ID, doc), nil
}
