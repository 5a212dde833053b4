package firestore

import (
	"context"
	"sort"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
)

type PlayerRepository struct {
	client *gcfirestore.Client
	now    func() time.Time
}

func NewPlayerRepository(client *gcfirestore.Client) *PlayerRepository {
	return &PlayerRepository{client: client, now: time.Now}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	snap, err := r.client.Collection(playersCollection).Doc(playerID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, errors.Wrapf(err, "get player %s", playerID)
	}

	item, err := decodePlayer(snap)
	if err != nil {
		return player.Player{}, false, errors.Wrapf(err, "decode player %s", playerID)
	}
	return item, true, nil
}

// GetByIDs skips ids that have no document.
func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	refs := make([]*gcfirestore.DocumentRef, 0, len(playerIDs))
	for _, id := range playerIDs {
		refs = append(refs, r.client.Collection(playersCollection).Doc(id))
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, errors.Wrap(err, "get players by ids")
	}

	out := make([]player.Player, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		item, err := decodePlayer(snap)
		if err != nil {
			return nil, errors.Wrapf(err, "decode player %s", snap.Ref.ID)
		}
		out = append(out, item)
	}
	sortPlayers(out)
	return out, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	items, err := collect(r.client.Collection(playersCollection).Documents(ctx), decodePlayer)
	if err != nil {
		return nil, errors.Wrap(err, "list players")
	}
	sortPlayers(items)
	return items, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	_, err := r.client.Collection(playersCollection).Doc(item.ID).Create(ctx, playerToDocument(item))
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Newf("player %s already exists", item.ID)
		}
		return errors.Wrapf(err, "create player %s", item.ID)
	}
	return nil
}

// Update touches the identity fields only, leaving matchTargets in place.
func (r *PlayerRepository) Update(ctx context.Context, item player.Player) error {
	_, err := r.client.Collection(playersCollection).Doc(item.ID).Update(ctx, []gcfirestore.Update{
		{Path: "name", Value: item.Name},
		{Path: "team", Value: item.Team},
		{Path: "role", Value: string(item.Role)},
		{Path: "updatedAt", Value: item.UpdatedAt.UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.Newf("player %s not found", item.ID)
		}
		return errors.Wrapf(err, "update player %s", item.ID)
	}
	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID string) error {
	_, err := r.client.Collection(playersCollection).Doc(playerID).Delete(ctx, gcfirestore.Exists)
	if err != nil {
		if isNotFound(err) {
			return errors.Newf("player %s not found", playerID)
		}
		return errors.Wrapf(err, "delete player %s", playerID)
	}
	return nil
}

func (r *PlayerRepository) SetTarget(ctx context.Context, playerID, matchID string, target player.Target) error {
	_, err := r.client.Collection(playersCollection).Doc(playerID).Update(ctx, []gcfirestore.Update{
		{FieldPath: gcfirestore.FieldPath{"matchTargets", matchID}, Value: targetToDocument(target)},
		{Path: "updatedAt", Value: r.now().UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.Newf("player %s not found", playerID)
		}
		return errors.Wrapf(err, "set target of player %s for match %s", playerID, matchID)
	}
	return nil
}

func decodePlayer(snap *gcfirestore.DocumentSnapshot) (player.Player, error) {
	var doc playerDocument
	if err := snap.DataTo(&doc); err != nil {
		return player.Player{}, err
	}
	return playerFromDocument(snap.Ref.ID, doc), nil
}

func sortPlayers(items []player.Player) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}
