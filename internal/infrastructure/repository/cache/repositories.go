package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	basecache "github.com/riskibarqy/fantasy-prediction/internal/platform/cache"
)

const (
	matchPrefix  = "match:"
	playerPrefix = "player:"
)

type lookup[T any] struct {
	value  T
	exists bool
}

// MatchRepository is a read-through cache over a match.Repository. Every
// write drops all cached match entries.
type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, matchPrefix+"id:"+matchID, func(ctx context.Context) (lookup[match.Match], error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		return lookup[match.Match]{value: item, exists: exists}, err
	})
	if err != nil {
		return match.Match{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	items, err := basecache.Load(ctx, r.cache, matchPrefix+"list", r.next.List)
	if err != nil {
		return nil, err
	}
	return append([]match.Match(nil), items...), nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	defer r.cache.DeletePrefix(ctx, matchPrefix)
	return r.next.Create(ctx, item)
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, status match.Status, updatedAt time.Time) error {
	defer r.cache.DeletePrefix(ctx, matchPrefix)
	return r.next.UpdateStatus(ctx, matchID, status, updatedAt)
}

// PlayerRepository is a read-through cache over a player.Repository. Cached
// players are cloned on every read so callers cannot mutate shared targets.
type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, playerPrefix+"id:"+playerID, func(ctx context.Context) (lookup[player.Player], error) {
		item, exists, err := r.next.GetByID(ctx, playerID)
		return lookup[player.Player]{value: item, exists: exists}, err
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value.Clone(), cached.exists, nil
}

// GetByIDs is served from the cached full list, keeping the requested order
// and skipping unknown ids.
func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	items, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	index := player.IndexByID(items)
	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := index[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	items, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]player.Player, 0, len(items))
	for _, p := range items {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	defer r.cache.DeletePrefix(ctx, playerPrefix)
	return r.next.Create(ctx, item)
}

func (r *PlayerRepository) Update(ctx context.Context, item player.Player) error {
	defer r.cache.DeletePrefix(ctx, playerPrefix)
	return r.next.Update(ctx, item)
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID string) error {
	defer r.cache.DeletePrefix(ctx, playerPrefix)
	return r.next.Delete(ctx, playerID)
}

func (r *PlayerRepository) SetTarget(ctx context.Context, playerID, matchID string, target player.Target) error {
	defer r.cache.DeletePrefix(ctx, playerPrefix)
	return r.next.SetTarget(ctx, playerID, matchID, target)
}

func (r *PlayerRepository) list(ctx context.Context) ([]player.Player, error) {
	return basecache.Load(ctx, r.cache, playerPrefix+"list", r.next.List)
}
