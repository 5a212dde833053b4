package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
)

// PlayerRepository keeps players in memory. Values are cloned on the way in
// and out so callers never share target maps with the store.
type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	items := make(map[string]player.Player, len(players))
	for _, p := range players {
		items[p.ID] = p.Clone()
	}

	return &PlayerRepository{items: items}
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[playerID]
	if !ok {
		return player.Player{}, false, nil
	}

	return p.Clone(), true, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, playerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := r.items[id]
		if !ok {
			continue
		}
		out = append(out, p.Clone())
	}

	return out, nil
}

func (r *PlayerRepository) List(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *PlayerRepository) Create(_ context.Context, item player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("player %s already exists", item.ID)
	}
	r.items[item.ID] = item.Clone()

	return nil
}

// Update replaces identity fields and keeps the stored targets.
func (r *PlayerRepository) Update(_ context.Context, item player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[item.ID]
	if !ok {
		return fmt.Errorf("player %s not found", item.ID)
	}
	current.Name = item.Name
	current.Team = item.Team
	current.Role = item.Role
	current.UpdatedAt = item.UpdatedAt
	r.items[item.ID] = current

	return nil
}

func (r *PlayerRepository) Delete(_ context.Context, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[playerID]; !ok {
		return fmt.Errorf("player %s not found", playerID)
	}
	delete(r.items, playerID)

	return nil
}

func (r *PlayerRepository) SetTarget(_ context.Context, playerID, matchID string, target player.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[playerID]
	if !ok {
		return fmt.Errorf("player %s not found", playerID)
	}

	updated := current.Clone()
	if updated.Targets == nil {
		updated.Targets = make(map[string]player.Target)
	}
	if target.ActualPoints != nil {
		actual := *target.ActualPoints
		target.ActualPoints = &actual
	}
	updated.Targets[matchID] = target
	r.items[playerID] = updated

	return nil
}
