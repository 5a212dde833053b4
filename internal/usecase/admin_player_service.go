package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/id"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/workerpool"
)

type CreatePlayerInput struct {
	ID   string
	Name string
	Team string
	Role string
}

type UpdatePlayerInput struct {
	Name string
	Team string
	Role string
}

type TargetInput struct {
	Kind         string
	Threshold    float64
	ActualPoints *float64
	IsSelected   bool
	// ClearActual drops a stored outcome instead of keeping it.
	ClearActual bool
}

// AdminPlayerView pairs a player with its target for the match being
// administered, when it has one.
type AdminPlayerView struct {
	Player player.Player
	Target *player.Target
}

type SetTargetResult struct {
	Player player.Player
	Target player.Target
	// Propagated counts predictions whose snapshot received the outcome.
	Propagated int
}

type AdminPlayerService struct {
	matchRepo      match.Repository
	playerRepo     player.Repository
	predictionRepo prediction.Repository
	ids            id.Generator
	pool           *workerpool.Pool
	logger         *logging.Logger
	now            func() time.Time
}

func NewAdminPlayerService(
	matchRepo match.Repository,
	playerRepo player.Repository,
	predictionRepo prediction.Repository,
	ids id.Generator,
	workers *workerpool.Pool,
	logger *logging.Logger,
) *AdminPlayerService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminPlayerService{
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		predictionRepo: predictionRepo,
		ids:            ids,
		pool:           workers,
		logger:         logger,
		now:            time.Now,
	}
}

// List returns every player. With a match id, each row carries that match's
// target when the player has one.
func (s *AdminPlayerService) List(ctx context.Context, principal user.Principal, matchID string) ([]AdminPlayerView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminPlayerService.List", attribute.String("match.id", matchID))
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	matchID = strings.TrimSpace(matchID)
	if matchID != "" {
		if _, err := loadMatch(ctx, s.matchRepo, matchID); err != nil {
			return nil, err
		}
	}

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]AdminPlayerView, 0, len(players))
	for _, p := range players {
		row := AdminPlayerView{Player: p}
		if matchID != "" {
			if target, ok := p.TargetFor(matchID); ok {
				row.Target = &target
			}
		}
		out = append(out, row)
	}

	return out, nil
}

func (s *AdminPlayerService) Create(ctx context.Context, principal user.Principal, input CreatePlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminPlayerService.Create")
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return player.Player{}, err
	}

	playerID := strings.TrimSpace(input.ID)
	if playerID == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return player.Player{}, fmt.Errorf("generate player id: %w", err)
		}
		playerID = generated
	}

	now := s.now().UTC()
	item := player.Player{
		ID:        playerID,
		Name:      strings.TrimSpace(input.Name),
		Team:      strings.TrimSpace(input.Team),
		Role:      player.Role(strings.ToLower(strings.TrimSpace(input.Role))),
		Targets:   map[string]player.Target{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, exists, err := s.playerRepo.GetByID(ctx, item.ID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if exists {
		return player.Player{}, fmt.Errorf("%w: player=%s already exists", ErrInvalidInput, item.ID)
	}

	if err := s.playerRepo.Create(ctx, item); err != nil {
		return player.Player{}, fmt.Errorf("create player: %w", err)
	}

	return item, nil
}

// Update changes identity fields only. Targets are left as stored.
func (s *AdminPlayerService) Update(ctx context.Context, principal user.Principal, playerID string, input UpdatePlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminPlayerService.Update", attribute.String("player.id", playerID))
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return player.Player{}, err
	}

	current, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return player.Player{}, err
	}

	current.Name = strings.TrimSpace(input.Name)
	current.Team = strings.TrimSpace(input.Team)
	current.Role = player.Role(strings.ToLower(strings.TrimSpace(input.Role)))
	current.UpdatedAt = s.now().UTC()
	if err := current.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.playerRepo.Update(ctx, current); err != nil {
		return player.Player{}, fmt.Errorf("update player: %w", err)
	}

	return current, nil
}

// Delete removes the player. Predictions keep their snapshots of the player.
func (s *AdminPlayerService) Delete(ctx context.Context, principal user.Principal, playerID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminPlayerService.Delete", attribute.String("player.id", playerID))
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return err
	}

	current, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.playerRepo.Delete(ctx, current.ID); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}

	s.logger.InfoContext(ctx, "player deleted", "player_id", current.ID, "admin_id", principal.UserID)
	return nil
}

// SetTarget stores the player's target for a match. An edit without an
// observed outcome keeps the stored one unless ClearActual is set. An edit that carries an outcome also
// copies it into the snapshot of every prediction that picked the player for
// that match; thresholds in snapshots are never changed.
func (s *AdminPlayerService) SetTarget(ctx context.Context, principal user.Principal, playerID, matchID string, input TargetInput) (SetTargetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminPlayerService.SetTarget",
		attribute.String("player.id", playerID),
		attribute.String("match.id", matchID),
	)
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return SetTargetResult{}, err
	}

	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return SetTargetResult{}, err
	}
	current, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return SetTargetResult{}, err
	}

	update := player.Target{
		Kind:         player.MetricKind(strings.ToLower(strings.TrimSpace(input.Kind))),
		Threshold:    input.Threshold,
		ActualPoints: input.ActualPoints,
		IsSelected:   input.IsSelected,
	}
	if err := update.Validate(); err != nil {
		return SetTargetResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.ClearActual && input.ActualPoints != nil {
		return SetTargetResult{}, fmt.Errorf("%w: actual points cannot be set and cleared together", ErrInvalidInput)
	}

	stored, _ := current.TargetFor(m.ID)
	merged := stored.Merge(update)
	if input.ClearActual {
		merged = merged.ClearOutcome()
	}
	if err := s.playerRepo.SetTarget(ctx, current.ID, m.ID, merged); err != nil {
		return SetTargetResult{}, fmt.Errorf("set player target: %w", err)
	}

	if current.Targets == nil {
		current.Targets = make(map[string]player.Target)
	}
	current.Targets[m.ID] = merged
	result := SetTargetResult{Player: current, Target: merged}

	if input.ActualPoints == nil {
		return result, nil
	}

	propagated, err := s.propagateOutcome(ctx, m.ID, current.ID, *merged.ActualPoints)
	result.Propagated = propagated
	if err != nil {
		return result, fmt.Errorf("propagate outcome for player=%s match=%s: %w", current.ID, m.ID, err)
	}

	return result, nil
}

// propagateOutcome lists the match's predictions only to find candidates.
// Each write is a repository-side read-modify-write, so a roster resubmitted
// after the list is patched as stored rather than overwritten.
func (s *AdminPlayerService) propagateOutcome(ctx context.Context, matchID, playerID string, actual float64) (int, error) {
	items, err := s.predictionRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("list predictions by match: %w", err)
	}

	candidates := make([]string, 0, len(items))
	for _, item := range items {
		if item.ApplyOutcome(playerID, actual) {
			candidates = append(candidates, item.ID)
		}
	}

	var written, failed atomic.Int32
	err = workerpool.ForEach(ctx, s.pool, candidates, func(ctx context.Context, predictionID string) error {
		changed, err := s.predictionRepo.ApplyOutcome(ctx, predictionID, playerID, actual)
		if err != nil {
			failed.Add(1)
			return fmt.Errorf("apply outcome to prediction %s: %w", predictionID, err)
		}
		if changed {
			written.Add(1)
		}
		return nil
	})

	count := int(written.Load())
	s.logger.InfoContext(ctx, "outcome propagated to predictions",
		"match_id", matchID,
		"player_id", playerID,
		"actual_points", actual,
		"predictions", count,
		"failed", int(failed.Load()),
	)
	return count, err
}

func (s *AdminPlayerService) loadPlayer(ctx context.Context, playerID string) (player.Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	p, exists, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}

	return p, nil
}
