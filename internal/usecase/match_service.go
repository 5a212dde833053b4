package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/id"
)

// MatchView is a match as seen at a given instant.
type MatchView struct {
	Match  match.Match
	State  match.ViewState
	Locked bool
}

func newMatchView(m match.Match, now time.Time) MatchView {
	return MatchView{
		Match:  m,
		State:  match.DeriveStatus(m, now),
		Locked: match.IsLocked(m, now),
	}
}

type CreateMatchInput struct {
	ID          string
	Team1       string
	Team2       string
	Venue       string
	Description string
	StartsAt    time.Time
	Status      string
}

type MatchService struct {
	matchRepo  match.Repository
	playerRepo player.Repository
	ids        id.Generator
	now        func() time.Time
}

func NewMatchService(matchRepo match.Repository, playerRepo player.Repository, ids id.Generator) *MatchService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &MatchService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		ids:        ids,
		now:        time.Now,
	}
}

// List returns every match ordered by start instant.
func (s *MatchService) List(ctx context.Context, now time.Time) ([]MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.List")
	defer span.End()

	items, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	sortMatches(items)
	out := make([]MatchView, 0, len(items))
	for _, m := range items {
		out = append(out, newMatchView(m, now))
	}

	return out, nil
}

func (s *MatchService) Get(ctx context.Context, matchID string, now time.Time) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get", attribute.String("match.id", matchID))
	defer span.End()

	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return MatchView{}, err
	}

	return newMatchView(m, now), nil
}

// ListCandidates returns the players that carry a target for the match.
func (s *MatchService) ListCandidates(ctx context.Context, matchID string) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListCandidates", attribute.String("match.id", matchID))
	defer span.End()

	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	return player.CandidatesFor(players, m.ID), nil
}

func (s *MatchService) Create(ctx context.Context, principal user.Principal, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Create")
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return match.Match{}, err
	}

	status := match.StatusScheduled
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := match.ParseStatus(input.Status)
		if err != nil {
			return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		status = parsed
	}

	matchID := strings.TrimSpace(input.ID)
	if matchID == "" {
		generated, err := s.ids.NewID()
		if err != nil {
			return match.Match{}, fmt.Errorf("generate match id: %w", err)
		}
		matchID = generated
	}

	now := s.now().UTC()
	item := match.Match{
		ID:          matchID,
		Team1:       strings.TrimSpace(input.Team1),
		Team2:       strings.TrimSpace(input.Team2),
		Venue:       strings.TrimSpace(input.Venue),
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := item.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	_, exists, err := s.matchRepo.GetByID(ctx, item.ID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if exists {
		return match.Match{}, fmt.Errorf("%w: match=%s already exists", ErrInvalidInput, item.ID)
	}

	if err := s.matchRepo.Create(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}

	return item, nil
}

// SetStatus records the administrator lifecycle tag. It does not move the
// start instant, so it never unlocks predictions.
func (s *MatchService) SetStatus(ctx context.Context, principal user.Principal, matchID, status string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetStatus", attribute.String("match.id", matchID))
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return match.Match{}, err
	}

	parsed, err := match.ParseStatus(status)
	if err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return match.Match{}, err
	}

	updatedAt := s.now().UTC()
	if err := s.matchRepo.UpdateStatus(ctx, m.ID, parsed, updatedAt); err != nil {
		return match.Match{}, fmt.Errorf("update match status: %w", err)
	}

	m.Status = parsed
	m.UpdatedAt = updatedAt
	return m, nil
}

func loadMatch(ctx context.Context, repo match.Repository, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := repo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	return m, nil
}

func sortMatches(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].StartsAt.Equal(items[j].StartsAt) {
			return items[i].StartsAt.Before(items[j].StartsAt)
		}
		return items[i].ID < items[j].ID
	})
}
