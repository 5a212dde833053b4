package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
)

type Dashboard struct {
	Upcoming     int
	Live         int
	Completed    int
	Predictions  int
	CorrectPicks int
	GradedPicks  int
	NextMatch    *MatchView
}

type DashboardService struct {
	matchRepo      match.Repository
	playerRepo     player.Repository
	predictionRepo prediction.Repository
}

func NewDashboardService(
	matchRepo match.Repository,
	playerRepo player.Repository,
	predictionRepo prediction.Repository,
) *DashboardService {
	return &DashboardService{
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		predictionRepo: predictionRepo,
	}
}

// Get summarizes matches by state and the caller's predictions, scored
// against live targets.
func (s *DashboardService) Get(ctx context.Context, principal user.Principal, now time.Time) (Dashboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Get")
	defer span.End()

	if err := requireUser(principal); err != nil {
		return Dashboard{}, err
	}

	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list matches: %w", err)
	}
	sortMatches(matches)

	var out Dashboard
	for _, m := range matches {
		switch match.DeriveStatus(m, now) {
		case match.ViewUpcoming:
			out.Upcoming++
			if out.NextMatch == nil {
				view := newMatchView(m, now)
				out.NextMatch = &view
			}
		case match.ViewLive:
			out.Live++
		case match.ViewCompleted:
			out.Completed++
		}
	}

	items, err := s.predictionRepo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list predictions by user: %w", err)
	}
	out.Predictions = len(items)
	if len(items) == 0 {
		return out, nil
	}

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list players: %w", err)
	}
	for _, item := range items {
		score := scoring.Evaluate(item, scoring.LiveSource(players, item.MatchID))
		out.CorrectPicks += score.Correct
		out.GradedPicks += score.Graded
	}

	return out, nil
}
