package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/workerpool"
)

// Reasons reported when a submission is refused without an error.
const (
	SubmitReasonLocked     = "match_locked"
	SubmitReasonRosterSize = "roster_incomplete"
	SubmitReasonInFlight   = "submit_in_flight"
)

// SubmitGuard refuses a second submission for the same key while one is still
// being written.
type SubmitGuard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// SubmitRecorder observes submission outcomes, typically for metrics.
type SubmitRecorder interface {
	ObserveSubmit(outcome string)
}

type SubmitInput struct {
	MatchID   string
	PlayerIDs []string
}

type SubmitResult struct {
	Prediction *prediction.Prediction
	Applied    bool
	Reason     string
}

type SelectionView struct {
	Match      MatchView
	Selected   []prediction.Candidate
	Available  []prediction.Candidate
	CanSubmit  bool
	Prediction *prediction.Prediction
	Score      *scoring.Score
}

type PredictionView struct {
	Prediction prediction.Prediction
	Match      *match.Match
	Score      scoring.Score
}

type PredictionService struct {
	matchRepo      match.Repository
	playerRepo     player.Repository
	predictionRepo prediction.Repository
	guard          SubmitGuard
	pool           *workerpool.Pool
	recorder       SubmitRecorder
	logger         *logging.Logger
}

func NewPredictionService(
	matchRepo match.Repository,
	playerRepo player.Repository,
	predictionRepo prediction.Repository,
	guard SubmitGuard,
	workers *workerpool.Pool,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		matchRepo:      matchRepo,
		playerRepo:     playerRepo,
		predictionRepo: predictionRepo,
		guard:          guard,
		pool:           workers,
		logger:         logger,
	}
}

func (s *PredictionService) SetSubmitRecorder(recorder SubmitRecorder) {
	s.recorder = recorder
}

// GetSelection loads the match, its candidates and the caller's stored
// prediction concurrently and returns the roster builder state.
func (s *PredictionService) GetSelection(ctx context.Context, principal user.Principal, matchID string, source scoring.Source, now time.Time) (SelectionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.GetSelection", attribute.String("match.id", matchID))
	defer span.End()

	if err := requireUser(principal); err != nil {
		return SelectionView{}, err
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return SelectionView{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	var (
		m        match.Match
		players  []player.Player
		existing prediction.Prediction
		hasPred  bool
	)

	loads := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	loads.Go(func(ctx context.Context) error {
		var err error
		m, err = loadMatch(ctx, s.matchRepo, matchID)
		return err
	})
	loads.Go(func(ctx context.Context) error {
		items, err := s.playerRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		players = items
		return nil
	})
	loads.Go(func(ctx context.Context) error {
		item, ok, err := s.predictionRepo.GetByUserAndMatch(ctx, principal.UserID, matchID)
		if err != nil {
			return fmt.Errorf("get prediction: %w", err)
		}
		existing, hasPred = item, ok
		return nil
	})
	if err := loads.Wait(); err != nil {
		return SelectionView{}, err
	}

	candidates := player.CandidatesFor(players, m.ID)
	var stored *prediction.Prediction
	if hasPred {
		stored = &existing
	}
	sel := prediction.NewSelection(m, candidates, stored)

	view := SelectionView{
		Match:     newMatchView(m, now),
		Selected:  sel.Selected(),
		Available: sel.Available(),
		CanSubmit: sel.CanSubmit(now),
	}
	if hasPred {
		score := scoring.Evaluate(existing, targetSource(source, players, m.ID))
		view.Prediction = &existing
		view.Score = &score
	}

	return view, nil
}

// Submit stores the caller's roster for a match. Unknown or non-candidate
// player ids are invalid input. A locked match, a roster that is not exactly
// RosterSize players or a submission already in flight leave storage
// untouched and return Applied=false with a reason.
func (s *PredictionService) Submit(ctx context.Context, principal user.Principal, input SubmitInput, now time.Time) (result SubmitResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit", attribute.String("match.id", input.MatchID))
	defer func() { endSpan(span, err) }()

	if err := requireUser(principal); err != nil {
		return SubmitResult{}, err
	}

	playerIDs, err := normalizeIDs(input.PlayerIDs)
	if err != nil {
		return SubmitResult{}, err
	}
	seen := make(map[string]struct{}, len(playerIDs))
	for _, playerID := range playerIDs {
		if _, dup := seen[playerID]; dup {
			return SubmitResult{}, fmt.Errorf("%w: duplicate player id %s", ErrInvalidInput, playerID)
		}
		seen[playerID] = struct{}{}
	}

	m, err := loadMatch(ctx, s.matchRepo, input.MatchID)
	if err != nil {
		return SubmitResult{}, err
	}

	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("list players: %w", err)
	}

	existing, hasExisting, err := s.predictionRepo.GetByUserAndMatch(ctx, principal.UserID, m.ID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get prediction: %w", err)
	}
	refused := func(reason string) (SubmitResult, error) {
		s.observe(reason)
		s.logger.InfoContext(ctx, "prediction submit refused",
			"user_id", principal.UserID,
			"match_id", m.ID,
			"reason", reason,
		)
		out := SubmitResult{Applied: false, Reason: reason}
		if hasExisting {
			out.Prediction = &existing
		}
		return out, nil
	}

	sel := prediction.NewSelection(m, player.CandidatesFor(players, m.ID), nil)
	for _, playerID := range playerIDs {
		if !sel.IsCandidate(playerID) {
			return SubmitResult{}, fmt.Errorf("%w: player %s is not selectable for match %s", ErrInvalidInput, playerID, m.ID)
		}
	}

	if sel.Locked(now) {
		return refused(SubmitReasonLocked)
	}
	if len(playerIDs) != prediction.RosterSize {
		return refused(SubmitReasonRosterSize)
	}
	for _, playerID := range playerIDs {
		sel.Select(playerID, now)
	}

	predictionID := prediction.ID(principal.UserID, m.ID)
	if s.guard != nil {
		release, ok, err := s.guard.Acquire(ctx, predictionID)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("%w: acquire submit guard: %v", ErrDependencyUnavailable, err)
		}
		if !ok {
			return refused(SubmitReasonInFlight)
		}
		defer release()
	}
	if !sel.BeginSubmit(now) {
		return refused(SubmitReasonRosterSize)
	}
	defer sel.EndSubmit()

	createdAt := now.UTC()
	if hasExisting && !existing.CreatedAt.IsZero() {
		createdAt = existing.CreatedAt
	}
	item := prediction.Prediction{
		ID:              predictionID,
		UserID:          principal.UserID,
		UserEmail:       principal.Email,
		MatchID:         m.ID,
		SelectedPlayers: sel.Snapshot(),
		CreatedAt:       createdAt,
		UpdatedAt:       now.UTC(),
		Status:          prediction.StatusPending,
	}
	if err := item.Validate(); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	stored, err := s.predictionRepo.Upsert(ctx, item)
	if err != nil {
		s.observe("error")
		return SubmitResult{}, fmt.Errorf("upsert prediction: %w", err)
	}

	s.observe("applied")
	s.logger.InfoContext(ctx, "prediction submitted",
		"prediction_id", stored.ID,
		"user_id", stored.UserID,
		"match_id", stored.MatchID,
		"replaced", hasExisting,
	)

	return SubmitResult{Prediction: &stored, Applied: true}, nil
}

func (s *PredictionService) GetMine(ctx context.Context, principal user.Principal, matchID string, source scoring.Source) (PredictionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.GetMine", attribute.String("match.id", matchID))
	defer span.End()

	if err := requireUser(principal); err != nil {
		return PredictionView{}, err
	}
	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return PredictionView{}, err
	}

	item, exists, err := s.predictionRepo.GetByUserAndMatch(ctx, principal.UserID, m.ID)
	if err != nil {
		return PredictionView{}, fmt.Errorf("get prediction: %w", err)
	}
	if !exists {
		return PredictionView{}, fmt.Errorf("%w: prediction for match=%s", ErrNotFound, m.ID)
	}

	return s.scorePrediction(ctx, item, &m, source)
}

// ListMine returns the caller's predictions, newest first. Live scoring loads
// the picked players for each prediction on the worker pool.
func (s *PredictionService) ListMine(ctx context.Context, principal user.Principal, source scoring.Source) ([]PredictionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListMine")
	defer span.End()

	if err := requireUser(principal); err != nil {
		return nil, err
	}

	items, err := s.predictionRepo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by user: %w", err)
	}
	if len(items) == 0 {
		return []PredictionView{}, nil
	}

	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	matchByID := make(map[string]match.Match, len(matches))
	for _, m := range matches {
		matchByID[m.ID] = m
	}

	out := make([]PredictionView, len(items))
	indexes := make([]int, len(items))
	for i := range items {
		indexes[i] = i
	}
	err = workerpool.ForEach(ctx, s.pool, indexes, func(ctx context.Context, i int) error {
		var m *match.Match
		if found, ok := matchByID[items[i].MatchID]; ok {
			m = &found
		}
		view, err := s.scorePrediction(ctx, items[i], m, source)
		if err != nil {
			return err
		}
		out[i] = view
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortPredictionViews(out)
	return out, nil
}

// ListByMatch returns every prediction for a match with scores, for
// administrators.
func (s *PredictionService) ListByMatch(ctx context.Context, principal user.Principal, matchID string, source scoring.Source) ([]PredictionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListByMatch", attribute.String("match.id", matchID))
	defer span.End()

	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	m, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, err
	}

	items, err := s.predictionRepo.ListByMatch(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("list predictions by match: %w", err)
	}
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	src := targetSource(source, players, m.ID)
	out := make([]PredictionView, 0, len(items))
	for _, item := range items {
		out = append(out, PredictionView{
			Prediction: item,
			Match:      &m,
			Score:      scoring.Evaluate(item, src),
		})
	}
	sortPredictionViews(out)

	return out, nil
}

func (s *PredictionService) scorePrediction(ctx context.Context, item prediction.Prediction, m *match.Match, source scoring.Source) (PredictionView, error) {
	view := PredictionView{Prediction: item, Match: m}
	if source == scoring.SourceSnapshot {
		view.Score = scoring.Evaluate(item, scoring.SnapshotSource())
		return view, nil
	}

	players, err := s.playerRepo.GetByIDs(ctx, item.PlayerIDs())
	if err != nil {
		return PredictionView{}, fmt.Errorf("get players for prediction %s: %w", item.ID, err)
	}
	view.Score = scoring.Evaluate(item, scoring.LiveSource(players, item.MatchID))
	return view, nil
}

func (s *PredictionService) observe(outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveSubmit(outcome)
	}
}

func targetSource(source scoring.Source, players []player.Player, matchID string) scoring.TargetSource {
	if source == scoring.SourceSnapshot {
		return scoring.SnapshotSource()
	}
	return scoring.LiveSource(players, matchID)
}

func sortPredictionViews(items []PredictionView) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Prediction, items[j].Prediction
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}
