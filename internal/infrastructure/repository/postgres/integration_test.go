package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const migrationsSource = "file://../../../../db/migrations"

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	ctr, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("prediction"),
		tcpostgres.WithUsername("prediction"),
		tcpostgres.WithPassword("prediction"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	m, err := migrate.New(migrationsSource, dsn)
	if err != nil {
		t.Fatalf("create migrator: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRepositories_Postgres(t *testing.T) {
	db := startPostgres(t)
	ctx := t.Context()
	now := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

	if err := BootstrapSeed(ctx, db, now); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := BootstrapSeed(ctx, db, now); err != nil {
		t.Fatalf("second seed should be a no-op: %v", err)
	}

	matches := NewMatchRepository(db)
	players := NewPlayerRepository(db)
	predictions := NewPredictionRepository(db)

	t.Run("matches", func(t *testing.T) {
		items, err := matches.List(ctx)
		if err != nil {
			t.Fatalf("list matches: %v", err)
		}
		if len(items) != len(memory.SeedMatches(now)) {
			t.Fatalf("unexpected match count: %d", len(items))
		}
		for i := 1; i < len(items); i++ {
			if items[i].StartsAt.Before(items[i-1].StartsAt) {
				t.Fatalf("matches not ordered by start time")
			}
		}

		if err := matches.UpdateStatus(ctx, memory.MatchIDEnglandPakistan, match.StatusCompleted, now); err != nil {
			t.Fatalf("update status: %v", err)
		}
		got, ok, err := matches.GetByID(ctx, memory.MatchIDEnglandPakistan)
		if err != nil || !ok {
			t.Fatalf("get match: ok=%v err=%v", ok, err)
		}
		if got.Status != match.StatusCompleted {
			t.Fatalf("unexpected status: %s", got.Status)
		}

		if err := matches.UpdateStatus(ctx, "missing", match.StatusLive, now); err == nil {
			t.Fatalf("expected error for unknown match")
		}
		if _, ok, err := matches.GetByID(ctx, "missing"); err != nil || ok {
			t.Fatalf("expected missing match, ok=%v err=%v", ok, err)
		}
	})

	t.Run("player targets", func(t *testing.T) {
		all, err := players.List(ctx)
		if err != nil {
			t.Fatalf("list players: %v", err)
		}
		if got := len(player.CandidatesFor(all, memory.MatchIDIndiaAustralia)); got != 8 {
			t.Fatalf("unexpected candidate count: %d", got)
		}

		p := all[0]
		actual := 17.0
		if err := players.SetTarget(ctx, p.ID, memory.MatchIDIndiaEnglandNext, player.Target{Kind: player.MetricRuns, Threshold: 25, ActualPoints: &actual}); err != nil {
			t.Fatalf("set target: %v", err)
		}
		got, ok, err := players.GetByID(ctx, p.ID)
		if err != nil || !ok {
			t.Fatalf("get player: ok=%v err=%v", ok, err)
		}
		target, ok := got.TargetFor(memory.MatchIDIndiaEnglandNext)
		if !ok || target.Threshold != 25 || target.ActualPoints == nil || *target.ActualPoints != 17 {
			t.Fatalf("unexpected target: %+v", target)
		}

		if err := players.SetTarget(ctx, "missing", memory.MatchIDIndiaAustralia, player.Target{Kind: player.MetricRuns}); err == nil {
			t.Fatalf("expected error for unknown player")
		}
	})

	t.Run("prediction upsert keeps created_at", func(t *testing.T) {
		all, err := players.List(ctx)
		if err != nil {
			t.Fatalf("list players: %v", err)
		}
		candidates := player.CandidatesFor(all, memory.MatchIDIndiaAustralia)[:prediction.RosterSize]

		selected := make([]prediction.SelectedPlayer, 0, len(candidates))
		for _, c := range candidates {
			target, _ := c.TargetFor(memory.MatchIDIndiaAustralia)
			selected = append(selected, prediction.SelectedPlayer{
				PlayerID: c.ID, Name: c.Name, Team: c.Team, Kind: target.Kind, Threshold: target.Threshold,
			})
		}

		item := prediction.Prediction{
			ID:              prediction.ID("user-1", memory.MatchIDIndiaAustralia),
			UserID:          "user-1",
			UserEmail:       "user1@example.com",
			MatchID:         memory.MatchIDIndiaAustralia,
			SelectedPlayers: selected,
			CreatedAt:       now,
			UpdatedAt:       now,
			Status:          prediction.StatusPending,
		}
		if _, err := predictions.Upsert(ctx, item); err != nil {
			t.Fatalf("first upsert: %v", err)
		}

		later := now.Add(time.Hour)
		item.CreatedAt = later
		item.UpdatedAt = later
		saved, err := predictions.Upsert(ctx, item)
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		if !saved.CreatedAt.Equal(now) {
			t.Fatalf("expected created_at %s to survive, got %s", now, saved.CreatedAt)
		}

		got, ok, err := predictions.GetByUserAndMatch(ctx, "user-1", memory.MatchIDIndiaAustralia)
		if err != nil || !ok {
			t.Fatalf("get prediction: ok=%v err=%v", ok, err)
		}
		if !got.UpdatedAt.Equal(later) || len(got.SelectedPlayers) != prediction.RosterSize {
			t.Fatalf("unexpected stored prediction: %+v", got)
		}

		byMatch, err := predictions.ListByMatch(ctx, memory.MatchIDIndiaAustralia)
		if err != nil || len(byMatch) != 1 {
			t.Fatalf("list by match: %d %v", len(byMatch), err)
		}

		changed, err := predictions.ApplyOutcome(ctx, item.ID, candidates[0].ID, 41)
		if err != nil || !changed {
			t.Fatalf("apply outcome: changed=%v err=%v", changed, err)
		}
		if changed, err := predictions.ApplyOutcome(ctx, "missing", candidates[0].ID, 41); err != nil || changed {
			t.Fatalf("apply outcome to missing prediction: changed=%v err=%v", changed, err)
		}
		graded, _, err := predictions.GetByID(ctx, item.ID)
		if err != nil {
			t.Fatalf("get graded prediction: %v", err)
		}
		if a := graded.SelectedPlayers[0].ActualPoints; a == nil || *a != 41 || graded.SelectedPlayers[1].ActualPoints != nil {
			t.Fatalf("unexpected graded snapshot: %+v", graded.SelectedPlayers)
		}
	})

	t.Run("delete cascades targets", func(t *testing.T) {
		all, err := players.List(ctx)
		if err != nil {
			t.Fatalf("list players: %v", err)
		}
		victim := all[len(all)-1]
		if err := players.Delete(ctx, victim.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, ok, err := players.GetByID(ctx, victim.ID); err != nil || ok {
			t.Fatalf("expected deleted player to be gone, ok=%v err=%v", ok, err)
		}
		if err := players.Delete(ctx, victim.ID); err == nil {
			t.Fatalf("expected error deleting twice")
		}
	})
}
