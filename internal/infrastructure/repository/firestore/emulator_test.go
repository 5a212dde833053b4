package firestore

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositories_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := t.Context()
	projectID := fmt.Sprintf("prediction-test-%d", time.Now().UnixNano())
	client, err := NewClient(ctx, ClientConfig{ProjectID: projectID})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, BootstrapSeed(ctx, client, now))

	matches := NewMatchRepository(client)
	players := NewPlayerRepository(client)
	predictions := NewPredictionRepository(client)

	items, err := matches.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(memory.SeedMatches(now)))

	require.Error(t, matches.Create(ctx, items[0]), "duplicate create must fail")
	require.NoError(t, matches.UpdateStatus(ctx, memory.MatchIDEnglandPakistan, match.StatusCompleted, now))
	require.Error(t, matches.UpdateStatus(ctx, "missing", match.StatusLive, now))

	all, err := players.List(ctx)
	require.NoError(t, err)
	candidates := player.CandidatesFor(all, memory.MatchIDIndiaAustralia)
	require.Len(t, candidates, 8)

	require.NoError(t, players.SetTarget(ctx, candidates[0].ID, memory.MatchIDIndiaAustralia, player.Target{Kind: player.MetricRuns, Threshold: 40, ActualPoints: floatPtr(55)}))
	got, ok, err := players.GetByID(ctx, candidates[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	target, _ := got.TargetFor(memory.MatchIDIndiaAustralia)
	assert.Equal(t, 40.0, target.Threshold)
	require.NotNil(t, target.ActualPoints)
	assert.Equal(t, 55.0, *target.ActualPoints)

	byIDs, err := players.GetByIDs(ctx, []string{candidates[1].ID, "missing", candidates[2].ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	selected := make([]prediction.SelectedPlayer, 0, prediction.RosterSize)
	for _, c := range candidates[:prediction.RosterSize] {
		tgt, _ := c.TargetFor(memory.MatchIDIndiaAustralia)
		selected = append(selected, prediction.SelectedPlayer{PlayerID: c.ID, Name: c.Name, Team: c.Team, Kind: tgt.Kind, Threshold: tgt.Threshold})
	}
	item := prediction.Prediction{
		ID:              prediction.ID("user-1", memory.MatchIDIndiaAustralia),
		UserID:          "user-1",
		MatchID:         memory.MatchIDIndiaAustralia,
		SelectedPlayers: selected,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err = predictions.Upsert(ctx, item)
	require.NoError(t, err)

	item.CreatedAt = now.Add(time.Hour)
	item.UpdatedAt = now.Add(time.Hour)
	saved, err := predictions.Upsert(ctx, item)
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(now), "createdAt must survive overwrite")

	mine, err := predictions.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].UpdatedAt.Equal(now.Add(time.Hour)))

	require.NoError(t, players.Delete(ctx, candidates[4].ID))
	require.Error(t, players.Delete(ctx, candidates[4].ID))
}
