package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	qb "github.com/riskibarqy/fantasy-prediction/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var playerSelectColumns = []string{
	"id",
	"name",
	"team",
	"role",
	"created_at",
	"updated_at",
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db, now: time.Now}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	items, err := r.GetByIDs(ctx, []string{playerID})
	if err != nil {
		return player.Player{}, false, err
	}
	if len(items) == 0 {
		return player.Player{}, false, nil
	}
	return items[0], true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.InStrings("id", playerIDs)).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	return r.selectWithTargets(ctx, query, args)
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	return r.selectWithTargets(ctx, query, args)
}

func (r *PlayerRepository) Create(ctx context.Context, item player.Player) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create player tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	builder, err := qb.InsertModel("players", playerToRow(item))
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("player %s already exists", item.ID)
		}
		return fmt.Errorf("insert player: %w", err)
	}

	matchIDs := make([]string, 0, len(item.Targets))
	for matchID := range item.Targets {
		matchIDs = append(matchIDs, matchID)
	}
	sort.Strings(matchIDs)
	for _, matchID := range matchIDs {
		if err := upsertTarget(ctx, tx, item.ID, matchID, item.Targets[matchID], item.UpdatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create player tx: %w", err)
	}
	return nil
}

// Update rewrites the identity columns only. Targets are managed through
// SetTarget.
func (r *PlayerRepository) Update(ctx context.Context, item player.Player) error {
	query, args, err := qb.Update("players").
		Set("name", item.Name).
		Set("team", item.Team).
		Set("role", string(item.Role)).
		Set("updated_at", item.UpdatedAt.UTC()).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	if err := execAffectingOne(ctx, r.db, query, args, fmt.Errorf("player %s not found", item.ID)); err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, playerID string) error {
	query, args, err := qb.DeleteFrom("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete player query: %w", err)
	}

	if err := execAffectingOne(ctx, r.db, query, args, fmt.Errorf("player %s not found", playerID)); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return nil
}

func (r *PlayerRepository) SetTarget(ctx context.Context, playerID, matchID string, target player.Target) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set target tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := r.now().UTC()
	query, args, err := qb.Update("players").
		Set("updated_at", now).
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch player query: %w", err)
	}
	if err := execAffectingOne(ctx, tx, query, args, fmt.Errorf("player %s not found", playerID)); err != nil {
		return fmt.Errorf("set target: %w", err)
	}

	if err := upsertTarget(ctx, tx, playerID, matchID, target, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set target tx: %w", err)
	}
	return nil
}

func upsertTarget(ctx context.Context, tx *sqlx.Tx, playerID, matchID string, target player.Target, updatedAt time.Time) error {
	row := playerTargetTableModel{
		PlayerID:     playerID,
		MatchID:      matchID,
		Kind:         string(target.Kind),
		Threshold:    target.Threshold,
		ActualPoints: nullFloat(target.ActualPoints),
		IsSelected:   target.IsSelected,
		UpdatedAt:    updatedAt.UTC(),
	}

	query, args, err := qb.UpsertModel("player_match_targets", row, []string{"player_id", "match_id"})
	if err != nil {
		return fmt.Errorf("build upsert player target query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert target for player %s match %s: %w", playerID, matchID, err)
	}
	return nil
}

func (r *PlayerRepository) selectWithTargets(ctx context.Context, query string, args []any) ([]player.Player, error) {
	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	if len(rows) == 0 {
		return []player.Player{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	targetQuery, targetArgs, err := qb.Select("*").From("player_match_targets").
		Where(qb.InStrings("player_id", ids)).
		OrderBy("player_id", "match_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player targets query: %w", err)
	}

	var targets []playerTargetTableModel
	if err := r.db.SelectContext(ctx, &targets, targetQuery, targetArgs...); err != nil {
		return nil, fmt.Errorf("select player targets: %w", err)
	}

	return assemblePlayers(rows, targets), nil
}

func assemblePlayers(rows []playerTableModel, targets []playerTargetTableModel) []player.Player {
	byPlayer := make(map[string]map[string]player.Target, len(rows))
	for _, t := range targets {
		m, ok := byPlayer[t.PlayerID]
		if !ok {
			m = make(map[string]player.Target)
			byPlayer[t.PlayerID] = m
		}
		m[t.MatchID] = player.Target{
			Kind:         player.MetricKind(t.Kind),
			Threshold:    t.Threshold,
			ActualPoints: floatPtr(t.ActualPoints),
			IsSelected:   t.IsSelected,
		}
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{
			ID:        row.ID,
			Name:      row.Name,
			Team:      row.Team,
			Role:      player.Role(row.Role),
			Targets:   byPlayer[row.ID],
			CreatedAt: row.CreatedAt.UTC(),
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return out
}

func playerToRow(item player.Player) playerTableModel {
	return playerTableModel{
		ID:        item.ID,
		Name:      item.Name,
		Team:      item.Team,
		Role:      string(item.Role),
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}
