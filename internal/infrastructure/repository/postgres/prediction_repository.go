package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	qb "github.com/riskibarqy/fantasy-prediction/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	return r.getOne(ctx, qb.Eq("id", predictionID))
}

func (r *PredictionRepository) GetByUserAndMatch(ctx context.Context, userID, matchID string) (prediction.Prediction, bool, error) {
	return r.getOne(ctx, qb.Eq("user_id", userID), qb.Eq("match_id", matchID))
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string) ([]prediction.Prediction, error) {
	return r.list(ctx, qb.Eq("user_id", userID))
}

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID string) ([]prediction.Prediction, error) {
	return r.list(ctx, qb.Eq("match_id", matchID))
}

// Upsert writes the whole row on conflict except created_at, which is read
// back so callers see the original submission time.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) (prediction.Prediction, error) {
	row, err := predictionToRow(item)
	if err != nil {
		return prediction.Prediction{}, err
	}

	builder, err := qb.InsertModel("predictions", row)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("build prediction upsert query: %w", err)
	}
	query, args, err := builder.
		OnConflictUpdate([]string{"id"}, "user_email", "selected_players", "status", "updated_at").
		Returning("created_at").
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("build prediction upsert query: %w", err)
	}

	var createdAt time.Time
	if err := r.db.GetContext(ctx, &createdAt, query, args...); err != nil {
		return prediction.Prediction{}, fmt.Errorf("upsert prediction: %w", err)
	}

	out := item.Clone()
	out.CreatedAt = createdAt.UTC()
	return out, nil
}

// ApplyOutcome locks the row before patching selected_players, so a concurrent
// Upsert either lands first and is read here or waits for this commit.
func (r *PredictionRepository) ApplyOutcome(ctx context.Context, predictionID, playerID string, actual float64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin apply outcome tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select("*").From("predictions").
		Where(qb.Eq("id", predictionID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build lock prediction query: %w", err)
	}

	var row predictionTableModel
	if err := tx.GetContext(ctx, &row, query+" FOR UPDATE", args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lock prediction %s: %w", predictionID, err)
	}

	item, err := predictionFromRow(row)
	if err != nil {
		return false, err
	}
	if !item.ApplyOutcome(playerID, actual) {
		return false, nil
	}

	encoded, err := encodeSelectedPlayers(item.SelectedPlayers)
	if err != nil {
		return false, fmt.Errorf("encode selected players for prediction %s: %w", item.ID, err)
	}
	query, args, err = qb.Update("predictions").
		Set("selected_players", encoded).
		Where(qb.Eq("id", predictionID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build apply outcome query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("apply outcome to prediction %s: %w", predictionID, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply outcome tx: %w", err)
	}
	return true, nil
}

func (r *PredictionRepository) getOne(ctx context.Context, conditions ...qb.Condition) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(conditions...).
		Limit(1).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build select prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("select prediction: %w", err)
	}

	item, err := predictionFromRow(row)
	if err != nil {
		return prediction.Prediction{}, false, err
	}
	return item, true, nil
}

func (r *PredictionRepository) list(ctx context.Context, conditions ...qb.Condition) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(conditions...).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select predictions query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select predictions: %w", err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		item, err := predictionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func predictionToRow(item prediction.Prediction) (predictionTableModel, error) {
	encoded, err := encodeSelectedPlayers(item.SelectedPlayers)
	if err != nil {
		return predictionTableModel{}, fmt.Errorf("encode selected players for prediction %s: %w", item.ID, err)
	}

	status := strings.TrimSpace(item.Status)
	if status == "" {
		status = prediction.StatusPending
	}

	return predictionTableModel{
		ID:              item.ID,
		UserID:          item.UserID,
		UserEmail:       item.UserEmail,
		MatchID:         item.MatchID,
		SelectedPlayers: encoded,
		Status:          status,
		CreatedAt:       item.CreatedAt.UTC(),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}, nil
}

func predictionFromRow(row predictionTableModel) (prediction.Prediction, error) {
	selected, err := decodeSelectedPlayers(row.SelectedPlayers)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("decode selected players for prediction %s: %w", row.ID, err)
	}

	return prediction.Prediction{
		ID:              row.ID,
		UserID:          row.UserID,
		UserEmail:       row.UserEmail,
		MatchID:         row.MatchID,
		SelectedPlayers: selected,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
		Status:          row.Status,
	}, nil
}

func encodeSelectedPlayers(items []prediction.SelectedPlayer) (string, error) {
	docs := make([]selectedPlayerDocument, 0, len(items))
	for _, s := range items {
		docs = append(docs, selectedPlayerDocument{
			PlayerID:     s.PlayerID,
			Name:         s.Name,
			Team:         s.Team,
			Type:         string(s.Kind),
			Target:       s.Threshold,
			ActualPoints: s.ActualPoints,
		})
	}

	encoded, err := sonic.Marshal(docs)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeSelectedPlayers(raw string) ([]prediction.SelectedPlayer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []prediction.SelectedPlayer{}, nil
	}

	var docs []selectedPlayerDocument
	if err := sonic.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, err
	}

	out := make([]prediction.SelectedPlayer, 0, len(docs))
	for _, d := range docs {
		out = append(out, prediction.SelectedPlayer{
			PlayerID:     d.PlayerID,
			Name:         d.Name,
			Team:         d.Team,
			Kind:         player.MetricKind(d.Type),
			Threshold:    d.Target,
			ActualPoints: d.ActualPoints,
		})
	}
	return out, nil
}
