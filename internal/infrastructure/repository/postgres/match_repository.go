package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	qb "github.com/riskibarqy/fantasy-prediction/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match by id: %w", err)
	}

	return matchFromRow(row), true, nil
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		OrderBy("starts_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row))
	}
	return out, nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	builder, err := qb.InsertModel("matches", matchToRow(item))
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert match query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("match %s already exists", item.ID)
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, status match.Status, updatedAt time.Time) error {
	query, args, err := qb.Update("matches").
		Set("status", string(status)).
		Set("updated_at", updatedAt.UTC()).
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update match status query: %w", err)
	}

	if err := execAffectingOne(ctx, r.db, query, args, fmt.Errorf("match %s not found", matchID)); err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	return nil
}

func matchFromRow(row matchTableModel) match.Match {
	return match.Match{
		ID:          row.ID,
		Team1:       row.Team1,
		Team2:       row.Team2,
		Venue:       row.Venue,
		Description: row.Description,
		StartsAt:    row.StartsAt.UTC(),
		Status:      match.NormalizeStatus(row.Status),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func matchToRow(item match.Match) matchTableModel {
	return matchTableModel{
		ID:          item.ID,
		Team1:       item.Team1,
		Team2:       item.Team2,
		Venue:       item.Venue,
		Description: item.Description,
		StartsAt:    item.StartsAt.UTC(),
		Status:      string(match.NormalizeStatus(string(item.Status))),
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}
