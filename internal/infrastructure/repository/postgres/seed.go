package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	qb "github.com/riskibarqy/fantasy-prediction/internal/platform/querybuilder"
)

// BootstrapSeed loads the demo fixtures into an empty database. A database
// that already holds matches is left alone.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, now time.Time) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM matches`); err != nil {
		return fmt.Errorf("count matches for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range memory.SeedMatches(now) {
		builder, err := qb.InsertModel("matches", matchToRow(m))
		if err != nil {
			return fmt.Errorf("build seed match %s query: %w", m.ID, err)
		}
		query, args, err := builder.OnConflictDoNothing("id").ToSQL()
		if err != nil {
			return fmt.Errorf("build seed match %s query: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed match %s: %w", m.ID, err)
		}
	}

	for _, p := range memory.SeedPlayers(now) {
		builder, err := qb.InsertModel("players", playerToRow(p))
		if err != nil {
			return fmt.Errorf("build seed player %s query: %w", p.ID, err)
		}
		query, args, err := builder.OnConflictDoNothing("id").ToSQL()
		if err != nil {
			return fmt.Errorf("build seed player %s query: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}

		matchIDs := make([]string, 0, len(p.Targets))
		for matchID := range p.Targets {
			matchIDs = append(matchIDs, matchID)
		}
		sort.Strings(matchIDs)
		for _, matchID := range matchIDs {
			if err := upsertTarget(ctx, tx, p.ID, matchID, p.Targets[matchID], p.UpdatedAt); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
