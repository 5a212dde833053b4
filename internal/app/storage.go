package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/fantasy-prediction/internal/config"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/firestore"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-prediction/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/fantasy-prediction/internal/platform/cache"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
)

type repositories struct {
	matches     match.Repository
	players     player.Repository
	predictions prediction.Repository
	close       func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var (
		repos repositories
		err   error
	)

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		repos, err = openPostgres(ctx, cfg)
	case config.StorageFirestore:
		repos, err = openFirestore(ctx, cfg)
	default:
		now := time.Now().UTC()
		repos = repositories{
			matches:     memory.NewMatchRepository(memory.SeedMatches(now)),
			players:     memory.NewPlayerRepository(memory.SeedPlayers(now)),
			predictions: memory.NewPredictionRepository(),
			close:       func(context.Context) error { return nil },
		}
	}
	if err != nil {
		return repositories{}, err
	}

	if cfg.CacheEnabled && cfg.StorageDriver != config.StorageMemory {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.matches = cache.NewMatchRepository(repos.matches, store)
		repos.players = cache.NewPlayerRepository(repos.players, store)
		logger.Info("read-through cache enabled", "ttl", cfg.CacheTTL.String())
	}

	return repos, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (repositories, error) {
	dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return repositories{}, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return repositories{}, fmt.Errorf("ping postgres: %w", err)
	}

	if cfg.SeedDemoData {
		if err := postgres.BootstrapSeed(ctx, db, time.Now().UTC()); err != nil {
			_ = db.Close()
			return repositories{}, fmt.Errorf("seed postgres: %w", err)
		}
	}

	return repositories{
		matches:     postgres.NewMatchRepository(db),
		players:     postgres.NewPlayerRepository(db),
		predictions: postgres.NewPredictionRepository(db),
		close:       closeDB(db),
	}, nil
}

func closeDB(db *sqlx.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

func openFirestore(ctx context.Context, cfg config.Config) (repositories, error) {
	client, err := firestore.NewClient(ctx, firestore.ClientConfig{
		ProjectID:       cfg.FirestoreProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
	})
	if err != nil {
		return repositories{}, err
	}

	if cfg.SeedDemoData {
		if err := firestore.BootstrapSeed(ctx, client, time.Now().UTC()); err != nil {
			_ = client.Close()
			return repositories{}, fmt.Errorf("seed firestore: %w", err)
		}
	}

	return repositories{
		matches:     firestore.NewMatchRepository(client),
		players:     firestore.NewPlayerRepository(client),
		predictions: firestore.NewPredictionRepository(client),
		close:       func(context.Context) error { return client.Close() },
	}, nil
}
