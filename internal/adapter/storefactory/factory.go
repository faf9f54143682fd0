package storefactory

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gitlab.com/appserver.net/internal/adapter/etcd/toolstore"
	"gitlab.com/appserver.net/internal/adapter/postgres/toolrepository"
	"gitlab.com/appserver.net/internal/adapter/redis/toolport"
	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/config"
	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
)

// CloseFunc releases the connections behind a repository
type CloseFunc func() error

func noClose() error { return nil }

// NewRepository opens the tool repository selected by cfg.Backend
func NewRepository(ctx context.Context, cfg config.StoreConfig, logger primary.Logger) (secondary.ToolRepository, CloseFunc, error) {
	logger = logger.With("backend", cfg.Backend)

	switch cfg.Backend {
	case config.BackendStatic:
		return toolcatalog.Builtin(), noClose, nil

	case config.BackendRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return toolport.NewToolRepository(redisClient, logger), redisClient.Close, nil

	case config.BackendPostgres:
		db, err := setupDatabase(ctx, cfg.Postgres.Url)
		if err != nil {
			return nil, nil, err
		}
		repo := toolrepository.NewToolRepository(db, logger, cfg.Postgres.Schema)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, db.Close, nil

	case config.BackendEtcd:
		cli, err := toolstore.NewClient(cfg.Etcd.Endpoints, cfg.Etcd.DialTimeout)
		if err != nil {
			return nil, nil, err
		}
		return toolstore.NewToolStore(cli, cfg.Etcd.Prefix, logger), cli.Close, nil
	}

	return nil, nil, fmt.Errorf("unsupported tool store backend %q", cfg.Backend)
}

// Seed stores every definition of src that dst does not have yet
func Seed(ctx context.Context, dst secondary.ToolRepository, src secondary.ToolRepository) (int, error) {
	defs, err := src.List(ctx)
	if err != nil {
		return 0, err
	}

	existing, err := dst.List(ctx)
	if err != nil {
		return 0, err
	}
	have := make(map[string]struct{}, len(existing))
	for _, def := range existing {
		have[def.Name] = struct{}{}
	}

	seeded := 0
	for _, def := range defs {
		if _, ok := have[def.Name]; ok {
			continue
		}
		if err := dst.Save(ctx, def); err != nil {
			return seeded, fmt.Errorf("failed to seed tool %s: %w", def.Name, err)
		}
		seeded++
	}
	return seeded, nil
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(ctx context.Context, connStr string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
