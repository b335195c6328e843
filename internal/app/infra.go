package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/internal/config"
	"github.com/spec-kit/session-auth/internal/persistence"
	"github.com/spec-kit/session-auth/internal/repository"
)

// Infra holds the directory backend selected by configuration.
type Infra struct {
	Directory repository.Directory
	closers   []func()
}

// NewInfra connects the configured directory backend and applies its schema.
func NewInfra(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Infra, error) {
	infra := &Infra{}

	switch cfg.Directory.Backend {
	case config.BackendPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		infra.closers = append(infra.closers, pg.Close)
		if pg.PoolHandle() == nil {
			infra.Close()
			return nil, errors.New("postgres directory requires POSTGRES_DSN")
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				infra.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		infra.Directory = repository.NewPostgresDirectory(pg.PoolHandle())

	case config.BackendSQLite:
		lite, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		infra.closers = append(infra.closers, lite.Close)
		if err := persistence.RunSQLiteMigrations(ctx, lite.DB, logger); err != nil {
			infra.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		infra.Directory = repository.NewSQLiteDirectory(lite.DB)

	case config.BackendRedis:
		rdb := persistence.NewRedis(cfg.Redis, logger)
		infra.closers = append(infra.closers, rdb.Close)
		infra.Directory = repository.NewRedisDirectory(rdb.Client)

	case config.BackendMemory:
		logger.Warn("using in-memory directory; identities are lost on restart")
		infra.Directory = repository.NewMemoryDirectory()

	default:
		return nil, fmt.Errorf("unsupported directory backend %q", cfg.Directory.Backend)
	}

	return infra, nil
}

// Close releases backend connections in reverse order.
func (i *Infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}
