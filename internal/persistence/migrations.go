package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/migrations"
)

type migration struct {
	name string
	sql  string
}

// loadMigrations returns the .sql files of dialect in lexical order.
func loadMigrations(dialect string) ([]migration, error) {
	dir, err := fs.Sub(migrations.FS, dialect)
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", dialect, err)
	}
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)

	out := make([]migration, 0, len(filenames))
	for _, name := range filenames {
		content, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{name: name, sql: string(content)})
	}
	return out, nil
}

// RunMigrations applies the embedded Postgres migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	files, err := loadMigrations("postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		logger.Info("applying migration", zap.String("file", m.name))
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(files)))
	return nil
}

// RunSQLiteMigrations applies the embedded SQLite migrations.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	files, err := loadMigrations("sqlite")
	if err != nil {
		return err
	}
	for _, m := range files {
		logger.Info("applying migration", zap.String("file", m.name))
		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(files)))
	return nil
}
