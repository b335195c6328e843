package persistence

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/spec-kit/session-auth/internal/config"
)

// SQLite wraps a database/sql handle opened with the modernc driver.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens the database at cfg.Path, creating the file if needed.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("SQLITE_PATH not provided")
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// A single connection keeps writers serialised and makes :memory: usable.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("opened sqlite", zap.String("path", cfg.Path))
	return &SQLite{DB: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}
