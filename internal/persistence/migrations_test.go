package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/internal/config"
)

func TestLoadMigrations(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		files, err := loadMigrations(dialect)
		require.NoError(t, err, dialect)
		require.NotEmpty(t, files, dialect)
		assert.Equal(t, "001_identity.sql", files[0].name)
		assert.Contains(t, files[0].sql, "user_roles")
	}
}

func TestRunSQLiteMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	lite, err := NewSQLite(ctx, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "auth.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(lite.Close)

	require.NoError(t, RunSQLiteMigrations(ctx, lite.DB, zap.NewNop()))
	require.NoError(t, RunSQLiteMigrations(ctx, lite.DB, zap.NewNop()))

	var roles int
	require.NoError(t, lite.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&roles))
	assert.Equal(t, 2, roles)
}

func TestNewSQLite_RequiresPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), config.SQLiteConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestRunMigrations_NilPoolSkips(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestPostgres_NilPing(t *testing.T) {
	var pg *Postgres
	require.Error(t, pg.Ping(context.Background()))
}
