package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// testSQLite opens a temp-file database with the embedded schema applied.
func testSQLite(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "directory.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "sqlite", "001_identity.sql"))
	require.NoError(t, err)
	_, err = db.ExecContext(context.Background(), string(schema))
	require.NoError(t, err)
	return db
}

func TestSQLiteDirectory(t *testing.T) {
	runDirectoryContract(t, func(t *testing.T) Directory { return NewSQLiteDirectory(testSQLite(t)) })
}

func TestSQLiteDirectory_DeletedUserLosesRoles(t *testing.T) {
	db := testSQLite(t)
	dir := NewSQLiteDirectory(db)
	ctx := context.Background()

	account := newAccount("gone@x.com", "ADMIN")
	require.NoError(t, dir.Create(ctx, account))

	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, account.ID)
	require.NoError(t, err)

	_, err = dir.FindByID(ctx, account.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var grants int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_roles WHERE user_id = ?`, account.ID).Scan(&grants))
	require.Zero(t, grants)
}

func TestSQLiteDirectory_DuplicateEmailIsTyped(t *testing.T) {
	db := testSQLite(t)
	dir := NewSQLiteDirectory(db)
	ctx := context.Background()

	require.NoError(t, dir.Create(ctx, newAccount("dup@x.com", "USER")))

	_, err := db.ExecContext(ctx, `INSERT INTO users (email, password_hash, created_at) VALUES (?, 'h', '2024-01-01T00:00:00Z')`, "dup@x.com")
	require.True(t, isUniqueViolation(err))
	require.ErrorIs(t, dir.Create(ctx, newAccount("dup@x.com", "USER")), ErrEmailTaken)

	_, err = db.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES (9999, 9999)`)
	require.Error(t, err)
	require.False(t, isUniqueViolation(err), "foreign key failures are not duplicates")
}

func TestSQLiteDirectory_CorruptCreatedAtFails(t *testing.T) {
	db := testSQLite(t)
	dir := NewSQLiteDirectory(db)
	ctx := context.Background()

	account := newAccount("corrupt@x.com", "USER")
	require.NoError(t, dir.Create(ctx, account))
	_, err := db.ExecContext(ctx, `UPDATE users SET created_at = 'yesterday' WHERE id = ?`, account.ID)
	require.NoError(t, err)

	_, err = dir.FindByID(ctx, account.ID)
	require.ErrorContains(t, err, "decode created_at")
	_, err = dir.FindByEmail(ctx, "corrupt@x.com")
	var parseErr *time.ParseError
	require.ErrorAs(t, err, &parseErr)
}
