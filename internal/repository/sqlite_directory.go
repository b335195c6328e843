package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/session-auth/internal/domain"
)

type sqliteDirectory struct {
	db *sql.DB
}

// NewSQLiteDirectory returns a Directory over an SQLite database opened with the
// modernc driver. The schema must already be applied.
func NewSQLiteDirectory(db *sql.DB) Directory {
	return &sqliteDirectory{db: db}
}

func (d *sqliteDirectory) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	account, err := d.findAccount(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &account.Identity, nil
}

func (d *sqliteDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return d.findAccount(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (d *sqliteDirectory) findAccount(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var (
		account   domain.Account
		createdAt string
	)
	err := d.db.QueryRowContext(ctx, query, arg).Scan(&account.ID, &account.Email, &account.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	account.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at for identity %d: %w", account.ID, err)
	}

	roles, err := d.rolesOf(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Roles = roles
	return &account, nil
}

func (d *sqliteDirectory) rolesOf(ctx context.Context, userID int64) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}

func (d *sqliteDirectory) Create(ctx context.Context, account *domain.Account) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	createdAt := time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		account.Email, account.PasswordHash, createdAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	account.ID = id
	account.CreatedAt = createdAt
	account.Roles = sortedRoles(account.Roles)
	if err := sqliteGrantRoles(ctx, tx, id, account.Roles); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *sqliteDirectory) AssignRoles(ctx context.Context, id int64, roles ...string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var found int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ?`, id).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := sqliteGrantRoles(ctx, tx, id, sortedRoles(roles)); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *sqliteDirectory) EnsureRoles(ctx context.Context, roles ...string) error {
	for _, role := range sortedRoles(roles) {
		if _, err := d.db.ExecContext(ctx, `INSERT OR IGNORE INTO roles (name) VALUES (?)`, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
	}
	return nil
}

func (d *sqliteDirectory) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func sqliteGrantRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []string) error {
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO roles (name) VALUES (?)`, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_roles (user_id, role_id)
			SELECT ?, id FROM roles WHERE name = ?`, userID, role); err != nil {
			return fmt.Errorf("grant role %s: %w", role, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
